package transfer

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// PushClaims is the signed token attached to push deliveries from the queue
// collaborator. Stage endpoints reject deliveries whose token does not
// verify; the stage name binds a token to one endpoint.
type PushClaims struct {
	Stage string `json:"stage"`
	jwt.RegisteredClaims
}

const (
	StageReconcile = "reconcile"
	StageExtract   = "extract"
	StageStage     = "stage"
	StagePublish   = "publish"
	StagePoll      = "poll"
)

// ErrRateLimited is surfaced when a shared limiter rejects an external call.
// Handlers treat it as retryable and let the queue redeliver.
var ErrRateLimited = errors.New("rate limited")
