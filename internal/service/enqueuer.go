package service

import (
	"context"
	"time"

	"github.com/socialqueue/pipeline/internal/transfer"
)

// Enqueuer hands work to the next pipeline stage. Implemented over asynq in
// internal/queue; tests substitute an in-memory recorder.
type Enqueuer interface {
	EnqueueReconcileUser(ctx context.Context, p transfer.ReconcileUserPayload) error
	EnqueueExtractContent(ctx context.Context, p transfer.ExtractContentPayload, at time.Time) error
	EnqueueStageMedia(ctx context.Context, p transfer.StageMediaPayload) error
	EnqueuePublishPost(ctx context.Context, p transfer.PublishPostPayload) error
	EnqueuePollContainer(ctx context.Context, p transfer.PollContainerPayload, delay time.Duration) error
}
