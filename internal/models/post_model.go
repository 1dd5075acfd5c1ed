package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Post is one scheduled publication of one Notion page to one connected
// account. The status column is the pipeline's cross-process state machine.
type Post struct {
	ID           int64          `db:"id" json:"id"`
	UserID       int64          `db:"user_id" json:"user_id"`
	NotionPageID string         `db:"notion_page_id" json:"notion_page_id"`
	AccountID    string         `db:"account_id" json:"account_id"`
	Platform     string         `db:"platform" json:"platform"`
	AccessToken  string         `db:"access_token" json:"access_token"`
	Caption      string         `db:"caption" json:"caption"`
	TimeToPost   time.Time      `db:"time_to_post" json:"time_to_post"`
	MediaURLs    pq.StringArray `db:"media_urls" json:"media_urls"`
	ContainerID  sql.NullString `db:"container_id" json:"container_id"`
	Status       string         `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusQueued     = "QUEUED"
	PostStatusProcessing = "PROCESSING"
	PostStatusPublished  = "PUBLISHED"
	PostStatusFailed     = "FAILED"
)

// allowedTransitions encodes QUEUED -> PROCESSING -> PUBLISHED with FAILED
// reachable from PROCESSING. PUBLISHED and FAILED are terminal.
var allowedTransitions = map[string][]string{
	PostStatusProcessing: {PostStatusQueued},
	PostStatusPublished:  {PostStatusProcessing},
	PostStatusFailed:     {PostStatusProcessing},
}

// TransitionSources returns the statuses from which a post may move into
// target. An empty slice means no transition into target is ever valid.
func TransitionSources(target string) []string {
	return allowedTransitions[target]
}

// CanTransition reports whether a post in from may move to target.
func CanTransition(from, target string) bool {
	for _, s := range allowedTransitions[target] {
		if s == from {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the given status.
func IsTerminal(status string) bool {
	return status == PostStatusPublished || status == PostStatusFailed
}
