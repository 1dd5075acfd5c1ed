package models

import "time"

type User struct {
	ID                int64     `db:"id" json:"id"`
	Email             string    `db:"email" json:"email"`
	NotionAccessToken string    `db:"notion_access_token" json:"notion_access_token"`
	NotionDatabaseID  string    `db:"notion_database_id" json:"notion_database_id"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// HasNotionIntegration reports whether the user can be reconciled at all.
// A user without a workspace credential or a content index is not an error,
// there is simply nothing to do.
func (u *User) HasNotionIntegration() bool {
	return u.NotionAccessToken != "" && u.NotionDatabaseID != ""
}
