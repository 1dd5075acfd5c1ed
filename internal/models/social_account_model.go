package models

import (
	"fmt"
	"time"
)

// SocialAccount is a connected platform identity. The pipeline never writes
// these rows; they are created by the OAuth flow and read here purely as a
// lookup from a page's declared account names to real credentials.
type SocialAccount struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Platform    string    `db:"platform" json:"platform"`
	AccountID   string    `db:"account_id" json:"account_id"`
	Username    string    `db:"username" json:"username"`
	AccessToken string    `db:"access_token" json:"access_token"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

const (
	PlatformInstagram = "instagram"
	PlatformYoutube   = "youtube"
)

// LookupKey is how Notion pages reference accounts: by display name plus
// platform, e.g. "somecreator-instagram".
func (sa *SocialAccount) LookupKey() string {
	return fmt.Sprintf("%s-%s", sa.Username, sa.Platform)
}
