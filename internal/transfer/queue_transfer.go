package transfer

import "time"

// Queue payloads, one per stage transition. Each carries the denormalized
// context the next stage needs so it can run without re-querying everything.

type ReconcileUserPayload struct {
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

type ExtractContentPayload struct {
	PostID int64 `json:"post_id"`
	UserID int64 `json:"user_id"`
}

type StageMediaPayload struct {
	PostID            int64    `json:"post_id"`
	UserID            int64    `json:"user_id"`
	NotionPageID      string   `json:"notion_page_id"`
	NotionAccessToken string   `json:"notion_access_token"`
	Caption           string   `json:"caption"`
	PhotoURLs         []string `json:"photo_urls"`
	VideoURLs         []string `json:"video_urls"`
	AccountID         string   `json:"account_id"`
	Platform          string   `json:"platform"`
	AccessToken       string   `json:"access_token"`
}

type PublishPostPayload struct {
	PostID            int64    `json:"post_id"`
	UserID            int64    `json:"user_id"`
	NotionPageID      string   `json:"notion_page_id"`
	NotionAccessToken string   `json:"notion_access_token"`
	Caption           string   `json:"caption"`
	PhotoURLs         []string `json:"photo_urls"` // staged, signed
	VideoURLs         []string `json:"video_urls"` // staged, signed
	AccountID         string   `json:"account_id"`
	Platform          string   `json:"platform"`
	AccessToken       string   `json:"access_token"`
}

type PollContainerPayload struct {
	PostID            int64  `json:"post_id"`
	UserID            int64  `json:"user_id"`
	ContainerID       string `json:"container_id"`
	AccountID         string `json:"account_id"`
	AccessToken       string `json:"access_token"`
	NotionPageID      string `json:"notion_page_id"`
	NotionAccessToken string `json:"notion_access_token"`
	RetryCount        int    `json:"retry_count"`
}
