package transfer

import "time"

// NotionPage is one "Ready" content item from a user's content index. Only
// the properties the pipeline reads are modeled.
type NotionPage struct {
	ID              string
	PublicationDate time.Time
	// AccountNames is the page's "Social media account" multi-select, by
	// display name. Names that resolve to no connected account are skipped.
	AccountNames []string
}

// NotionBlock is one content block of a page. Exactly one of the payload
// fields is set depending on Type.
type NotionBlock struct {
	Type     string
	RichText []string // paragraph plain_text runs, in order
	MediaURL string   // image or video file URL
}

const (
	BlockTypeParagraph = "paragraph"
	BlockTypeImage     = "image"
	BlockTypeVideo     = "video"
)

// Notion page status values used by the pipeline.
const (
	NotionStatusReady     = "Ready"
	NotionStatusPublished = "Published"
)
