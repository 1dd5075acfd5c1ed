package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/socialqueue/pipeline/internal/models"
	"github.com/socialqueue/pipeline/internal/repository"
	"github.com/socialqueue/pipeline/internal/transfer"
)

// ContentService turns a queued post's Notion page into publishable
// content: concatenated paragraph text becomes the caption, image and video
// blocks become ordered media URL lists.
type ContentService interface {
	ExtractContent(ctx context.Context, p transfer.ExtractContentPayload) error
}

type contentService struct {
	pr     repository.PostRepository
	ur     repository.UserRepository
	notion NotionService
	eq     Enqueuer
}

func NewContentService(pr repository.PostRepository, ur repository.UserRepository, notion NotionService, eq Enqueuer) ContentService {
	return &contentService{pr: pr, ur: ur, notion: notion, eq: eq}
}

// scheduleSkew is how far into the future a post's publish time may sit
// before the extract task re-enqueues itself instead of running now.
// Reconciliation can move a post's time after the delayed task was queued.
const scheduleSkew = time.Minute

func (s *contentService) ExtractContent(ctx context.Context, p transfer.ExtractContentPayload) error {
	post, err := s.pr.GetByID(ctx, p.PostID)
	if err != nil {
		return fmt.Errorf("error fetching post %d: %w", p.PostID, err)
	}
	if post == nil || post.Status != models.PostStatusQueued {
		// Deleted by reconciliation or already picked up; duplicate
		// deliveries land here too.
		return nil
	}

	if wait := time.Until(post.TimeToPost); wait > scheduleSkew {
		return s.eq.EnqueueExtractContent(ctx, p, post.TimeToPost)
	}

	user, err := s.ur.GetByID(ctx, post.UserID)
	if err != nil {
		return fmt.Errorf("error fetching user %d: %w", post.UserID, err)
	}
	if user == nil || !user.HasNotionIntegration() {
		slog.Info(fmt.Sprintf("post %d has no notion-connected user, skipping", post.ID))
		return nil
	}

	blocks, err := s.notion.PageBlocks(ctx, user.NotionAccessToken, post.NotionPageID)
	if err != nil {
		return fmt.Errorf("error fetching blocks for post %d: %w", post.ID, err)
	}

	caption, photoURLs, videoURLs := BuildPostingInfo(blocks)
	if len(photoURLs) == 0 && len(videoURLs) == 0 {
		// A page without media cannot be published. The page stays visibly
		// "Ready" for the author to fix; no retry will change the outcome.
		slog.Error(fmt.Sprintf("page %s for post %d has no media blocks", post.NotionPageID, post.ID))
		return nil
	}

	if err := s.pr.SetCaptionAndMedia(ctx, post.ID, caption, append(photoURLs, videoURLs...)); err != nil {
		return fmt.Errorf("error saving caption for post %d: %w", post.ID, err)
	}

	return s.eq.EnqueueStageMedia(ctx, transfer.StageMediaPayload{
		PostID:            post.ID,
		UserID:            post.UserID,
		NotionPageID:      post.NotionPageID,
		NotionAccessToken: user.NotionAccessToken,
		Caption:           caption,
		PhotoURLs:         photoURLs,
		VideoURLs:         videoURLs,
		AccountID:         post.AccountID,
		Platform:          post.Platform,
		AccessToken:       post.AccessToken,
	})
}

// BuildPostingInfo flattens page blocks into a caption and ordered photo and
// video URL lists. '#' is percent-encoded because the platform's caption
// parameter treats raw hashes as fragment terminators.
func BuildPostingInfo(blocks []*transfer.NotionBlock) (caption string, photoURLs, videoURLs []string) {
	var sb strings.Builder
	for _, block := range blocks {
		switch block.Type {
		case transfer.BlockTypeParagraph:
			for _, text := range block.RichText {
				sb.WriteString(text)
			}
		case transfer.BlockTypeImage:
			photoURLs = append(photoURLs, block.MediaURL)
		case transfer.BlockTypeVideo:
			videoURLs = append(videoURLs, block.MediaURL)
		}
	}
	caption = strings.ReplaceAll(sb.String(), "#", "%23")
	return caption, photoURLs, videoURLs
}
