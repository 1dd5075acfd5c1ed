package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/socialqueue/pipeline/internal/models"
	"github.com/socialqueue/pipeline/internal/repository"
	"github.com/socialqueue/pipeline/internal/transfer"
	"github.com/socialqueue/pipeline/pkg/utils"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YoutubeService publishes a post's staged video to YouTube. Unlike
// Instagram there is no container protocol: the upload call is synchronous
// from the pipeline's point of view, so the post settles immediately.
type YoutubeService interface {
	PublishVideo(ctx context.Context, p transfer.PublishPostPayload) error
}

type youtubeService struct {
	pr        repository.PostRepository
	notion    NotionService
	storage   MediaStorage
	client    *http.Client
	secretKey string
}

func NewYoutubeService(pr repository.PostRepository, notion NotionService, storage MediaStorage, secretKey string) YoutubeService {
	return &youtubeService{
		pr:        pr,
		notion:    notion,
		storage:   storage,
		client:    &http.Client{Timeout: 10 * time.Minute},
		secretKey: secretKey,
	}
}

func (s *youtubeService) PublishVideo(ctx context.Context, p transfer.PublishPostPayload) error {
	if len(p.VideoURLs) != 1 || len(p.PhotoURLs) != 0 {
		// YouTube takes exactly one video; anything else is a content
		// problem the author has to fix.
		slog.Error(fmt.Sprintf("post %d has unpublishable media shape for youtube: %d photos, %d videos", p.PostID, len(p.PhotoURLs), len(p.VideoURLs)))
		if err := s.pr.UpdateStatus(ctx, p.PostID, models.PostStatusFailed); err != nil {
			slog.Error(fmt.Sprintf("error marking post %d failed: %v", p.PostID, err))
		}
		return nil
	}

	accessToken, err := utils.Decrypt(p.AccessToken, []byte(s.secretKey))
	if err != nil {
		return fmt.Errorf("error decrypting token for post %d: %w", p.PostID, err)
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := youtube.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return fmt.Errorf("error creating youtube client: %w", err)
	}

	resp, err := s.client.Get(p.VideoURLs[0])
	if err != nil {
		return fmt.Errorf("error downloading staged video for post %d: %w", p.PostID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d downloading staged video for post %d", resp.StatusCode, p.PostID)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       p.Caption,
			Description: p.Caption,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "public"},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	uploaded, err := call.Media(resp.Body).Do()
	if err != nil {
		slog.Error(fmt.Sprintf("error uploading video for post %d: %v", p.PostID, err))
		if err := s.pr.UpdateStatus(ctx, p.PostID, models.PostStatusFailed); err != nil {
			slog.Error(fmt.Sprintf("error marking post %d failed: %v", p.PostID, err))
		}
		return nil
	}
	slog.Info(fmt.Sprintf("uploaded video for post %d: https://youtu.be/%s", p.PostID, uploaded.Id))

	// The upload is irreversible; everything after is best effort.
	if err := s.notion.UpdatePageStatus(ctx, p.NotionAccessToken, p.NotionPageID, transfer.NotionStatusPublished); err != nil {
		slog.Error(fmt.Sprintf("error updating notion page %s: %v", p.NotionPageID, err))
	}
	if err := s.storage.DeletePrefix(ctx, StoragePrefix(p.UserID, p.NotionPageID)); err != nil {
		slog.Error(fmt.Sprintf("error deleting staged media for post %d: %v", p.PostID, err))
	}
	if err := s.pr.UpdateStatus(ctx, p.PostID, models.PostStatusPublished); err != nil {
		slog.Error(fmt.Sprintf("error marking post %d published: %v", p.PostID, err))
	}
	return nil
}
