package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/socialqueue/pipeline/internal/repository"
	"github.com/socialqueue/pipeline/internal/transfer"
)

// MediaService stages a post's media: download each origin URL, re-upload
// it to durable storage under the owning user and page, and mint short-lived
// signed URLs the platform can fetch from. A partial media set is not
// publishable, so any single failure fails the whole stage.
type MediaService interface {
	StageMedia(ctx context.Context, p transfer.StageMediaPayload) error
}

type mediaService struct {
	pr        repository.PostRepository
	storage   MediaStorage
	eq        Enqueuer
	client    *http.Client
	signedTTL time.Duration
}

func NewMediaService(pr repository.PostRepository, storage MediaStorage, eq Enqueuer, signedTTL time.Duration) MediaService {
	return &mediaService{
		pr:        pr,
		storage:   storage,
		eq:        eq,
		client:    &http.Client{Timeout: 5 * time.Minute},
		signedTTL: signedTTL,
	}
}

// StoragePrefix is the key prefix all of one post's staged media shares.
func StoragePrefix(userID int64, pageID string) string {
	return fmt.Sprintf("%d/%s", userID, pageID)
}

func (s *mediaService) StageMedia(ctx context.Context, p transfer.StageMediaPayload) error {
	stagedPhotos, err := s.stageAll(ctx, p.UserID, p.NotionPageID, p.PhotoURLs)
	if err != nil {
		return fmt.Errorf("error staging photos for post %d: %w", p.PostID, err)
	}

	stagedVideos, err := s.stageAll(ctx, p.UserID, p.NotionPageID, p.VideoURLs)
	if err != nil {
		return fmt.Errorf("error staging videos for post %d: %w", p.PostID, err)
	}

	if err := s.pr.SetCaptionAndMedia(ctx, p.PostID, p.Caption, append(stagedPhotos, stagedVideos...)); err != nil {
		return fmt.Errorf("error saving staged media for post %d: %w", p.PostID, err)
	}

	return s.eq.EnqueuePublishPost(ctx, transfer.PublishPostPayload{
		PostID:            p.PostID,
		UserID:            p.UserID,
		NotionPageID:      p.NotionPageID,
		NotionAccessToken: p.NotionAccessToken,
		Caption:           p.Caption,
		PhotoURLs:         stagedPhotos,
		VideoURLs:         stagedVideos,
		AccountID:         p.AccountID,
		Platform:          p.Platform,
		AccessToken:       p.AccessToken,
	})
}

// stageAll downloads and re-uploads every URL concurrently, returning signed
// URLs in the original order.
func (s *mediaService) stageAll(ctx context.Context, userID int64, pageID string, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	staged := make([]string, len(urls))
	errs := make([]error, len(urls))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 10)

	for i, url := range urls {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, url string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			signedURL, err := s.stageOne(ctx, userID, pageID, url)
			if err != nil {
				errs[i] = err
				return
			}
			staged[i] = signedURL
		}(i, url)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return staged, nil
}

func (s *mediaService) stageOne(ctx context.Context, userID int64, pageID, mediaURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading media %s: %w", mediaURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d downloading media %s", resp.StatusCode, mediaURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading media body: %w", err)
	}

	contentType := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s", StoragePrefix(userID, pageID), id)

	if err := s.storage.Upload(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("error uploading media to storage: %w", err)
	}

	signedURL, err := s.storage.SignedURL(ctx, key, s.signedTTL)
	if err != nil {
		return "", fmt.Errorf("error signing url for %s: %w", key, err)
	}

	slog.Info(fmt.Sprintf("staged media %s as %s", mediaURL, key))
	return signedURL, nil
}
