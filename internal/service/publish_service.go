package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/socialqueue/pipeline/internal/models"
	"github.com/socialqueue/pipeline/internal/repository"
	"github.com/socialqueue/pipeline/internal/transfer"
	"github.com/socialqueue/pipeline/pkg/utils"
)

// PublishService submits staged media to the target platform. For Instagram
// it creates the upload container matching the media shape and hands the
// post to the container poller; for YouTube it uploads the video directly.
type PublishService interface {
	PublishPost(ctx context.Context, p transfer.PublishPostPayload) error
}

type publishService struct {
	pr        repository.PostRepository
	ig        InstagramService
	yt        YoutubeService
	storage   MediaStorage
	eq        Enqueuer
	secretKey string
}

func NewPublishService(
	pr repository.PostRepository,
	ig InstagramService,
	yt YoutubeService,
	storage MediaStorage,
	eq Enqueuer,
	secretKey string) PublishService {
	return &publishService{
		pr:        pr,
		ig:        ig,
		yt:        yt,
		storage:   storage,
		eq:        eq,
		secretKey: secretKey,
	}
}

// carouselLimit is the platform's hard cap on carousel children.
const carouselLimit = 10

func (s *publishService) PublishPost(ctx context.Context, p transfer.PublishPostPayload) error {
	post, err := s.pr.GetByID(ctx, p.PostID)
	if err != nil {
		return fmt.Errorf("error fetching post %d: %w", p.PostID, err)
	}
	if post == nil || models.IsTerminal(post.Status) {
		return nil
	}
	if post.ContainerID.Valid {
		// A previous delivery already created the container; polling will
		// finish the job.
		return nil
	}

	if post.Status == models.PostStatusQueued {
		if err := s.pr.UpdateStatus(ctx, post.ID, models.PostStatusProcessing); err != nil {
			return fmt.Errorf("error moving post %d to processing: %w", post.ID, err)
		}
	}

	if p.Platform == models.PlatformYoutube {
		return s.yt.PublishVideo(ctx, p)
	}

	accessToken, err := utils.Decrypt(p.AccessToken, []byte(s.secretKey))
	if err != nil {
		return fmt.Errorf("error decrypting token for post %d: %w", p.PostID, err)
	}

	containerID, err := s.createContainer(ctx, p, accessToken)
	if err != nil {
		// The platform rejected the content itself; retrying will not help.
		slog.Error(fmt.Sprintf("container creation failed for post %d: %v", p.PostID, err))
		s.failPost(ctx, p)
		return nil
	}

	if err := s.pr.SetContainerID(ctx, p.PostID, containerID); err != nil {
		return fmt.Errorf("error persisting container id for post %d: %w", p.PostID, err)
	}

	return s.eq.EnqueuePollContainer(ctx, transfer.PollContainerPayload{
		PostID:            p.PostID,
		UserID:            p.UserID,
		ContainerID:       containerID,
		AccountID:         p.AccountID,
		AccessToken:       p.AccessToken,
		NotionPageID:      p.NotionPageID,
		NotionAccessToken: p.NotionAccessToken,
		RetryCount:        0,
	}, 0)
}

// createContainer dispatches on the staged media shape: single photo, single
// video (reel), or a 2–10 item carousel. Anything else is unpublishable.
func (s *publishService) createContainer(ctx context.Context, p transfer.PublishPostPayload, accessToken string) (string, error) {
	nPhotos, nVideos := len(p.PhotoURLs), len(p.VideoURLs)
	total := nPhotos + nVideos

	switch {
	case nPhotos == 1 && nVideos == 0:
		return s.ig.CreatePhotoContainer(ctx, p.AccountID, p.PhotoURLs[0], p.Caption, accessToken)
	case nPhotos == 0 && nVideos == 1:
		return s.ig.CreateReelContainer(ctx, p.AccountID, p.VideoURLs[0], p.Caption, accessToken)
	case total >= 2 && total <= carouselLimit:
		return s.createCarousel(ctx, p, accessToken)
	case total > carouselLimit:
		return "", fmt.Errorf("too much content for carousel: %d items, max is %d", total, carouselLimit)
	default:
		return "", fmt.Errorf("no media to post")
	}
}

// createCarousel creates one child container per media item concurrently,
// then a parent container referencing the children in original block order:
// photos first, then videos, each list in document order.
func (s *publishService) createCarousel(ctx context.Context, p transfer.PublishPostPayload, accessToken string) (string, error) {
	type item struct {
		url     string
		isVideo bool
	}
	items := make([]item, 0, len(p.PhotoURLs)+len(p.VideoURLs))
	for _, url := range p.PhotoURLs {
		items = append(items, item{url: url})
	}
	for _, url := range p.VideoURLs {
		items = append(items, item{url: url, isVideo: true})
	}

	children := make([]string, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for i, it := range items {
		wg.Add(1)
		go func(i int, it item) {
			defer wg.Done()
			id, err := s.ig.CreateCarouselItemContainer(ctx, p.AccountID, it.url, it.isVideo, accessToken)
			if err != nil {
				errs[i] = err
				return
			}
			children[i] = id
		}(i, it)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return "", err
		}
	}

	return s.ig.CreateCarouselContainer(ctx, p.AccountID, p.Caption, children, accessToken)
}

// failPost cleans up staged media and marks the post FAILED. Best effort:
// the post must end FAILED even if storage cleanup hiccups.
func (s *publishService) failPost(ctx context.Context, p transfer.PublishPostPayload) {
	if err := s.storage.DeletePrefix(ctx, StoragePrefix(p.UserID, p.NotionPageID)); err != nil {
		slog.Error(fmt.Sprintf("error deleting staged media for post %d: %v", p.PostID, err))
	}
	if err := s.pr.UpdateStatus(ctx, p.PostID, models.PostStatusFailed); err != nil {
		slog.Error(fmt.Sprintf("error marking post %d failed: %v", p.PostID, err))
	}
}
