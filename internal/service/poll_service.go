package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/socialqueue/pipeline/internal/models"
	"github.com/socialqueue/pipeline/internal/repository"
	"github.com/socialqueue/pipeline/internal/transfer"
	"github.com/socialqueue/pipeline/pkg/ratelimit"
	"github.com/socialqueue/pipeline/pkg/utils"
)

// PollService drives a post's container through the platform's asynchronous
// processing: poll status on a fixed delay until FINISHED, publish, then
// settle the post. ERROR and EXPIRED containers are dead; an IN_PROGRESS
// container that outlives the retry budget is treated the same way.
type PollService interface {
	PollContainer(ctx context.Context, p transfer.PollContainerPayload) error
}

type pollService struct {
	pr             repository.PostRepository
	ig             InstagramService
	notion         NotionService
	storage        MediaStorage
	publishLimiter ratelimit.KeyedLimiter
	secretKey      string
	maxRetries     int
	pollDelay      time.Duration
	sleep          func(time.Duration)
}

func NewPollService(
	pr repository.PostRepository,
	ig InstagramService,
	notion NotionService,
	storage MediaStorage,
	publishLimiter ratelimit.KeyedLimiter,
	secretKey string) PollService {
	return &pollService{
		pr:             pr,
		ig:             ig,
		notion:         notion,
		storage:        storage,
		publishLimiter: publishLimiter,
		secretKey:      secretKey,
		maxRetries:     10,
		pollDelay:      10 * time.Second,
		sleep:          time.Sleep,
	}
}

func (s *pollService) PollContainer(ctx context.Context, p transfer.PollContainerPayload) error {
	post, err := s.pr.GetByID(ctx, p.PostID)
	if err != nil {
		return fmt.Errorf("error fetching post %d: %w", p.PostID, err)
	}
	if post == nil || post.Status != models.PostStatusProcessing {
		// Already settled; at-least-once delivery re-delivers poll messages
		// after success and this is the idempotent short-circuit.
		return nil
	}

	accessToken, err := utils.Decrypt(p.AccessToken, []byte(s.secretKey))
	if err != nil {
		return fmt.Errorf("error decrypting token for post %d: %w", p.PostID, err)
	}

	for retry := p.RetryCount; ; retry++ {
		status, err := s.ig.ContainerStatus(ctx, p.ContainerID, accessToken)
		if err != nil {
			return fmt.Errorf("error fetching status of container %s: %w", p.ContainerID, err)
		}

		switch status {
		case transfer.ContainerInProgress:
			if retry >= s.maxRetries {
				slog.Error(fmt.Sprintf("container %s for post %d could not finish processing in time", p.ContainerID, p.PostID))
				if err := s.pr.UpdateStatus(ctx, p.PostID, models.PostStatusFailed); err != nil {
					slog.Error(fmt.Sprintf("error marking post %d failed: %v", p.PostID, err))
				}
				return nil
			}
			s.sleep(s.pollDelay)

		case transfer.ContainerError, transfer.ContainerExpired:
			// The container itself is dead; no retry will revive it.
			s.deleteStagedMedia(ctx, p)
			if err := s.pr.UpdateStatus(ctx, p.PostID, models.PostStatusFailed); err != nil {
				slog.Error(fmt.Sprintf("error marking post %d failed: %v", p.PostID, err))
			}
			return nil

		case transfer.ContainerPublished:
			// The platform finished a publish we never recorded, likely a
			// crash between media_publish and the status write. Converge
			// without re-publishing.
			s.deleteStagedMedia(ctx, p)
			if err := s.pr.UpdateStatus(ctx, p.PostID, models.PostStatusPublished); err != nil {
				slog.Error(fmt.Sprintf("error marking post %d published: %v", p.PostID, err))
			}
			return nil

		case transfer.ContainerFinished:
			return s.publish(ctx, p, accessToken)

		default:
			return fmt.Errorf("unknown status %q for container %s", status, p.ContainerID)
		}
	}
}

// publish performs the irreversible platform publish, then the best-effort
// tail: page status, staged-media cleanup, post status. Once media_publish
// has succeeded the downstream steps log and continue on failure; aborting
// could not undo the platform-side action.
func (s *pollService) publish(ctx context.Context, p transfer.PollContainerPayload, accessToken string) error {
	if !s.publishLimiter.Allow(p.AccountID) {
		// Daily publish budget spent. No state change; the container sweep
		// re-enqueues this poll on its next cycle.
		slog.Info(fmt.Sprintf("publish deferred for post %d, account %s is over its daily quota", p.PostID, p.AccountID))
		return nil
	}

	if err := s.ig.PublishContainer(ctx, p.AccountID, p.ContainerID, accessToken); err != nil {
		// Keep staged media and the PROCESSING state for recovery; the
		// sweep will retry the whole poll.
		slog.Error(fmt.Sprintf("error publishing container %s for post %d: %v", p.ContainerID, p.PostID, err))
		return nil
	}

	if err := s.notion.UpdatePageStatus(ctx, p.NotionAccessToken, p.NotionPageID, transfer.NotionStatusPublished); err != nil {
		slog.Error(fmt.Sprintf("error updating notion page %s: %v", p.NotionPageID, err))
	}

	s.deleteStagedMedia(ctx, p)

	if err := s.pr.UpdateStatus(ctx, p.PostID, models.PostStatusPublished); err != nil {
		slog.Error(fmt.Sprintf("error marking post %d published: %v", p.PostID, err))
	}
	return nil
}

func (s *pollService) deleteStagedMedia(ctx context.Context, p transfer.PollContainerPayload) {
	if err := s.storage.DeletePrefix(ctx, StoragePrefix(p.UserID, p.NotionPageID)); err != nil {
		slog.Error(fmt.Sprintf("error deleting staged media for post %d: %v", p.PostID, err))
	}
}
