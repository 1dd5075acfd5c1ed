package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/socialqueue/pipeline/internal/models"
	"github.com/socialqueue/pipeline/internal/repository"
	"github.com/socialqueue/pipeline/internal/transfer"
	"github.com/socialqueue/pipeline/pkg/ratelimit"
)

// ReconcileService diffs a user's "Ready" Notion pages against the posts
// already queued for them and converges the store: insert posts for new
// page+account pairings, refresh queued posts in place, delete posts whose
// page was un-readied or whose account was removed. Only inserts emit a
// downstream message; updates are metadata refreshes and need no
// reprocessing.
type ReconcileService interface {
	Reconcile(ctx context.Context, userID int64, timestamp time.Time) error
}

type reconcileService struct {
	ur      repository.UserRepository
	sar     repository.SocialAccountRepository
	pr      repository.PostRepository
	notion  NotionService
	limiter ratelimit.Limiter
	eq      Enqueuer
}

func NewReconcileService(
	ur repository.UserRepository,
	sar repository.SocialAccountRepository,
	pr repository.PostRepository,
	notion NotionService,
	limiter ratelimit.Limiter,
	eq Enqueuer) ReconcileService {
	return &reconcileService{
		ur:      ur,
		sar:     sar,
		pr:      pr,
		notion:  notion,
		limiter: limiter,
		eq:      eq,
	}
}

func (s *reconcileService) Reconcile(ctx context.Context, userID int64, timestamp time.Time) error {
	user, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error fetching user %d: %w", userID, err)
	}
	if user == nil || !user.HasNotionIntegration() {
		// Nothing to reconcile; not an error.
		return nil
	}

	accounts, err := s.sar.ListByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error fetching accounts for user %d: %w", userID, err)
	}

	accountMap := make(map[string]*models.SocialAccount, len(accounts))
	for _, acc := range accounts {
		accountMap[acc.LookupKey()] = acc
	}
	if len(accountMap) == 0 {
		return nil
	}

	if !s.limiter.Allow() {
		return transfer.ErrRateLimited
	}
	pages, err := s.notion.QueryReadyPages(ctx, user.NotionAccessToken, user.NotionDatabaseID, timestamp)
	if err != nil {
		return fmt.Errorf("error fetching ready pages for user %d: %w", userID, err)
	}

	queued, err := s.pr.ListQueuedByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error fetching queued posts for user %d: %w", userID, err)
	}

	queuedByPage := make(map[string][]*models.Post)
	for _, post := range queued {
		queuedByPage[post.NotionPageID] = append(queuedByPage[post.NotionPageID], post)
	}

	visited := make(map[string]bool, len(pages))
	for _, page := range pages {
		visited[page.ID] = true
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 10)

	var mu sync.Mutex
	var pageErrs []error

	for _, page := range pages {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(page *transfer.NotionPage) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := s.reconcilePage(ctx, userID, page, accountMap, queuedByPage[page.ID]); err != nil {
				slog.Error(fmt.Sprintf("error reconciling page %s for user %d: %v", page.ID, userID, err))
				mu.Lock()
				pageErrs = append(pageErrs, err)
				mu.Unlock()
			}
		}(page)
	}
	wg.Wait()

	// Pages no longer in the ready set: the page was un-readied, its date
	// moved out of window, or it was deleted. Drop their queued posts.
	for pageID, posts := range queuedByPage {
		if visited[pageID] {
			continue
		}
		for _, post := range posts {
			if err := s.pr.Remove(ctx, post.ID); err != nil {
				slog.Error(fmt.Sprintf("error deleting post %d for vanished page %s: %v", post.ID, pageID, err))
			}
		}
	}

	// Sibling page failures were isolated and logged; the run itself
	// succeeded.
	if len(pageErrs) > 0 {
		slog.Info(fmt.Sprintf("reconciliation for user %d completed with %d page errors", userID, len(pageErrs)))
	}
	return nil
}

func (s *reconcileService) reconcilePage(
	ctx context.Context,
	userID int64,
	page *transfer.NotionPage,
	accountMap map[string]*models.SocialAccount,
	queuedPosts []*models.Post,
) error {
	resolved := make(map[string]*models.SocialAccount)
	for _, name := range page.AccountNames {
		acc, ok := accountMap[name]
		if !ok {
			// The page names an account the author never connected.
			continue
		}
		resolved[acc.AccountID] = acc
	}

	queuedByAccount := make(map[string]*models.Post, len(queuedPosts))
	for _, post := range queuedPosts {
		queuedByAccount[post.AccountID] = post
	}

	// The page's multi-select is authoritative: posts for accounts the page
	// no longer lists are deleted.
	for accountID, post := range queuedByAccount {
		if _, ok := resolved[accountID]; ok {
			continue
		}
		if err := s.pr.Remove(ctx, post.ID); err != nil {
			return fmt.Errorf("error deleting post %d: %w", post.ID, err)
		}
	}

	for _, acc := range resolved {
		if existing, ok := queuedByAccount[acc.AccountID]; ok {
			if err := s.pr.UpdateSchedule(ctx, existing.ID, page.PublicationDate, acc.AccessToken); err != nil {
				return fmt.Errorf("error updating post %d: %w", existing.ID, err)
			}
			continue
		}

		post := &models.Post{
			UserID:       userID,
			NotionPageID: page.ID,
			AccountID:    acc.AccountID,
			Platform:     acc.Platform,
			AccessToken:  acc.AccessToken,
			TimeToPost:   page.PublicationDate,
		}
		postID, err := s.pr.Create(ctx, post)
		if err != nil {
			return fmt.Errorf("error inserting post for page %s account %s: %w", page.ID, acc.AccountID, err)
		}

		payload := transfer.ExtractContentPayload{PostID: postID, UserID: userID}
		if err := s.eq.EnqueueExtractContent(ctx, payload, page.PublicationDate); err != nil {
			return fmt.Errorf("error enqueueing extract for post %d: %w", postID, err)
		}
	}

	return nil
}
