package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/socialqueue/pipeline/internal/repository"
	"github.com/socialqueue/pipeline/internal/transfer"
)

// EnumeratorService fans the enumeration tick out into one reconcile task
// per registered user. The timestamp is backdated five minutes so a page
// whose publication time just passed is still picked up by the next run.
type EnumeratorService interface {
	EnumerateUsers(ctx context.Context) error
}

type enumeratorService struct {
	ur repository.UserRepository
	eq Enqueuer
}

func NewEnumeratorService(ur repository.UserRepository, eq Enqueuer) EnumeratorService {
	return &enumeratorService{ur: ur, eq: eq}
}

const enumerationLookback = 5 * time.Minute

func (s *enumeratorService) EnumerateUsers(ctx context.Context) error {
	ids, err := s.ur.ListIDs(ctx)
	if err != nil {
		// Abort the whole tick; nothing was enqueued and the next tick
		// retries from scratch.
		return fmt.Errorf("error listing users: %w", err)
	}

	timestamp := time.Now().Add(-enumerationLookback)
	for _, id := range ids {
		payload := transfer.ReconcileUserPayload{UserID: id, Timestamp: timestamp}
		if err := s.eq.EnqueueReconcileUser(ctx, payload); err != nil {
			return fmt.Errorf("error enqueueing reconcile for user %d: %w", id, err)
		}
	}

	slog.Info(fmt.Sprintf("enumerated %d users", len(ids)))
	return nil
}
