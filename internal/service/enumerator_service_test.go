package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEnumerateUsers_FansOut(t *testing.T) {
	ur := &mockUserRepository{
		listIDsFunc: func(ctx context.Context) ([]int64, error) {
			return []int64{1, 2, 3}, nil
		},
	}
	eq := &mockEnqueuer{}

	s := NewEnumeratorService(ur, eq)
	if err := s.EnumerateUsers(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(eq.reconciles) != 3 {
		t.Fatalf("expected a reconcile task per user, got %d", len(eq.reconciles))
	}
	for i, p := range eq.reconciles {
		if p.UserID != int64(i+1) {
			t.Errorf("task %d: expected user %d, got %d", i, i+1, p.UserID)
		}
		if !p.Timestamp.Before(time.Now().Add(-4 * time.Minute)) {
			t.Errorf("expected the timestamp backdated by the lookback, got %v", p.Timestamp)
		}
	}
}

func TestEnumerateUsers_ListFailureAbortsTick(t *testing.T) {
	ur := &mockUserRepository{
		listIDsFunc: func(ctx context.Context) ([]int64, error) {
			return nil, errors.New("db down")
		},
	}
	eq := &mockEnqueuer{}

	s := NewEnumeratorService(ur, eq)
	if err := s.EnumerateUsers(context.Background()); err == nil {
		t.Fatal("expected the tick to fail")
	}
	if len(eq.reconciles) != 0 {
		t.Error("expected nothing enqueued on failure")
	}
}
