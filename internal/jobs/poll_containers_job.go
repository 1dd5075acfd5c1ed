package job

import (
	"context"
	"log/slog"

	"github.com/socialqueue/pipeline/internal/repository"
	"github.com/socialqueue/pipeline/internal/service"
	"github.com/socialqueue/pipeline/internal/transfer"
)

// PollContainersJob sweeps posts stuck in PROCESSING with a container
// attached and re-enqueues a status poll for each. Publications deferred
// by the daily account limit ride this sweep until the limiter admits them.
type PollContainersJob struct {
	pr repository.PostRepository
	ur repository.UserRepository
	eq service.Enqueuer
}

func NewPollContainersJob(pr repository.PostRepository, ur repository.UserRepository, eq service.Enqueuer) *PollContainersJob {
	return &PollContainersJob{pr: pr, ur: ur, eq: eq}
}

func (j *PollContainersJob) Run() {
	ctx := context.Background()

	posts, err := j.pr.ListProcessingWithContainer(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range posts {
		user, err := j.ur.GetByID(ctx, post.UserID)
		if err != nil {
			slog.Info(err.Error())
			continue
		}
		if user == nil {
			continue
		}

		payload := transfer.PollContainerPayload{
			PostID:            post.ID,
			UserID:            post.UserID,
			ContainerID:       post.ContainerID.String,
			AccountID:         post.AccountID,
			AccessToken:       post.AccessToken,
			NotionPageID:      post.NotionPageID,
			NotionAccessToken: user.NotionAccessToken,
		}
		if err := j.eq.EnqueuePollContainer(ctx, payload, 0); err != nil {
			slog.Info(err.Error())
		}
	}
}
