package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/socialqueue/pipeline/internal/transfer"
)

// Enqueuer publishes stage-transition tasks onto asynq. It satisfies
// service.Enqueuer.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueReconcileUser(ctx context.Context, p transfer.ReconcileUserPayload) error {
	return e.enqueue(ctx, TaskTypeReconcileUser, p)
}

// EnqueueExtractContent schedules extraction for the post's publish time.
// A past or zero time means deliver immediately.
func (e *Enqueuer) EnqueueExtractContent(ctx context.Context, p transfer.ExtractContentPayload, at time.Time) error {
	var opts []asynq.Option
	if at.After(time.Now()) {
		opts = append(opts, asynq.ProcessAt(at))
	}
	return e.enqueue(ctx, TaskTypeExtractContent, p, opts...)
}

func (e *Enqueuer) EnqueueStageMedia(ctx context.Context, p transfer.StageMediaPayload) error {
	return e.enqueue(ctx, TaskTypeStageMedia, p)
}

func (e *Enqueuer) EnqueuePublishPost(ctx context.Context, p transfer.PublishPostPayload) error {
	return e.enqueue(ctx, TaskTypePublishPost, p)
}

func (e *Enqueuer) EnqueuePollContainer(ctx context.Context, p transfer.PollContainerPayload, delay time.Duration) error {
	var opts []asynq.Option
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}
	return e.enqueue(ctx, TaskTypePollContainer, p, opts...)
}

func (e *Enqueuer) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskType, taskPayload)
	info, err := e.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return err
	}

	slog.Info("task enqueued", "type", taskType, "id", info.ID)
	return nil
}
