package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/socialqueue/pipeline/internal/transfer"
)

// Handler policy: a malformed payload is consumed (returning it to the
// queue would just storm the same poison message), a returned error is a
// transient failure asynq should redeliver with backoff. Tasks that exhaust
// their retries land in asynq's archive, which is the dead-letter path.

func (w *Worker) HandleReconcileUserTask(ctx context.Context, task *asynq.Task) error {
	var payload transfer.ReconcileUserPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error(fmt.Sprintf("malformed reconcile payload: %v", err))
		return nil
	}
	if payload.UserID == 0 {
		slog.Error("reconcile payload has no user id")
		return nil
	}

	return w.rec.Reconcile(ctx, payload.UserID, payload.Timestamp)
}

func (w *Worker) HandleExtractContentTask(ctx context.Context, task *asynq.Task) error {
	var payload transfer.ExtractContentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error(fmt.Sprintf("malformed extract payload: %v", err))
		return nil
	}
	if payload.PostID == 0 {
		slog.Error("extract payload has no post id")
		return nil
	}

	return w.cs.ExtractContent(ctx, payload)
}

func (w *Worker) HandleStageMediaTask(ctx context.Context, task *asynq.Task) error {
	var payload transfer.StageMediaPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error(fmt.Sprintf("malformed stage-media payload: %v", err))
		return nil
	}
	if payload.PostID == 0 || (len(payload.PhotoURLs) == 0 && len(payload.VideoURLs) == 0) {
		slog.Error("stage-media payload missing post id or media")
		return nil
	}

	return w.ms.StageMedia(ctx, payload)
}

func (w *Worker) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload transfer.PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error(fmt.Sprintf("malformed publish payload: %v", err))
		return nil
	}
	if payload.PostID == 0 || payload.AccountID == "" {
		slog.Error("publish payload missing post or account id")
		return nil
	}

	return w.ps.PublishPost(ctx, payload)
}

func (w *Worker) HandlePollContainerTask(ctx context.Context, task *asynq.Task) error {
	var payload transfer.PollContainerPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error(fmt.Sprintf("malformed poll payload: %v", err))
		return nil
	}
	if payload.PostID == 0 || payload.ContainerID == "" {
		slog.Error("poll payload missing post or container id")
		return nil
	}

	return w.po.PollContainer(ctx, payload)
}

// Mux wires every stage handler onto an asynq mux.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeReconcileUser, w.HandleReconcileUserTask)
	mux.HandleFunc(TaskTypeExtractContent, w.HandleExtractContentTask)
	mux.HandleFunc(TaskTypeStageMedia, w.HandleStageMediaTask)
	mux.HandleFunc(TaskTypePublishPost, w.HandlePublishPostTask)
	mux.HandleFunc(TaskTypePollContainer, w.HandlePollContainerTask)
	return mux
}
