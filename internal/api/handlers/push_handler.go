package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/socialqueue/pipeline/internal/service"
	"github.com/socialqueue/pipeline/internal/transfer"
)

// PushHandler exposes each pipeline stage as a push-delivery endpoint.
// A 204 acknowledges the message, malformed bodies included, since
// redelivering a poison message never helps. Transient failures come
// back as 500 so the broker redelivers with backoff.
type PushHandler struct {
	rec service.ReconcileService
	cs  service.ContentService
	ms  service.MediaService
	ps  service.PublishService
	po  service.PollService
}

func NewPushHandler(rec service.ReconcileService, cs service.ContentService, ms service.MediaService, ps service.PublishService, po service.PollService) *PushHandler {
	return &PushHandler{rec: rec, cs: cs, ms: ms, ps: ps, po: po}
}

func stageMatches(c *fiber.Ctx, stage string) bool {
	got, _ := c.Locals("push_stage").(string)
	return got == stage
}

func (h *PushHandler) dispatch(c *fiber.Ctx, err error) error {
	if err != nil {
		if errors.Is(err, transfer.ErrRateLimited) {
			return c.SendStatus(fiber.StatusTooManyRequests)
		}
		slog.Error(err.Error())
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PushHandler) ReconcileUser(c *fiber.Ctx) error {
	if !stageMatches(c, transfer.StageReconcile) {
		return c.SendStatus(fiber.StatusForbidden)
	}

	var payload transfer.ReconcileUserPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil || payload.UserID == 0 {
		slog.Error("malformed reconcile delivery")
		return c.SendStatus(fiber.StatusNoContent)
	}

	return h.dispatch(c, h.rec.Reconcile(c.Context(), payload.UserID, payload.Timestamp))
}

func (h *PushHandler) ExtractContent(c *fiber.Ctx) error {
	if !stageMatches(c, transfer.StageExtract) {
		return c.SendStatus(fiber.StatusForbidden)
	}

	var payload transfer.ExtractContentPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil || payload.PostID == 0 {
		slog.Error("malformed extract delivery")
		return c.SendStatus(fiber.StatusNoContent)
	}

	return h.dispatch(c, h.cs.ExtractContent(c.Context(), payload))
}

func (h *PushHandler) StageMedia(c *fiber.Ctx) error {
	if !stageMatches(c, transfer.StageStage) {
		return c.SendStatus(fiber.StatusForbidden)
	}

	var payload transfer.StageMediaPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil || payload.PostID == 0 {
		slog.Error("malformed stage-media delivery")
		return c.SendStatus(fiber.StatusNoContent)
	}

	return h.dispatch(c, h.ms.StageMedia(c.Context(), payload))
}

func (h *PushHandler) PublishPost(c *fiber.Ctx) error {
	if !stageMatches(c, transfer.StagePublish) {
		return c.SendStatus(fiber.StatusForbidden)
	}

	var payload transfer.PublishPostPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil || payload.PostID == 0 || payload.AccountID == "" {
		slog.Error("malformed publish delivery")
		return c.SendStatus(fiber.StatusNoContent)
	}

	return h.dispatch(c, h.ps.PublishPost(c.Context(), payload))
}

func (h *PushHandler) PollContainer(c *fiber.Ctx) error {
	if !stageMatches(c, transfer.StagePoll) {
		return c.SendStatus(fiber.StatusForbidden)
	}

	var payload transfer.PollContainerPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil || payload.PostID == 0 || payload.ContainerID == "" {
		slog.Error("malformed poll delivery")
		return c.SendStatus(fiber.StatusNoContent)
	}

	return h.dispatch(c, h.po.PollContainer(c.Context(), payload))
}
