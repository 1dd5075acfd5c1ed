package queue

import (
	"github.com/socialqueue/pipeline/internal/service"
)

// Task types, one per stage transition. Delivery is at-least-once; every
// handler must tolerate re-delivery of a message it already acted on.
const (
	TaskTypeReconcileUser  = "user:reconcile"
	TaskTypeExtractContent = "content:extract"
	TaskTypeStageMedia     = "media:stage"
	TaskTypePublishPost    = "post:publish"
	TaskTypePollContainer  = "container:poll"
)

// Worker dispatches queue deliveries to the stage services.
type Worker struct {
	rec service.ReconcileService
	cs  service.ContentService
	ms  service.MediaService
	ps  service.PublishService
	po  service.PollService
}

func NewWorker(
	rec service.ReconcileService,
	cs service.ContentService,
	ms service.MediaService,
	ps service.PublishService,
	po service.PollService) *Worker {
	return &Worker{
		rec: rec,
		cs:  cs,
		ms:  ms,
		ps:  ps,
		po:  po,
	}
}
