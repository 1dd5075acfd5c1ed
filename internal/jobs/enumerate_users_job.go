package job

import (
	"context"
	"log/slog"

	"github.com/socialqueue/pipeline/internal/service"
)

type EnumerateUsersJob struct {
	es service.EnumeratorService
}

func NewEnumerateUsersJob(es service.EnumeratorService) *EnumerateUsersJob {
	return &EnumerateUsersJob{es: es}
}

// Run fans a reconcile task out to every user. Errors are logged and the
// tick is abandoned; the next tick covers the gap through the lookback
// window on the enumeration timestamp.
func (j *EnumerateUsersJob) Run() {
	ctx := context.Background()

	if err := j.es.EnumerateUsers(ctx); err != nil {
		slog.Info(err.Error())
	}
}
