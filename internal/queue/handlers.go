// Package queue carries work off the request path: alert notification
// delivery and audit retention purges run as asynq tasks.
package queue

import (
	"github.com/hibiken/asynq"
)

// HandlersRegistry maps task types to their workers. The worker binary
// registers everything at startup; unknown task types fail loudly in asynq
// rather than being dropped.
type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{
		mux: asynq.NewServeMux(),
	}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}
