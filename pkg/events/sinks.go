package events

import (
	"context"
	"time"

	"appforge/pkg/logx"
	"appforge/pkg/persistence"
)

// ConsoleSink logs events through the component logger.
type ConsoleSink struct {
	logger *logx.Logger
}

// NewConsoleSink creates a console sink.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{logger: logx.NewLogger("progress")}
}

// Deliver implements Sink.
func (s *ConsoleSink) Deliver(event ProgressEvent) {
	s.logger.Info("[%s #%d] %s: %s", event.JobID, event.Seq, event.Stage, event.Message)
}

// StoreSink appends events to the job's persisted log. Delivery
// failures are logged and dropped; progress reporting never fails a
// job.
type StoreSink struct {
	store  *persistence.Store
	logger *logx.Logger
}

// NewStoreSink creates a sink writing to the given store.
func NewStoreSink(store *persistence.Store) *StoreSink {
	return &StoreSink{store: store, logger: logx.NewLogger("progress-store")}
}

// Deliver implements Sink.
func (s *StoreSink) Deliver(event ProgressEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.AppendJobLog(ctx, event.JobID, event.Seq, string(event.Stage), event.Message); err != nil {
		s.logger.Warn("failed to persist event %d for job %s: %v", event.Seq, event.JobID, err)
	}
}
