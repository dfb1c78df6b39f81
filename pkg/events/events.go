// Package events publishes job progress. Every event carries a
// per-job sequence number so consumers can order and de-duplicate
// regardless of which sink delivered it.
package events

import (
	"sync"
	"time"
)

// Stage names the pipeline phase an event belongs to.
type Stage string

// Pipeline stages, in execution order.
const (
	StageTranslate Stage = "translate"
	StageCritique  Stage = "critique"
	StageInterpret Stage = "interpret"
	StagePlan      Stage = "plan"
	StageGenerate  Stage = "generate"
	StageCommit    Stage = "commit"
	StagePush      Stage = "push"
	StageDeploy    Stage = "deploy"
	StageFinish    Stage = "finish"
)

// ProgressEvent is one progress update for a job.
type ProgressEvent struct {
	JobID     string    `json:"job_id"`
	Seq       int       `json:"seq"`
	Stage     Stage     `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives published events. Sinks must not block; slow delivery
// belongs inside the sink, not the publisher.
type Sink interface {
	Deliver(event ProgressEvent)
}

// Publisher assigns sequence numbers and fans events out to sinks.
type Publisher struct {
	jobID string

	mu    sync.Mutex
	seq   int
	sinks []Sink
}

// NewPublisher creates a publisher for one job.
func NewPublisher(jobID string, sinks ...Sink) *Publisher {
	return &Publisher{jobID: jobID, sinks: sinks}
}

// Publish emits one event. Sequence numbers start at 1 and are
// strictly increasing per job.
func (p *Publisher) Publish(stage Stage, message string) ProgressEvent {
	p.mu.Lock()
	p.seq++
	event := ProgressEvent{
		JobID:     p.jobID,
		Seq:       p.seq,
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	sinks := make([]Sink, len(p.sinks))
	copy(sinks, p.sinks)
	p.mu.Unlock()

	for _, sink := range sinks {
		sink.Deliver(event)
	}
	return event
}
