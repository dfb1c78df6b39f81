package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (c *captureSink) Deliver(event ProgressEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func TestPublishSequenceIsMonotonic(t *testing.T) {
	sink := &captureSink{}
	pub := NewPublisher("job-1", sink)

	pub.Publish(StageTranslate, "translated")
	pub.Publish(StagePlan, "planned 7 files")
	pub.Publish(StageFinish, "done")

	require.Len(t, sink.events, 3)
	for i, event := range sink.events {
		assert.Equal(t, i+1, event.Seq)
		assert.Equal(t, "job-1", event.JobID)
	}
}

func TestPublishFansOutToAllSinks(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	pub := NewPublisher("job-1", first, second)

	pub.Publish(StageGenerate, "wrote src/index.js")

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, first.events[0], second.events[0])
}

func TestPublishConcurrentSequencesUnique(t *testing.T) {
	sink := &captureSink{}
	pub := NewPublisher("job-1", sink)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pub.Publish(StageGenerate, "tick")
		}()
	}
	wg.Wait()

	seen := map[int]bool{}
	for _, event := range sink.events {
		assert.False(t, seen[event.Seq], "duplicate seq %d", event.Seq)
		seen[event.Seq] = true
	}
	assert.Len(t, seen, 20)
}
