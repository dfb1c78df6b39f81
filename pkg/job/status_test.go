package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHappyPath(t *testing.T) {
	status := StatusPending

	status, err := status.Transition(StatusRunning)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, status)
	assert.False(t, status.Terminal())

	status, err = status.Transition(StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	assert.True(t, status.Terminal())
}

func TestTerminalStatesAbsorb(t *testing.T) {
	for _, terminal := range []Status{StatusCompleted, StatusCompletedWithWarnings, StatusFailed} {
		for _, next := range []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed} {
			got, err := terminal.Transition(next)
			assert.Error(t, err, "%s -> %s should be rejected", terminal, next)
			assert.Equal(t, terminal, got, "rejected transition must leave status unchanged")
		}
	}
}

func TestSkippingRunningIsRejected(t *testing.T) {
	got, err := StatusPending.Transition(StatusCompleted)
	assert.Error(t, err)
	assert.Equal(t, StatusPending, got)
}

func TestPendingCanFailDirectly(t *testing.T) {
	got, err := StatusPending.Transition(StatusFailed)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got)
}
