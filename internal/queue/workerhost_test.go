package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerHost_FallsBackWhenSpawnArgsEmpty(t *testing.T) {
	var fellBack bool
	h := NewWorkerHost(nil, 2, func(ctx context.Context, cmd Command) error {
		fellBack = true
		assert.Equal(t, "processMediaFile", cmd.Command)
		return nil
	})

	err := h.Dispatch(context.Background(), Command{Command: "processMediaFile", Params: map[string]any{"mediaFile": "I:1"}})
	require.NoError(t, err)
	assert.True(t, fellBack)
}

func TestWorkerHost_FallsBackWhenSpawnFails(t *testing.T) {
	var fellBack bool
	h := NewWorkerHost([]string{"/nonexistent/binary-that-does-not-exist"}, 1, func(ctx context.Context, cmd Command) error {
		fellBack = true
		return nil
	})

	err := h.Dispatch(context.Background(), Command{Command: "processMediaFile"})
	require.NoError(t, err)
	assert.True(t, fellBack)
}

func TestPruneDead_RemovesOnlyDeadWorkers(t *testing.T) {
	alive := &hostWorker{alive: true}
	dead := &hostWorker{alive: false}

	result := pruneDead([]*hostWorker{alive, dead})
	assert.Equal(t, []*hostWorker{alive}, result)
}

func TestWorkerHost_MaxWorkersDefaultsToOne(t *testing.T) {
	h := NewWorkerHost(nil, 0, func(ctx context.Context, cmd Command) error { return nil })
	assert.Equal(t, 1, h.maxWorkers)
}
