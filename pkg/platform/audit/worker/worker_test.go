package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offboard/pkg/platform/audit"
	"offboard/pkg/platform/audit/store/memory"
)

func TestWorkerDrainsInbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	pub := NewChannelPublisher(8)
	w := NewWorker(store, pub.Inbox())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, pub.Emit(ctx, audit.Event{
			Category: audit.CategoryOperations,
			Action:   audit.ActionPairRevoked,
			RunID:    "run-1",
		}))
	}

	require.Eventually(t, func() bool {
		return len(store.Events()) == 3
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestEmitNeverBlocks(t *testing.T) {
	ctx := context.Background()
	pub := NewChannelPublisher(1)

	// No worker attached: the second emit hits a full buffer and must
	// return immediately rather than stall the caller.
	require.NoError(t, pub.Emit(ctx, audit.Event{Action: audit.ActionRunStarted}))

	start := time.Now()
	require.NoError(t, pub.Emit(ctx, audit.Event{Action: audit.ActionRunCompleted}))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
