package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turahe/mediacore/config"
)

func TestQueue_EnqueueRunsRegisteredHandler(t *testing.T) {
	q := New(config.TaskQueue{CheapWorkers: 1, ExpensiveWorkers: 1})

	var ran atomic.Bool
	var gotCatalog string
	var mu sync.Mutex
	q.RegisterHandler("UpdateSearches", func(ctx context.Context, q *Queue, task Task) error {
		ran.Store(true)
		mu.Lock()
		gotCatalog = task.(UpdateSearches).Catalog
		mu.Unlock()
		return nil
	})

	q.Enqueue(context.Background(), UpdateSearches{Catalog: "cat1"})

	require.NoError(t, q.Drain(context.Background()))
	assert.True(t, ran.Load())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "cat1", gotCatalog)
}

func TestQueue_DrainWaitsForAllPendingTasks(t *testing.T) {
	q := New(config.TaskQueue{CheapWorkers: 2, ExpensiveWorkers: 1})

	var count atomic.Int64
	q.RegisterHandler("UpdateSearches", func(ctx context.Context, q *Queue, task Task) error {
		time.Sleep(5 * time.Millisecond)
		count.Add(1)
		return nil
	})

	for i := 0; i < 10; i++ {
		q.Enqueue(context.Background(), UpdateSearches{Catalog: "cat1"})
	}

	require.NoError(t, q.Drain(context.Background()))
	assert.Equal(t, int64(10), count.Load())
	assert.Equal(t, int64(0), q.Pending())
}

func TestQueue_ExpensiveTaskUsesSeparateLaneFromCheap(t *testing.T) {
	q := New(config.TaskQueue{CheapWorkers: 1, ExpensiveWorkers: 1})

	blockCheap := make(chan struct{})
	var expensiveRan atomic.Bool

	q.RegisterHandler("UpdateSearches", func(ctx context.Context, q *Queue, task Task) error {
		<-blockCheap
		return nil
	})
	q.RegisterHandler("BuildAlternate", func(ctx context.Context, q *Queue, task Task) error {
		expensiveRan.Store(true)
		return nil
	})

	q.Enqueue(context.Background(), UpdateSearches{Catalog: "cat1"})
	q.Enqueue(context.Background(), BuildAlternate{MediaFile: "I:1", MimeGroup: "video"})

	require.Eventually(t, expensiveRan.Load, time.Second, time.Millisecond)
	close(blockCheap)
	require.NoError(t, q.Drain(context.Background()))
}

func TestQueue_UnregisteredHandlerDoesNotPanicAndDrains(t *testing.T) {
	q := New(config.TaskQueue{CheapWorkers: 1, ExpensiveWorkers: 1})

	assert.NotPanics(t, func() {
		q.Enqueue(context.Background(), UpdateSearches{Catalog: "cat1"})
	})
	require.NoError(t, q.Drain(context.Background()))
}

func TestQueue_DrainRespectsContextCancellation(t *testing.T) {
	q := New(config.TaskQueue{CheapWorkers: 1, ExpensiveWorkers: 1})

	block := make(chan struct{})
	q.RegisterHandler("UpdateSearches", func(ctx context.Context, q *Queue, task Task) error {
		<-block
		return nil
	})
	q.Enqueue(context.Background(), UpdateSearches{Catalog: "cat1"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := q.Drain(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
	require.NoError(t, q.Drain(context.Background()))
}

func TestUnboundedChan_SendRecvPreservesFIFOOrder(t *testing.T) {
	c := newUnboundedChan()
	c.Send(UpdateSearches{Catalog: "a"})
	c.Send(UpdateSearches{Catalog: "b"})

	first, ok := c.Recv()
	require.True(t, ok)
	assert.Equal(t, "a", first.(UpdateSearches).Catalog)

	second, ok := c.Recv()
	require.True(t, ok)
	assert.Equal(t, "b", second.(UpdateSearches).Catalog)
}

func TestUnboundedChan_CloseUnblocksReceiver(t *testing.T) {
	c := newUnboundedChan()
	done := make(chan bool, 1)
	go func() {
		_, ok := c.Recv()
		done <- ok
	}()

	time.Sleep(5 * time.Millisecond)
	c.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Recv did not unblock after Close")
	}
}
