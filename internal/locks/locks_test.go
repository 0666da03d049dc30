package locks

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocks_MediaItemReusesSameLockWhileReferenced(t *testing.T) {
	l := New(1)

	g1 := l.MediaItem("item1")
	g2 := l.MediaItem("item1")

	assert.Same(t, g1.Lock(), g2.Lock())
	assert.Equal(t, 2, l.inFlight("item1"))

	g1.Release()
	assert.Equal(t, 1, l.inFlight("item1"))

	g2.Release()
	assert.Equal(t, 0, l.inFlight("item1"))
}

func TestLocks_MediaItemEvictsAndRecreatesAfterFullRelease(t *testing.T) {
	l := New(1)

	g1 := l.MediaItem("item1")
	first := g1.Lock()
	g1.Release()

	g2 := l.MediaItem("item1")
	defer g2.Release()

	assert.NotSame(t, first, g2.Lock())
}

func TestLocks_ReleaseIsIdempotent(t *testing.T) {
	l := New(1)
	g := l.MediaItem("item1")
	g.Release()
	assert.NotPanics(t, func() { g.Release() })
}

func TestLocks_EnterExpensiveTaskGatesConcurrency(t *testing.T) {
	l := New(1)

	release, err := l.EnterExpensiveTask(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.EnterExpensiveTask(ctx)
	assert.Error(t, err)

	release()

	release2, err := l.EnterExpensiveTask(context.Background())
	require.NoError(t, err)
	release2()
}

func TestMediaItemLock_FileOpsReusesCacheForSameFile(t *testing.T) {
	l := newMediaItemLock("item1")
	a := l.FileOps("file1")
	b := l.FileOps("file1")
	c := l.FileOps("file2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestMediaFileOpCache_EnsureLocalComputesOnceUnderConcurrency(t *testing.T) {
	c := newMediaFileOpCache("file1")

	var calls int64
	compute := func(ctx context.Context) (string, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return "/tmp/file1", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.EnsureLocal(context.Background(), compute)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	for _, r := range results {
		assert.Equal(t, "/tmp/file1", r)
	}
}

func TestMediaFileOpCache_ResizeIsKeyedBySize(t *testing.T) {
	c := newMediaFileOpCache("file1")

	var calls int64
	compute := func(ctx context.Context) (any, error) {
		atomic.AddInt64(&calls, 1)
		return "image", nil
	}

	_, err := c.Resize(context.Background(), 200, compute)
	require.NoError(t, err)
	_, err = c.Resize(context.Background(), 400, compute)
	require.NoError(t, err)

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}
