// Package locks provides the per-media-item serialization and
// expensive-task admission control the task queue relies on to keep
// concurrent workers from racing on the same item.
package locks

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Locks is the process-wide registry of MediaItemLocks plus the
// semaphore gating entry to expensive (CPU/transcode) work. One
// instance is shared by every worker.
type Locks struct {
	expensiveTasks *semaphore.Weighted

	mu    sync.Mutex
	items map[string]*entry
}

type entry struct {
	refcount int
	l        *MediaItemLock
}

// New builds a Locks registry. expensiveLaneWidth bounds concurrent
// expensive-task entry (see EnterExpensiveTask) to the expensive lane's
// configured worker count, so in-flight image/video decodes can't
// exceed what the lane would run anyway even when called from cheap
// workers doing ad-hoc decode work.
func New(expensiveLaneWidth int64) *Locks {
	if expensiveLaneWidth < 1 {
		expensiveLaneWidth = 1
	}
	return &Locks{
		expensiveTasks: semaphore.NewWeighted(expensiveLaneWidth),
		items:          make(map[string]*entry),
	}
}

// EnterExpensiveTask blocks until a permit is available, returning a
// release function the caller must invoke exactly once.
func (l *Locks) EnterExpensiveTask(ctx context.Context) (release func(), err error) {
	if err := l.expensiveTasks.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() { l.expensiveTasks.Release(1) })
	}, nil
}

// MediaItemGuard is a reference-counted handle on a MediaItemLock.
// Release must be called exactly once; the lock and its op cache are
// evicted from the registry when the last guard releases.
type MediaItemGuard struct {
	locks *Locks
	id    string
	lock  *MediaItemLock
	once  sync.Once
}

// Lock returns the underlying MediaItemLock this guard protects.
func (g *MediaItemGuard) Lock() *MediaItemLock { return g.lock }

// Release decrements the item's reference count, evicting it from the
// registry once it reaches zero.
func (g *MediaItemGuard) Release() {
	g.once.Do(func() {
		g.locks.release(g.id)
	})
}

// MediaItem hands out a guard for the given media item id, creating
// its lock and op cache on first use and reusing it for every
// concurrent caller until the last guard is released.
func (l *Locks) MediaItem(id string) *MediaItemGuard {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.items[id]
	if !ok {
		e = &entry{l: newMediaItemLock(id)}
		l.items[id] = e
	}
	e.refcount++

	return &MediaItemGuard{locks: l, id: id, lock: e.l}
}

func (l *Locks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.items[id]
	if !ok {
		return
	}
	e.refcount--
	if e.refcount <= 0 {
		delete(l.items, id)
	}
}

// inFlight reports the current reference count for id, for tests.
func (l *Locks) inFlight(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.items[id]; ok {
		return e.refcount
	}
	return 0
}
