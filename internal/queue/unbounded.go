package queue

import "sync"

// unboundedChan is a multi-producer, multi-consumer FIFO with no
// capacity limit: Send never blocks the caller waiting for a consumer.
// Go's built-in channels are fixed-capacity by design and no library in
// the retrieved corpus wraps an unbounded MPMC queue, so this is a small
// mutex/condvar-backed slice, the standard way to build one.
type unboundedChan struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Task
	closed bool
}

func newUnboundedChan() *unboundedChan {
	c := &unboundedChan{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Send appends t to the queue. It is a no-op once Close has been called.
func (c *unboundedChan) Send(t Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.items = append(c.items, t)
	c.cond.Signal()
}

// Recv blocks until an item is available or the queue is closed and
// drained, in which case it returns (nil, false).
func (c *unboundedChan) Recv() (Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.items) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(c.items) == 0 {
		return nil, false
	}
	t := c.items[0]
	c.items[0] = nil
	c.items = c.items[1:]
	return t, true
}

// Close marks the queue closed and wakes every blocked receiver. Items
// already queued are still delivered; Send after Close is ignored.
func (c *unboundedChan) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cond.Broadcast()
}

// Len reports the number of items currently queued, for metrics/tests.
func (c *unboundedChan) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// notifier is a re-armable broadcast, the equivalent of tokio::sync::Notify:
// waiters block on the current generation's channel; broadcast closes it
// and swaps in a fresh one so later waiters don't immediately fire.
type notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{})}
}

func (n *notifier) current() chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch
}

func (n *notifier) broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()
	close(n.ch)
	n.ch = make(chan struct{})
}
