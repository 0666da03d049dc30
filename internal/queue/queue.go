package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/turahe/mediacore/config"
	"github.com/turahe/mediacore/pkg/logger"
)

// Handler executes one Task. It receives the Queue itself so it can
// enqueue follow-on tasks (ServerStartup queuing UpdateSearches,
// UploadMediaFile re-syncing its parent item, and so on), the same way
// every task contract in the maintenance/media families chains further
// work. Handlers are registered by task name at wiring time; the
// pipeline package supplies one per task kind, closing over whatever
// repositories, storage and locks it needs.
type Handler func(ctx context.Context, q *Queue, task Task) error

// Queue is the process-wide two-lane task runner: a cheap lane (default
// 3 workers) and an expensive lane (default 1 worker, video transcodes
// only). Workers pull from an unbounded queue per lane; Drain blocks
// until every queued and in-flight task has completed.
type Queue struct {
	handlersMu sync.RWMutex
	handlers   map[string]Handler

	cheap     *unboundedChan
	expensive *unboundedChan

	pendingMu sync.Mutex
	pending   int64
	notify    *notifier

	wg sync.WaitGroup

	metrics *metrics
}

// New builds a Queue and starts its worker goroutines. cfg's lane widths
// default to 3 cheap / 1 expensive when unset (config.TaskQueue.withDefaults
// already applies this at load time, but New re-applies it defensively
// for callers that construct a config.TaskQueue by hand, e.g. tests).
func New(cfg config.TaskQueue) *Queue {
	cheapWorkers := cfg.CheapWorkers
	if cheapWorkers <= 0 {
		cheapWorkers = 3
	}
	expensiveWorkers := cfg.ExpensiveWorkers
	if expensiveWorkers <= 0 {
		expensiveWorkers = 1
	}

	q := &Queue{
		handlers:  make(map[string]Handler),
		cheap:     newUnboundedChan(),
		expensive: newUnboundedChan(),
		notify:    newNotifier(),
		metrics:   newMetrics(),
	}

	for i := 0; i < cheapWorkers; i++ {
		q.wg.Add(1)
		go q.workerLoop(q.cheap)
	}
	for i := 0; i < expensiveWorkers; i++ {
		q.wg.Add(1)
		go q.workerLoop(q.expensive)
	}

	return q
}

// RegisterHandler wires the function that runs every Task whose Name()
// returns name. Registering the same name twice replaces the handler;
// call sites are expected to register once at startup.
func (q *Queue) RegisterHandler(name string, h Handler) {
	q.handlersMu.Lock()
	defer q.handlersMu.Unlock()
	q.handlers[name] = h
}

// Enqueue admits task onto its lane (cheap or expensive, per
// Task.Expensive) and returns immediately; the task runs on whichever
// worker picks it up next. Order across tasks is FIFO within a lane
// only — there is no cross-lane or cross-task ordering guarantee.
func (q *Queue) Enqueue(ctx context.Context, task Task) {
	q.pendingMu.Lock()
	q.pending++
	q.pendingMu.Unlock()
	q.metrics.pending.Inc()

	if task.Expensive() {
		q.expensive.Send(task)
	} else {
		q.cheap.Send(task)
	}
}

// Drain blocks until every task queued so far (including ones enqueued
// by handlers while draining) has completed, or ctx is done first. It
// differs from the reference implementation's finish_tasks, which waits
// once and then permanently closes the sender: this Queue is meant to
// outlive a single drain (cron keeps enqueuing after ServerStartup), so
// Drain loops until the pending count is actually zero.
func (q *Queue) Drain(ctx context.Context) error {
	for {
		q.pendingMu.Lock()
		count := q.pending
		q.pendingMu.Unlock()
		if count == 0 {
			return nil
		}

		ch := q.notify.current()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Shutdown drains outstanding work, closes both lanes and waits for
// every worker goroutine to exit.
func (q *Queue) Shutdown(ctx context.Context) error {
	if err := q.Drain(ctx); err != nil {
		return err
	}
	q.cheap.Close()
	q.expensive.Close()
	q.wg.Wait()
	return nil
}

// Pending reports the current in-flight-plus-queued task count.
func (q *Queue) Pending() int64 {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	return q.pending
}

func (q *Queue) workerLoop(ch *unboundedChan) {
	defer q.wg.Done()
	for {
		task, ok := ch.Recv()
		if !ok {
			return
		}
		q.runTask(context.Background(), task)
	}
}

func (q *Queue) runTask(ctx context.Context, task Task) {
	name := task.Name()
	start := time.Now()

	q.handlersMu.RLock()
	h, ok := q.handlers[name]
	q.handlersMu.RUnlock()

	var err error
	if !ok {
		err = fmt.Errorf("queue: no handler registered for task %q", name)
	} else {
		err = h(ctx, q, task)
	}

	duration := time.Since(start)
	q.metrics.observe(name, duration, err)
	q.metrics.pending.Dec()

	if err != nil {
		if logger.Log != nil {
			logger.Log.Error("task failed",
				zap.String("task", name),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		}
	} else if logger.Log != nil {
		logger.Log.Info("task complete",
			zap.String("task", name),
			zap.Duration("duration", duration),
		)
	}

	q.pendingMu.Lock()
	q.pending--
	drained := q.pending == 0
	q.pendingMu.Unlock()
	if drained {
		q.notify.broadcast()
	}
}
