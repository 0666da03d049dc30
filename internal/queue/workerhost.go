package queue

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/turahe/mediacore/pkg/logger"
)

// Command is the newline-delimited JSON message a WorkerHost writes to a
// child's stdin, e.g. {"command":"processMediaFile","params":{"mediaFile":"I:…"}}.
type Command struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params"`
}

// Reply is the newline-delimited JSON response read back from a child's
// stdout.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Fallback runs cmd in-process, used whenever no child worker is alive
// or a spawn attempt failed.
type Fallback func(ctx context.Context, cmd Command) error

// WorkerHost shells expensive work out to child processes for memory
// isolation (large image/video decodes can retain a lot of heap that the
// main process would rather not carry). Workers are spawned lazily up
// to maxWorkers and dispatched to round-robin; a dead or unspawnable
// child falls back to running the command in the calling goroutine.
type WorkerHost struct {
	spawnArgs  []string
	maxWorkers int
	fallback   Fallback

	mu      sync.Mutex
	workers []*hostWorker
	next    atomic.Uint64
}

type hostWorker struct {
	cmd    *exec.Cmd
	stdin  *json.Encoder
	stdout *bufio.Scanner

	mu    sync.Mutex
	alive bool
}

// NewWorkerHost builds a host that spawns spawnArgs[0] with the
// remaining entries as arguments, up to maxWorkers concurrent children.
// fallback must not be nil.
func NewWorkerHost(spawnArgs []string, maxWorkers int, fallback Fallback) *WorkerHost {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerHost{spawnArgs: spawnArgs, maxWorkers: maxWorkers, fallback: fallback}
}

// Dispatch sends cmd to a worker (spawning one if under maxWorkers and
// none is idle-able), or runs fallback if no worker is usable.
func (h *WorkerHost) Dispatch(ctx context.Context, cmd Command) error {
	w := h.pick(ctx)
	if w == nil {
		return h.fallback(ctx, cmd)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.stdin.Encode(cmd); err != nil {
		w.alive = false
		return h.fallback(ctx, cmd)
	}
	if !w.stdout.Scan() {
		w.alive = false
		return h.fallback(ctx, cmd)
	}

	var reply Reply
	if err := json.Unmarshal(w.stdout.Bytes(), &reply); err != nil {
		return fmt.Errorf("queue: worker host reply decode: %w", err)
	}
	if !reply.OK {
		return fmt.Errorf("queue: worker host: %s", reply.Error)
	}
	return nil
}

func (h *WorkerHost) pick(ctx context.Context) *hostWorker {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.workers = pruneDead(h.workers)

	if len(h.workers) < h.maxWorkers {
		if w := h.spawn(ctx); w != nil {
			h.workers = append(h.workers, w)
		}
	}
	if len(h.workers) == 0 {
		return nil
	}

	idx := int(h.next.Add(1)-1) % len(h.workers)
	return h.workers[idx]
}

func pruneDead(workers []*hostWorker) []*hostWorker {
	alive := workers[:0]
	for _, w := range workers {
		if w.alive {
			alive = append(alive, w)
		}
	}
	return alive
}

func (h *WorkerHost) spawn(ctx context.Context) *hostWorker {
	if len(h.spawnArgs) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, h.spawnArgs[0], h.spawnArgs[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil
	}
	if err := cmd.Start(); err != nil {
		if logger.Log != nil {
			logger.Log.Warn("queue: worker host spawn failed", zap.Error(err))
		}
		return nil
	}

	return &hostWorker{
		cmd:    cmd,
		stdin:  json.NewEncoder(stdin),
		stdout: bufio.NewScanner(stdout),
		alive:  true,
	}
}

// Shutdown terminates every spawned child. It does not wait for them to
// exit; callers that need a clean shutdown should close stdin first via
// a dedicated "shutdown" Command and give children a moment to exit.
func (h *WorkerHost) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range h.workers {
		if w.cmd.Process != nil {
			_ = w.cmd.Process.Kill()
		}
	}
	h.workers = nil
}
