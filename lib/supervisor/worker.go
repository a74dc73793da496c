// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Task is a worker body. It runs until ctx is cancelled; returning
// earlier means it stopped on its own.
type Task func(ctx context.Context) error

// PanicError is a recovered worker panic.
type PanicError struct {
	Worker string
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker %s panicked: %v", e.Worker, e.Value)
}

// worker runs one Task and records how it ended.
type worker struct {
	name   string
	task   Task
	logger *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	err      error
	lastErr  error
	restarts int
}

func newWorker(name string, task Task, logger *slog.Logger) *worker {
	return &worker{name: name, task: task, logger: logger.With("worker", name)}
}

// start launches the task under a child of parent. Calling start on a
// running worker is a no-op.
func (w *worker) start(parent context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		select {
		case <-w.done:
		default:
			return
		}
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done
	w.err = nil

	go func() {
		err := w.run(ctx)
		w.mu.Lock()
		w.err = err
		if err != nil {
			w.lastErr = err
		}
		w.mu.Unlock()
		close(done)
	}()
	w.logger.Debug("worker started")
}

func (w *worker) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Worker: w.name, Value: r, Stack: debug.Stack()}
		}
	}()
	return w.task(ctx)
}

// stop cancels the task and waits for it to return.
func (w *worker) stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.logger.Debug("worker stopped")
}

// finished reports whether the task has returned and, if so, with
// what.
func (w *worker) finished() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done == nil {
		return false, nil
	}
	select {
	case <-w.done:
		return true, w.err
	default:
		return false, nil
	}
}

func (w *worker) restarted() {
	w.mu.Lock()
	w.restarts++
	w.mu.Unlock()
}

func (w *worker) status() (running bool, restarts int, lastErr error) {
	finished, _ := w.finished()
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done != nil && !finished, w.restarts, w.lastErr
}
