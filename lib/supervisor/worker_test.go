// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/node-proxy/lib/testutil"
)

func TestWorkerCapturesPanic(t *testing.T) {
	w := newWorker("boom", func(context.Context) error { panic("boom") }, slogDiscard())
	w.start(context.Background())
	testutil.Eventually(t, 5*time.Second, func() bool { finished, _ := w.finished(); return finished }, "worker finishing")

	_, err := w.finished()
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("err = %v, want *PanicError", err)
	}
	if panicErr.Worker != "boom" || len(panicErr.Stack) == 0 {
		t.Errorf("panic error = %+v", panicErr)
	}
}

func TestWorkerStopCancels(t *testing.T) {
	started := make(chan struct{})
	w := newWorker("loop", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}, slogDiscard())
	w.start(context.Background())
	testutil.RequireClosed(t, started, 5*time.Second, "worker starting")

	// A second start on a running worker is ignored.
	w.start(context.Background())

	w.stop()
	finished, err := w.finished()
	if !finished || err != nil {
		t.Errorf("finished = %v, err = %v", finished, err)
	}
	if running, _, _ := w.status(); running {
		t.Error("worker still running after stop")
	}
}

func TestWorkerKeepsLastErrorAcrossRestart(t *testing.T) {
	calls := 0
	w := newWorker("flaky", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("first run failed")
		}
		<-ctx.Done()
		return nil
	}, slogDiscard())
	w.start(context.Background())
	testutil.Eventually(t, 5*time.Second, func() bool { finished, _ := w.finished(); return finished }, "first run")

	w.restarted()
	w.start(context.Background())
	defer w.stop()
	running, restarts, lastErr := w.status()
	if !running || restarts != 1 || lastErr == nil {
		t.Errorf("status = %v, %d, %v", running, restarts, lastErr)
	}
}
