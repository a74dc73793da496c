// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/node-proxy/lib/clock"
)

type fakeSource struct {
	sync.Mutex
	pending  bool
	ready    bool
	current  map[string]any
	previous map[string]any
}

func (s *fakeSource) PendingShutdown() bool                  { return s.pending }
func (s *fakeSource) ReadyLocked() bool                      { return s.ready }
func (s *fakeSource) AssembleLocked() map[string]any         { return s.current }
func (s *fakeSource) PreviousDataLocked() map[string]any     { return s.previous }
func (s *fakeSource) SetPreviousDataLocked(d map[string]any) { s.previous = d }

func (s *fakeSource) set(current map[string]any) {
	s.Lock()
	defer s.Unlock()
	s.ready = true
	s.current = current
}

func (s *fakeSource) delivered() map[string]any {
	s.Lock()
	defer s.Unlock()
	return s.previous
}

// fakePusher fails the first failures pushes, then succeeds.
type fakePusher struct {
	mu       sync.Mutex
	failures int
	pushes   []map[string]any
	ctxErrs  []error
}

func (p *fakePusher) Push(ctx context.Context, patch map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, patch)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	if p.failures > 0 {
		p.failures--
		return errors.New("connection refused")
	}
	return nil
}

func (p *fakePusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushes)
}

func newReporter(source *fakeSource, pusher *fakePusher, fake *clock.FakeClock) *Reporter {
	return New(Config{
		Source:        source,
		Pusher:        pusher,
		CheckInterval: 5 * time.Second,
		MaxRetries:    3,
		RetryDelay:    5 * time.Second,
		Clock:         fake,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func epoch() *clock.FakeClock { return clock.Fake(time.Unix(1_700_000_000, 0)) }

func TestCheckSkipsUntilReady(t *testing.T) {
	source := &fakeSource{}
	pusher := &fakePusher{}
	r := newReporter(source, pusher, epoch())

	if err := r.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if pusher.count() != 0 {
		t.Errorf("pushed %d times before data was ready", pusher.count())
	}
}

func TestCheckSkipsWhenShutdownPending(t *testing.T) {
	source := &fakeSource{pending: true}
	source.set(map[string]any{"sn": "SN-1"})
	pusher := &fakePusher{}

	if err := newReporter(source, pusher, epoch()).Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if pusher.count() != 0 {
		t.Errorf("pushed %d times while shutdown pending", pusher.count())
	}
}

func TestCheckDeliversOnlyChanges(t *testing.T) {
	source := &fakeSource{}
	pusher := &fakePusher{}
	r := newReporter(source, pusher, epoch())
	ctx := context.Background()

	source.set(map[string]any{"sn": "SN-1", "status": map[string]any{"fans": map[string]any{}}})
	if err := r.Check(ctx); err != nil {
		t.Fatalf("first Check: %v", err)
	}
	if pusher.count() != 1 || source.delivered()["sn"] != "SN-1" {
		t.Fatalf("pushes = %d, delivered = %v", pusher.count(), source.delivered())
	}

	// Same content in new maps.
	source.set(map[string]any{"status": map[string]any{"fans": map[string]any{}}, "sn": "SN-1"})
	if err := r.Check(ctx); err != nil {
		t.Fatalf("unchanged Check: %v", err)
	}
	if pusher.count() != 1 {
		t.Fatalf("pushed unchanged data; pushes = %d", pusher.count())
	}

	source.set(map[string]any{"sn": "SN-2", "status": map[string]any{"fans": map[string]any{}}})
	if err := r.Check(ctx); err != nil {
		t.Fatalf("changed Check: %v", err)
	}
	if pusher.count() != 2 || source.delivered()["sn"] != "SN-2" {
		t.Fatalf("pushes = %d, delivered = %v", pusher.count(), source.delivered())
	}
	// The whole snapshot is sent, not the delta.
	if _, ok := pusher.pushes[1]["status"]; !ok {
		t.Errorf("pushed %v, want the full snapshot", pusher.pushes[1])
	}
}

func TestCheckRetriesExactlyMaxTimes(t *testing.T) {
	source := &fakeSource{}
	source.set(map[string]any{"sn": "SN-1"})
	pusher := &fakePusher{failures: 100}
	fake := epoch()
	r := newReporter(source, pusher, fake)

	done := make(chan error, 1)
	go func() { done <- r.Check(context.Background()) }()

	// Two waits separate three attempts.
	for range 2 {
		fake.WaitForTimers(1)
		fake.Advance(5 * time.Second)
	}

	select {
	case err := <-done:
		var delivery *DeliveryError
		if !errors.As(err, &delivery) || delivery.Attempts != 3 {
			t.Fatalf("Check = %v, want a DeliveryError after 3 attempts", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Check did not return")
	}
	if pusher.count() != 3 {
		t.Errorf("attempts = %d, want 3", pusher.count())
	}
	if fake.PendingCount() != 0 {
		t.Errorf("%d waits pending; no wait may follow the last attempt", fake.PendingCount())
	}
	if source.delivered() != nil {
		t.Errorf("delivery record set after a failed delivery: %v", source.delivered())
	}

	// The next check sends the same content again.
	pusher.mu.Lock()
	pusher.failures = 0
	pusher.mu.Unlock()
	if err := r.Check(context.Background()); err != nil {
		t.Fatalf("retry Check: %v", err)
	}
	if pusher.count() != 4 || source.delivered()["sn"] != "SN-1" {
		t.Errorf("pushes = %d, delivered = %v", pusher.count(), source.delivered())
	}
}

func TestCheckRecoversWithinAttempts(t *testing.T) {
	source := &fakeSource{}
	source.set(map[string]any{"sn": "SN-1"})
	pusher := &fakePusher{failures: 1}
	fake := epoch()
	r := newReporter(source, pusher, fake)

	done := make(chan error, 1)
	go func() { done <- r.Check(context.Background()) }()
	fake.WaitForTimers(1)
	fake.Advance(5 * time.Second)

	if err := <-done; err != nil {
		t.Fatalf("Check: %v", err)
	}
	if pusher.count() != 2 || source.delivered() == nil {
		t.Errorf("pushes = %d, delivered = %v", pusher.count(), source.delivered())
	}
}

func TestCheckAbandonsRetriesOnCancel(t *testing.T) {
	source := &fakeSource{}
	source.set(map[string]any{"sn": "SN-1"})
	pusher := &fakePusher{failures: 100}
	fake := epoch()
	r := newReporter(source, pusher, fake)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Check(ctx) }()
	fake.WaitForTimers(1)
	cancel()

	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Check = %v, want context.Canceled", err)
	}
	if pusher.count() != 1 {
		t.Errorf("attempts = %d, want 1", pusher.count())
	}
}

func TestPushOutlivesCancellation(t *testing.T) {
	source := &fakeSource{}
	source.set(map[string]any{"sn": "SN-1"})
	pusher := &fakePusher{}
	r := newReporter(source, pusher, epoch())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Check(ctx); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if pusher.count() != 1 {
		t.Fatalf("attempts = %d, want 1", pusher.count())
	}
	if err := pusher.ctxErrs[0]; err != nil {
		t.Errorf("push context error = %v; a stopping reporter must not abort an in-flight push", err)
	}
	if source.delivered() == nil {
		t.Error("push completed but delivery not recorded")
	}
}

func TestRunChecksEveryInterval(t *testing.T) {
	source := &fakeSource{}
	pusher := &fakePusher{}
	fake := epoch()
	r := newReporter(source, pusher, fake)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	fake.WaitForTimers(1)
	if pusher.count() != 0 {
		t.Fatal("pushed before data was ready")
	}

	source.set(map[string]any{"sn": "SN-1"})
	fake.Advance(5 * time.Second)
	fake.WaitForTimers(1)
	if pusher.count() != 1 {
		t.Fatalf("pushes = %d after data became ready, want 1", pusher.count())
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
}
