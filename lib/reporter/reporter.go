// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package reporter delivers System snapshots to the manager when they
// change.
//
// Each check holds the System's lock for its whole duration, delivery
// retries included, so that an update cycle cannot replace the
// snapshot between the comparison and the record of what was sent.
// The last delivered snapshot is recorded only after the manager
// accepts it; a delivery that exhausts its attempts leaves the record
// untouched and the next check sends the same content again.
package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/node-proxy/lib/clock"
	"github.com/bureau-foundation/node-proxy/lib/metrics"
	"github.com/bureau-foundation/node-proxy/lib/snapshot"
)

// Source is the part of a System the reporter reads. Locked methods
// are called with the Locker held.
type Source interface {
	sync.Locker
	PendingShutdown() bool
	ReadyLocked() bool
	AssembleLocked() map[string]any
	PreviousDataLocked() map[string]any
	SetPreviousDataLocked(map[string]any)
}

// Pusher delivers one snapshot.
type Pusher interface {
	Push(ctx context.Context, patch map[string]any) error
}

// DeliveryError is a delivery that failed every attempt.
type DeliveryError struct {
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Config configures a Reporter.
type Config struct {
	Source Source
	Pusher Pusher

	// CheckInterval separates checks. Default 5s.
	CheckInterval time.Duration

	// MaxRetries is the number of delivery attempts per check.
	// Default 30.
	MaxRetries int

	// RetryDelay separates attempts. Default 5s.
	RetryDelay time.Duration

	// HeartbeatInterval separates "still running" log lines.
	// Default 300s.
	HeartbeatInterval time.Duration

	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Reporter is the delivery worker.
type Reporter struct {
	source     Source
	pusher     Pusher
	interval   time.Duration
	maxRetries int
	retryDelay time.Duration
	heartbeat  time.Duration
	clock      clock.Clock
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// New returns a Reporter. Zero durations and counts take defaults.
func New(config Config) *Reporter {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 5 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 30
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = 300 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Reporter{
		source:     config.Source,
		pusher:     config.Pusher,
		interval:   config.CheckInterval,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
		heartbeat:  config.HeartbeatInterval,
		clock:      config.Clock,
		logger:     config.Logger,
		metrics:    config.Metrics,
	}
}

// Run checks every CheckInterval until ctx is cancelled. Delivery
// failures are logged and retried on later checks; Run itself only
// returns when ctx is done.
func (r *Reporter) Run(ctx context.Context) error {
	lastHeartbeat := r.clock.Now()
	for {
		if err := r.Check(ctx); err != nil {
			r.logger.Error("delivery deferred to the next check", "error", err)
		}

		if now := r.clock.Now(); now.Sub(lastHeartbeat) >= r.heartbeat {
			r.logger.Info("reporter running (heartbeat)", "next_check", r.interval)
			lastHeartbeat = now
		}

		select {
		case <-ctx.Done():
			r.logger.Debug("reporter stopping")
			return nil
		case <-r.clock.After(r.interval):
		}
	}
}

// Check runs one comparison and, when the snapshot changed, one
// delivery. It returns a *DeliveryError when every attempt failed.
func (r *Reporter) Check(ctx context.Context) error {
	r.source.Lock()
	defer r.source.Unlock()

	if r.source.PendingShutdown() || !r.source.ReadyLocked() {
		return nil
	}

	current := r.source.AssembleLocked()
	previous := r.source.PreviousDataLocked()
	if snapshot.Equal(previous, current) {
		r.logger.Debug("no change since last delivery")
		return nil
	}
	r.logDelta(previous, current)

	if err := r.deliver(ctx, current); err != nil {
		r.metrics.Delivery(false)
		return err
	}
	r.source.SetPreviousDataLocked(current)
	r.metrics.Delivery(true)
	return nil
}

func (r *Reporter) logDelta(previous, current map[string]any) {
	if previous == nil {
		r.logger.Info("first data received from the system")
		return
	}
	r.logger.Info("data changed since last delivery", "delta", snapshot.FormatDelta(snapshot.Diff(previous, current)))
}

// deliver makes exactly maxRetries attempts, waiting retryDelay between
// them but not after the last. Each push runs to the pusher's own
// timeout; cancelling ctx only abandons the remaining retries.
func (r *Reporter) deliver(ctx context.Context, patch map[string]any) error {
	delivery := uuid.NewString()
	pushCtx := context.WithoutCancel(ctx)
	var err error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		err = r.pusher.Push(pushCtx, patch)
		r.metrics.DeliveryAttempt(err == nil)
		if err == nil {
			r.logger.Info("data delivered", "delivery", delivery, "attempt", attempt)
			return nil
		}
		r.logger.Error("delivery attempt failed",
			"delivery", delivery,
			"attempt", attempt,
			"max_attempts", r.maxRetries,
			"error", err,
		)
		if attempt == r.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return &DeliveryError{Attempts: attempt, Err: ctx.Err()}
		case <-r.clock.After(r.retryDelay):
		}
	}
	return &DeliveryError{Attempts: r.maxRetries, Err: err}
}
