// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/node-proxy/lib/api"
	"github.com/bureau-foundation/node-proxy/lib/clock"
	"github.com/bureau-foundation/node-proxy/lib/metrics"
	"github.com/bureau-foundation/node-proxy/lib/mgr"
	"github.com/bureau-foundation/node-proxy/lib/redfish"
	"github.com/bureau-foundation/node-proxy/lib/reporter"
	"github.com/bureau-foundation/node-proxy/lib/system"
)

// Worker names, as they appear in logs, metrics, and /health.
const (
	WorkerSystem   = "system"
	WorkerReporter = "reporter"
	WorkerAPI      = "api"
)

// OOBSource returns the controller credentials. *mgr.Client is the
// production implementation.
type OOBSource interface {
	FetchOOB(ctx context.Context) (*mgr.OOB, error)
}

// Connector builds a Redfish client for the controller described by
// oob. No connection is made until Login.
type Connector func(oob *mgr.OOB) redfish.Client

// Config configures a Manager.
type Config struct {
	OOB    OOBSource
	Pusher reporter.Pusher

	// Connect defaults to a gofish client using RequestTimeout.
	Connect Connector

	// Vendor selects the System implementation from the registry.
	Vendor string

	// System is the template for every System built. Host and Client
	// are filled in from the bootstrap.
	System system.Params

	// Reporter is the template for every Reporter built. Source is
	// filled in with the current System.
	Reporter reporter.Config

	// API serves the command API. Optional.
	API Task

	MinInterval       time.Duration
	MaxInterval       time.Duration
	BackoffFactor     float64
	HeartbeatInterval time.Duration

	// ShutdownTimeout bounds the final logout. Default 10s.
	ShutdownTimeout time.Duration

	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Manager supervises the workers. It implements [api.Backend].
type Manager struct {
	config Config
	clock  clock.Clock
	logger *slog.Logger

	// ctx parents every worker. It is detached from Start's context
	// so that Shutdown can order the stop.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	oob      *mgr.OOB
	sys      system.System
	reporter *reporter.Reporter
	workers  []*worker
}

var _ api.Backend = (*Manager)(nil)

// New validates config and applies defaults.
func New(config Config) (*Manager, error) {
	if config.OOB == nil {
		return nil, errors.New("supervisor: OOB source is required")
	}
	if config.Pusher == nil {
		return nil, errors.New("supervisor: pusher is required")
	}
	if config.MinInterval <= 0 {
		config.MinInterval = 20 * time.Second
	}
	if config.MaxInterval < config.MinInterval {
		config.MaxInterval = max(300*time.Second, config.MinInterval)
	}
	if config.BackoffFactor < 1 {
		config.BackoffFactor = 1.5
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = 300 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Connect == nil {
		config.Connect = gofishConnector(config.System.RequestTimeout, config.Logger)
	}
	return &Manager{
		config: config,
		clock:  config.Clock,
		logger: config.Logger,
	}, nil
}

func gofishConnector(timeout time.Duration, logger *slog.Logger) Connector {
	return func(oob *mgr.OOB) redfish.Client {
		return redfish.NewGofishClient(redfish.GofishConfig{
			Host:     oob.Addr,
			Port:     oob.Port,
			Username: oob.Username,
			Password: oob.Password,
			Timeout:  timeout,
			Logger:   logger,
		})
	}
}

// NextInterval is the liveness interval after a failed check: current
// scaled by factor, capped at limit.
func NextInterval(current time.Duration, factor float64, limit time.Duration) time.Duration {
	return min(time.Duration(float64(current)*factor), limit)
}

// Run starts the workers, supervises them until ctx is cancelled, and
// shuts down. It returns an error only when the bootstrap fails.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}

	interval := m.config.MinInterval
	lastHeartbeat := m.clock.Now()
	for {
		select {
		case <-ctx.Done():
			m.Shutdown()
			return nil
		case <-m.clock.After(interval):
		}

		if m.Check() {
			if interval != m.config.MinInterval {
				m.logger.Info("all workers healthy; liveness interval reset", "interval", m.config.MinInterval)
			}
			interval = m.config.MinInterval
		} else {
			interval = NextInterval(interval, m.config.BackoffFactor, m.config.MaxInterval)
			m.logger.Warn("liveness check found a problem", "next_check", interval)
		}

		if now := m.clock.Now(); now.Sub(lastHeartbeat) >= m.config.HeartbeatInterval {
			m.logger.Info("supervisor running (heartbeat)", "interval", interval)
			lastHeartbeat = now
		}
	}
}

// Start fetches the controller credentials, builds the System and
// Reporter, and starts every worker.
func (m *Manager) Start(ctx context.Context) error {
	oob, err := m.config.OOB.FetchOOB(ctx)
	if err != nil {
		return fmt.Errorf("fetching controller credentials: %w", err)
	}
	m.logger.Info("controller credentials received", "host", oob.Addr, "port", oob.Port)

	m.ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))

	m.mu.Lock()
	m.oob = oob
	m.buildLocked()
	m.workers = []*worker{
		newWorker(WorkerSystem, m.runSystem, m.logger),
		newWorker(WorkerReporter, m.runReporter, m.logger),
	}
	if m.config.API != nil {
		m.workers = append(m.workers, newWorker(WorkerAPI, m.config.API, m.logger))
	}
	workers := m.workers
	m.mu.Unlock()

	for _, w := range workers {
		w.start(m.ctx)
	}
	return nil
}

// buildLocked constructs a fresh System and Reporter from the
// bootstrap. m.mu must be held for writing.
func (m *Manager) buildLocked() {
	params := m.config.System
	params.Host = m.oob.Addr
	params.Client = m.config.Connect(m.oob)
	m.sys = system.New(m.config.Vendor, params)

	reporterConfig := m.config.Reporter
	reporterConfig.Source = m.sys
	reporterConfig.Pusher = m.config.Pusher
	m.reporter = reporter.New(reporterConfig)
}

func (m *Manager) runSystem(ctx context.Context) error {
	return m.System().Run(ctx)
}

func (m *Manager) runReporter(ctx context.Context) error {
	m.mu.RLock()
	r := m.reporter
	m.mu.RUnlock()
	return r.Run(ctx)
}

// Check inspects every worker once. A worker that stopped cleanly is
// restarted; one that failed triggers [Manager.Reinitialize]. It
// reports whether every worker was running.
func (m *Manager) Check() bool {
	m.mu.RLock()
	workers := m.workers
	m.mu.RUnlock()

	healthy := true
	var failure error
	for _, w := range workers {
		finished, err := w.finished()
		if !finished {
			continue
		}
		healthy = false
		if err != nil {
			m.logger.Error("worker failed", "worker", w.name, "error", err)
			failure = errors.Join(failure, err)
			continue
		}
		m.logger.Warn("worker stopped unexpectedly; restarting", "worker", w.name)
		w.restarted()
		m.config.Metrics.WorkerRestarted(w.name, "stopped")
		w.start(m.ctx)
	}

	if failure != nil {
		m.Reinitialize()
	}
	return healthy
}

// Reinitialize stops every worker, logs out of the old System's
// session, builds a fresh System and Reporter, and restarts every
// worker.
func (m *Manager) Reinitialize() {
	m.logger.Warn("reinitializing the system")

	m.mu.RLock()
	workers := m.workers
	old := m.sys
	m.mu.RUnlock()

	for _, w := range workers {
		w.stop()
	}
	m.logout(old)

	m.mu.Lock()
	m.buildLocked()
	m.mu.Unlock()

	for _, w := range workers {
		w.restarted()
		m.config.Metrics.WorkerRestarted(w.name, "failed")
		w.start(m.ctx)
	}
}

// Shutdown stops controller traffic, stops every worker, and logs out.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	s := m.sys
	workers := m.workers
	m.mu.RUnlock()
	if s == nil {
		return
	}

	m.logger.Info("shutting down")
	s.SetPendingShutdown()
	for _, w := range workers {
		w.stop()
	}
	m.cancel()
	m.logout(s)
	m.oob.Password.Close()
	m.logger.Info("shutdown complete")
}

func (m *Manager) logout(s system.System) {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.ShutdownTimeout)
	defer cancel()
	if err := s.Logout(ctx); err != nil {
		m.logger.Warn("logout failed", "error", err)
	}
}

// System returns the current System. It changes on reinitialization.
func (m *Manager) System() system.System {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sys
}

// Health summarizes the workers and the current System.
func (m *Manager) Health() api.Health {
	m.mu.RLock()
	s := m.sys
	workers := m.workers
	m.mu.RUnlock()

	health := api.Health{Healthy: s != nil, Workers: make(map[string]api.WorkerStatus, len(workers))}
	if s != nil {
		health.SystemState = s.State().String()
		health.Flushed = s.Flushed()
	}
	for _, w := range workers {
		running, restarts, err := w.status()
		status := api.WorkerStatus{Running: running, Restarts: restarts}
		if err != nil {
			status.LastError = err.Error()
		}
		if !running {
			health.Healthy = false
		}
		health.Workers[w.name] = status
	}
	return health
}
