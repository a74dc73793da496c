// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/node-proxy/lib/clock"
	"github.com/bureau-foundation/node-proxy/lib/extract"
	"github.com/bureau-foundation/node-proxy/lib/metrics"
	"github.com/bureau-foundation/node-proxy/lib/redfish"
)

// Params configures a System.
type Params struct {
	// Host is the controller address, reported in the snapshot.
	Host string

	Client  redfish.Client
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Clock   clock.Clock

	// RefreshInterval is the wait between update cycles. Default 20s.
	RefreshInterval time.Duration

	// RequestTimeout bounds each controller request. Default 30s.
	RequestTimeout time.Duration

	// Components selects what to collect. Empty means everything.
	Components []string

	// Overrides adjusts component specs, keyed by component name.
	// Vendor constructors merge their own overrides under these.
	Overrides map[string]extract.Override
}

// Base is the generic System. It collects every component and supports
// no capabilities. Vendor implementations embed it.
type Base struct {
	vendor     string
	host       string
	client     redfish.Client
	graph      *redfish.Graph
	logger     *slog.Logger
	metrics    *metrics.Metrics
	clock      clock.Clock
	refresh    time.Duration
	components []*component

	pending atomic.Bool
	state   atomic.Int32
	flushed atomic.Bool

	mu       sync.Mutex
	sys      map[string]map[string]any
	serial   string
	ready    bool
	previous map[string]any
}

// NewGeneric returns the generic System.
func NewGeneric(params Params) *Base {
	return newBase("generic", params, nil)
}

func newBase(vendor string, params Params, vendorOverrides map[string]extract.Override) *Base {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	if params.Clock == nil {
		params.Clock = clock.Real()
	}
	if params.RefreshInterval <= 0 {
		params.RefreshInterval = 20 * time.Second
	}
	logger := params.Logger.With("vendor", vendor, "host", params.Host)

	overrides := maps.Clone(vendorOverrides)
	if overrides == nil {
		overrides = map[string]extract.Override{}
	}
	maps.Copy(overrides, params.Overrides)

	b := &Base{
		vendor:     vendor,
		host:       params.Host,
		client:     params.Client,
		logger:     logger,
		metrics:    params.Metrics,
		clock:      params.Clock,
		refresh:    params.RefreshInterval,
		components: buildComponents(params.Components, overrides, logger),
		sys:        map[string]map[string]any{},
	}
	b.graph = redfish.NewGraph(params.Client, redfish.GraphConfig{
		Timeout: params.RequestTimeout,
		Pending: b.pending.Load,
		Logger:  logger,
		Metrics: params.Metrics,
	})
	logger.Info("redfish system initialized", "components", b.componentNames())
	return b
}

func (b *Base) componentNames() []string {
	names := make([]string, 0, len(b.components))
	for _, c := range b.components {
		names = append(names, c.name)
	}
	return names
}

func (b *Base) Vendor() string { return b.vendor }
func (b *Base) Host() string   { return b.host }

// Graph is the controller's resource graph.
func (b *Base) Graph() *redfish.Graph { return b.graph }

func (b *Base) Lock()   { b.mu.Lock() }
func (b *Base) Unlock() { b.mu.Unlock() }

func (b *Base) State() State  { return State(b.state.Load()) }
func (b *Base) Flushed() bool { return b.flushed.Load() }

func (b *Base) setState(s State) {
	previous := State(b.state.Swap(int32(s)))
	if previous != s {
		b.logger.Debug("system state changed", "from", previous, "to", s)
	}
}

func (b *Base) SetPendingShutdown() {
	b.pending.Store(true)
	b.logger.Info("shutdown pending; controller requests stopped")
}

func (b *Base) PendingShutdown() bool { return b.pending.Load() }

// Run logs in, discovers, and polls. See [System].
func (b *Base) Run(ctx context.Context) error {
	b.setState(LoggingIn)
	if err := b.client.Login(ctx); err != nil {
		b.setState(Stopped)
		return fmt.Errorf("logging in to %s: %w", b.host, err)
	}

	b.setState(Discovering)
	if err := b.graph.Discover(ctx); err != nil {
		b.setState(Stopping)
		b.logoutQuietly(ctx)
		b.setState(Stopped)
		return err
	}

	b.setState(Polling)
	for {
		if err := b.Update(ctx); err != nil {
			b.setState(Stopping)
			b.logger.Error("update cycle failed; logging out", "error", err)
			b.logoutQuietly(ctx)
			b.setState(Stopped)
			return err
		}
		select {
		case <-ctx.Done():
			b.setState(Stopped)
			return nil
		case <-b.clock.After(b.refresh):
		}
	}
}

// Update runs one cycle under the lock. See [System].
func (b *Base) Update(ctx context.Context) error {
	b.logger.Debug("waiting for the lock in the update loop")
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending.Load() {
		b.logger.Debug("shutdown pending; skipping update cycle")
		return nil
	}

	start := b.clock.Now()
	if err := b.refreshIdentityLocked(ctx); err != nil {
		if errors.Is(err, redfish.ErrShuttingDown) {
			return nil
		}
		b.metrics.CycleFinished(clock.Since(b.clock, start), false)
		return err
	}

	for name, data := range b.fanOut(ctx) {
		b.sys[name] = data
	}
	b.ready = true
	b.flushed.Store(false)

	elapsed := clock.Since(b.clock, start)
	b.metrics.CycleFinished(elapsed, true)
	b.metrics.SetDataReady(true)
	b.logger.Debug("update cycle finished", "duration", elapsed)
	return nil
}

// refreshIdentityLocked re-reads every system member strictly and
// records their joined serial numbers.
func (b *Base) refreshIdentityLocked(ctx context.Context) error {
	systems, err := b.graph.Root("systems")
	if err != nil {
		return &IdentityError{Err: err}
	}
	members, err := systems.ReadMemberURLs(ctx)
	if err != nil {
		return &IdentityError{Err: err}
	}

	serials := make([]string, 0, len(members))
	for _, name := range slices.Sorted(maps.Keys(members)) {
		data, err := b.graph.Get(ctx, members[name])
		if err != nil {
			return &IdentityError{Err: err}
		}
		if serial, ok := data["SerialNumber"].(string); ok && serial != "" {
			serials = append(serials, serial)
		}
	}
	b.serial = strings.Join(serials, ",")
	return nil
}

// fanOut runs every component concurrently and returns each one's
// data. Failed components map to whatever they produced, at least an
// empty map.
func (b *Base) fanOut(ctx context.Context) map[string]map[string]any {
	results := make([]map[string]any, len(b.components))
	var wg sync.WaitGroup
	for i, c := range b.components {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = b.runComponent(ctx, c)
		}()
	}
	wg.Wait()

	out := make(map[string]map[string]any, len(b.components))
	for i, c := range b.components {
		out[c.name] = results[i]
	}
	return out
}

func (b *Base) runComponent(ctx context.Context, c *component) (data map[string]any) {
	defer func() {
		if recovered := recover(); recovered != nil {
			b.componentFailed(&ComponentError{Component: c.name, Err: fmt.Errorf("panic: %v", recovered)})
			data = map[string]any{}
		}
	}()

	b.logger.Debug("updating component", "collector", c.name)
	data, err := c.update(ctx, b, c)
	if data == nil {
		data = map[string]any{}
	}
	if err != nil && !errors.Is(err, redfish.ErrShuttingDown) {
		b.componentFailed(&ComponentError{Component: c.name, Err: err})
	}
	return data
}

func (b *Base) componentFailed(err *ComponentError) {
	b.logger.Error("component update failed", "collector", err.Component, "error", err.Err)
	b.metrics.ComponentFailed(err.Component)
}

// Flush clears collected data and the delivery record.
func (b *Base) Flush() {
	b.logger.Debug("acquiring lock to flush data")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sys = map[string]map[string]any{}
	b.serial = ""
	b.previous = nil
	b.ready = false
	b.flushed.Store(true)
	b.metrics.SetDataReady(false)
	b.logger.Info("data flushed")
}

func (b *Base) ReadyLocked() bool { return b.ready }

func (b *Base) AssembleLocked() map[string]any {
	return map[string]any{
		"host": b.host,
		"sn":   b.serial,
		"status": map[string]any{
			"storage":    b.componentLocked("storage"),
			"processors": b.componentLocked("processors"),
			"network":    b.componentLocked("network"),
			"memory":     b.componentLocked("memory"),
			"power":      b.componentLocked("power"),
			"fans":       b.componentLocked("fans"),
		},
		"firmwares": b.componentLocked("firmwares"),
	}
}

func (b *Base) componentLocked(name string) map[string]any {
	if data, ok := b.sys[name]; ok {
		return data
	}
	return map[string]any{}
}

func (b *Base) PreviousDataLocked() map[string]any { return b.previous }

func (b *Base) SetPreviousDataLocked(data map[string]any) { b.previous = data }

func (b *Base) Snapshot() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.AssembleLocked()
}

func (b *Base) Component(name string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.componentLocked(name)
}

func (b *Base) Serial() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.serial
}

// Logout ends the controller session. It is not gated by the pending
// shutdown flag.
func (b *Base) Logout(ctx context.Context) error {
	if err := b.client.Logout(ctx); err != nil {
		return fmt.Errorf("logging out of %s: %w", b.host, err)
	}
	b.logger.Info("logged out of controller")
	return nil
}

func (b *Base) logoutQuietly(ctx context.Context) {
	if err := b.Logout(context.WithoutCancel(ctx)); err != nil {
		b.logger.Warn("logout failed", "error", err)
	}
}

func (b *Base) DeviceLEDOn(context.Context, string) (int, error) {
	return 0, unsupported("device LED on")
}

func (b *Base) DeviceLEDOff(context.Context, string) (int, error) {
	return 0, unsupported("device LED off")
}

func (b *Base) ChassisLEDOn(context.Context) (int, error) {
	return 0, unsupported("chassis LED on")
}

func (b *Base) ChassisLEDOff(context.Context) (int, error) {
	return 0, unsupported("chassis LED off")
}

func (b *Base) GetDeviceLED(context.Context, string) (LEDState, error) {
	return LEDState{}, unsupported("get device LED")
}

func (b *Base) SetDeviceLED(context.Context, string, bool) (int, error) {
	return 0, unsupported("set device LED")
}

func (b *Base) GetChassisLED(context.Context) (LEDState, error) {
	return LEDState{}, unsupported("get chassis LED")
}

func (b *Base) SetChassisLED(context.Context, string) (int, error) {
	return 0, unsupported("set chassis LED")
}

func (b *Base) Shutdown(context.Context, bool) (int, error) {
	return 0, unsupported("shutdown")
}

func (b *Base) PowerCycle(context.Context) (int, error) {
	return 0, unsupported("power cycle")
}

func (b *Base) CreateRebootJob(context.Context, string) (string, error) {
	return "", unsupported("create reboot job")
}

func (b *Base) ScheduleRebootJob(context.Context, string) (int, error) {
	return 0, unsupported("schedule reboot job")
}
