// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnsupported is wrapped by every capability the active vendor
// implementation does not offer.
var ErrUnsupported = errors.New("operation not supported by this vendor implementation")

// ErrUnknownDevice is returned when a drive id is not in the snapshot.
var ErrUnknownDevice = errors.New("unknown device")

// Capabilities are the physical actions a controller may offer.
// Integer results are the controller's HTTP status.
type Capabilities interface {
	DeviceLEDOn(ctx context.Context, device string) (int, error)
	DeviceLEDOff(ctx context.Context, device string) (int, error)
	ChassisLEDOn(ctx context.Context) (int, error)
	ChassisLEDOff(ctx context.Context) (int, error)
	GetDeviceLED(ctx context.Context, device string) (LEDState, error)
	SetDeviceLED(ctx context.Context, device string, on bool) (int, error)
	GetChassisLED(ctx context.Context) (LEDState, error)
	SetChassisLED(ctx context.Context, indicator string) (int, error)
	Shutdown(ctx context.Context, force bool) (int, error)
	PowerCycle(ctx context.Context) (int, error)
	CreateRebootJob(ctx context.Context, rebootType string) (string, error)
	ScheduleRebootJob(ctx context.Context, jobID string) (int, error)
}

var (
	_ System = (*Base)(nil)
	_ System = (*Dell)(nil)
)

// LEDState is the indicator state read from the controller. Active is
// nil when the controller did not report it.
type LEDState struct {
	HTTPCode int   `json:"http_code"`
	Active   *bool `json:"LocationIndicatorActive"`
}

// System is one controller's collector.
type System interface {
	Capabilities
	sync.Locker

	// Vendor is the registry name of the implementation.
	Vendor() string

	// Host is the controller address.
	Host() string

	// Run logs in, discovers the resource graph, and runs update
	// cycles until ctx is cancelled (returning nil) or a fatal error
	// occurs (returning it, after logging out).
	Run(ctx context.Context) error

	// Update runs one cycle. Skipped when shutdown is pending.
	Update(ctx context.Context) error

	// Flush clears the snapshot and the delivery record.
	Flush()

	// Snapshot returns the assembled snapshot, taking the lock.
	Snapshot() map[string]any

	// Component returns one component's data, taking the lock.
	Component(name string) map[string]any

	// Serial returns the comma-joined serial numbers, taking the lock.
	Serial() string

	// ReadyLocked reports whether a complete cycle has populated the
	// snapshot since construction or the last Flush.
	ReadyLocked() bool

	// AssembleLocked builds the snapshot from memory. No requests.
	AssembleLocked() map[string]any

	// PreviousDataLocked is the last delivered snapshot, or nil.
	PreviousDataLocked() map[string]any

	// SetPreviousDataLocked records a delivered snapshot.
	SetPreviousDataLocked(map[string]any)

	// SetPendingShutdown stops new controller requests.
	SetPendingShutdown()
	PendingShutdown() bool

	// State and Flushed describe the polling state machine.
	State() State
	Flushed() bool

	// Logout ends the controller session.
	Logout(ctx context.Context) error
}

// State is the System's lifecycle position.
type State int32

const (
	Unstarted State = iota
	LoggingIn
	Discovering
	Polling
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case LoggingIn:
		return "logging_in"
	case Discovering:
		return "discovering"
	case Polling:
		return "polling"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// ComponentError is a failed component task. Logged; never returned
// from Update.
type ComponentError struct {
	Component string
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %s: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error { return e.Err }

// IdentityError is a failed serial-number refresh. It ends Run.
type IdentityError struct {
	Err error
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("refreshing system identity: %v", e.Err)
}

func (e *IdentityError) Unwrap() error { return e.Err }

func unsupported(operation string) error {
	return fmt.Errorf("%s: %w", operation, ErrUnsupported)
}
