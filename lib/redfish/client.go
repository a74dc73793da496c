// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redfish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Client issues authenticated requests against one controller. Paths
// are absolute URL paths ("/redfish/v1/Systems"); the client owns the
// scheme, host, and port.
type Client interface {
	// Login establishes a session.
	Login(ctx context.Context) error

	// Logout ends the session. Safe to call without a session.
	Logout(ctx context.Context) error

	// Query sends body, JSON-encoded when non-nil, and returns the
	// response. Non-2xx statuses are returned as a *Error of kind
	// KindStatus or KindAuth.
	Query(ctx context.Context, method, path string, body any) (*Response, error)
}

// Response is a completed controller response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// ErrorKind classifies client failures. Callers branch on the kind,
// never on the underlying transport's error types.
type ErrorKind int

const (
	// KindTransport covers connection, TLS, and protocol failures.
	KindTransport ErrorKind = iota
	// KindTimeout is a request that exceeded its deadline.
	KindTimeout
	// KindAuth is a rejected or missing session (401, 403).
	KindAuth
	// KindStatus is any other non-2xx response.
	KindStatus
	// KindEmpty is a 2xx response with no body where one was needed.
	KindEmpty
	// KindDecode is a body that is not a JSON object.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindStatus:
		return "status"
	case KindEmpty:
		return "empty"
	case KindDecode:
		return "decode"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a failed controller request.
type Error struct {
	Kind   ErrorKind
	Method string
	Path   string
	Status int // zero unless the controller responded
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("redfish %s %s: %s (HTTP %d): %v", e.Method, e.Path, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("redfish %s %s: %s: %v", e.Method, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var redfishErr *Error
	if errors.As(err, &redfishErr) {
		return redfishErr.Kind, true
	}
	return 0, false
}

// DiscoveryError means the service root, or a root resource it lists,
// could not be read. The Graph is unusable until Discover succeeds.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering resources at %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// FetchError is a failed read of one resource.
type FetchError struct {
	Path string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Path, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

var (
	// ErrInvalidSegment rejects empty child names and names containing
	// a slash.
	ErrInvalidSegment = errors.New("invalid resource path segment")

	// ErrShuttingDown is returned instead of issuing a request once
	// shutdown is pending.
	ErrShuttingDown = errors.New("shutdown pending")

	// ErrUnknownRoot is returned by Graph.Root for undiscovered names.
	ErrUnknownRoot = errors.New("unknown root resource")
)
