// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package redfishtest provides an in-memory controller for tests.
package redfishtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/bureau-foundation/node-proxy/lib/redfish"
)

// Call is one recorded request.
type Call struct {
	Method string
	Path   string
	Body   any
}

// Controller implements redfish.Client from a table of GET payloads.
// Paths match with or without a trailing slash.
type Controller struct {
	mu        sync.Mutex
	resources map[string]string
	errors    map[string]error
	handlers  map[string]func(Call) (*redfish.Response, error)
	calls     []Call
	logins    int
	logouts   int
	loginErr  error
}

// New returns a controller with no resources.
func New() *Controller {
	return &Controller{
		resources: map[string]string{},
		errors:    map[string]error{},
		handlers:  map[string]func(Call) (*redfish.Response, error){},
	}
}

// Set serves body for GET path. body may be a string of JSON or any
// value, which is marshaled.
func (c *Controller) Set(path string, body any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources[normalize(path)] = encode(body)
	delete(c.errors, normalize(path))
}

// Fail makes every request to path return err. A nil err fails with
// an HTTP 500 status error.
func (c *Controller) Fail(path string, err error) {
	if err == nil {
		err = &redfish.Error{Kind: redfish.KindStatus, Method: http.MethodGet, Path: path, Status: http.StatusInternalServerError, Err: errors.New("internal error")}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[normalize(path)] = err
}

// Handle installs a handler for method on path, overriding the table.
func (c *Controller) Handle(method, path string, handler func(Call) (*redfish.Response, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method+" "+normalize(path)] = handler
}

// FailLogin makes Login return err.
func (c *Controller) FailLogin(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loginErr = err
}

func (c *Controller) Login(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logins++
	return c.loginErr
}

func (c *Controller) Logout(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logouts++
	return nil
}

func (c *Controller) Query(ctx context.Context, method, path string, body any) (*redfish.Response, error) {
	call := Call{Method: method, Path: path, Body: body}
	key := normalize(path)

	c.mu.Lock()
	c.calls = append(c.calls, call)
	handler := c.handlers[method+" "+key]
	err := c.errors[key]
	resource, found := c.resources[key]
	c.mu.Unlock()

	if handler != nil {
		return handler(call)
	}
	if err != nil {
		return nil, err
	}
	if method != http.MethodGet {
		return &redfish.Response{Status: http.StatusNoContent, Header: http.Header{}}, nil
	}
	if !found {
		return nil, &redfish.Error{Kind: redfish.KindStatus, Method: method, Path: path, Status: http.StatusNotFound, Err: errors.New("not found")}
	}
	return &redfish.Response{Status: http.StatusOK, Header: http.Header{}, Body: []byte(resource)}, nil
}

// Calls returns every recorded request.
func (c *Controller) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Count returns how many requests hit method and path.
func (c *Controller) Count(method, path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Method == method && normalize(call.Path) == normalize(path) {
			n++
		}
	}
	return n
}

// Logins and Logouts count session operations.
func (c *Controller) Logins() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logins
}

func (c *Controller) Logouts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logouts
}

// Reset forgets recorded calls.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

func normalize(path string) string {
	if path == "/" {
		return path
	}
	return strings.TrimRight(path, "/")
}

func encode(body any) string {
	if s, ok := body.(string); ok {
		return s
	}
	data, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("redfishtest: marshaling body: %v", err))
	}
	return string(data)
}
