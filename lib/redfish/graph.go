// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redfish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/node-proxy/lib/extract"
	"github.com/bureau-foundation/node-proxy/lib/metrics"
	"github.com/bureau-foundation/node-proxy/lib/netutil"
)

// DefaultPrefix is the Redfish service root.
const DefaultPrefix = "/redfish/v1/"

// GraphConfig configures a Graph.
type GraphConfig struct {
	// Prefix is the service-root path. Default DefaultPrefix.
	Prefix string

	// Timeout bounds each request. Requests are detached from the
	// caller's cancellation so that a shutdown never leaves a
	// half-read response; Timeout is their only bound.
	Timeout time.Duration

	// Pending reports whether shutdown has begun. No new request is
	// issued once it returns true.
	Pending func() bool

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Graph is the discovered resource tree of one controller.
type Graph struct {
	client  Client
	prefix  string
	timeout time.Duration
	pending func() bool
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu         sync.RWMutex
	roots      map[string]*Resource
	sessionURL string
}

// NewGraph returns an undiscovered Graph.
func NewGraph(client Client, config GraphConfig) *Graph {
	if config.Prefix == "" {
		config.Prefix = DefaultPrefix
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Pending == nil {
		config.Pending = func() bool { return false }
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Graph{
		client:  client,
		prefix:  config.Prefix,
		timeout: config.Timeout,
		pending: config.Pending,
		logger:  config.Logger,
		metrics: config.Metrics,
		roots:   map[string]*Resource{},
	}
}

// Discover reads the service root and registers one root resource per
// referenced top-level resource. Root resources are fetched eagerly and
// strictly: a root that cannot be read fails discovery. On failure the
// previous table is kept and a *DiscoveryError returned.
func (g *Graph) Discover(ctx context.Context) error {
	root, err := g.Get(ctx, g.prefix)
	if err != nil {
		g.logger.Error("resource discovery failed", "path", g.prefix, "error", err)
		return &DiscoveryError{Path: g.prefix, Err: err}
	}

	roots := map[string]*Resource{}
	for key, value := range root {
		reference, ok := value.(map[string]any)
		if !ok {
			continue
		}
		url, ok := reference["@odata.id"].(string)
		if !ok || url == "" {
			continue
		}
		name := extract.ToSnakeCase(key)
		g.logger.Info("root resource found", "name", name, "path", url)
		data, err := g.Get(ctx, url)
		if err != nil {
			g.logger.Error("root resource could not be read", "name", name, "path", url, "error", err)
			return &DiscoveryError{Path: url, Err: err}
		}
		roots[name] = g.newResource(url, data)
	}

	sessionURL := sessionReference(root)
	if sessionURL == "" {
		g.logger.Warn("service root has no session collection reference", "path", g.prefix)
	}

	g.mu.Lock()
	g.roots = roots
	g.sessionURL = sessionURL
	g.mu.Unlock()
	return nil
}

func sessionReference(root map[string]any) string {
	links, _ := root["Links"].(map[string]any)
	sessions, _ := links["Sessions"].(map[string]any)
	url, _ := sessions["@odata.id"].(string)
	return url
}

// Root returns a discovered root resource.
func (g *Graph) Root(name string) (*Resource, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	root, ok := g.roots[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (discovered: %v)", ErrUnknownRoot, name, g.namesLocked())
	}
	return root, nil
}

// Names lists discovered roots, sorted.
func (g *Graph) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.namesLocked()
}

func (g *Graph) namesLocked() []string {
	names := make([]string, 0, len(g.roots))
	for name := range g.roots {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SessionURL is the service root's session collection, or "".
func (g *Graph) SessionURL() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sessionURL
}

// Get fetches path and decodes it as a JSON object, returning every
// failure.
func (g *Graph) Get(ctx context.Context, path string) (map[string]any, error) {
	response, err := g.Query(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(response.Body))) == 0 {
		return nil, g.failed(&Error{Kind: KindEmpty, Method: http.MethodGet, Path: path, Status: response.Status, Err: errors.New("empty body")})
	}
	object, err := netutil.DecodeObject(response.Body)
	if err != nil {
		return nil, g.failed(&Error{Kind: KindDecode, Method: http.MethodGet, Path: path, Status: response.Status, Err: err})
	}
	return object, nil
}

// Fetch is Get for best-effort callers: failures are logged and an
// empty map is returned.
func (g *Graph) Fetch(ctx context.Context, path string) map[string]any {
	object, err := g.Get(ctx, path)
	if err != nil {
		if !errors.Is(err, ErrShuttingDown) {
			g.logger.Warn("resource fetch failed", "error", &FetchError{Path: path, Err: err})
		}
		return map[string]any{}
	}
	return object
}

// Query sends one request under the graph's timeout and shutdown gate.
// Used directly by capability operations that PATCH or POST.
func (g *Graph) Query(ctx context.Context, method, path string, body any) (*Response, error) {
	if g.pending() {
		return nil, ErrShuttingDown
	}
	requestCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	g.logger.Debug("controller request", "method", method, "path", path)
	response, err := g.client.Query(requestCtx, method, path, body)
	if err != nil {
		return nil, g.failed(err)
	}
	return response, nil
}

func (g *Graph) failed(err error) error {
	kind, ok := KindOf(err)
	if !ok {
		kind = KindTransport
	}
	g.metrics.FetchFailed(kind.String())
	return err
}

func (g *Graph) newResource(url string, data map[string]any) *Resource {
	return &Resource{
		graph:    g,
		url:      url,
		data:     data,
		children: map[string]*Resource{},
	}
}
