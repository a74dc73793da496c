// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redfish

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/stmcginnis/gofish"
	"github.com/stmcginnis/gofish/common"

	"github.com/bureau-foundation/node-proxy/lib/netutil"
	"github.com/bureau-foundation/node-proxy/lib/secret"
)

// GofishConfig addresses a controller.
type GofishConfig struct {
	Host     string
	Port     string
	Username string
	Password *secret.Buffer

	// Timeout bounds each request, including login.
	Timeout time.Duration

	// BasicAuth sends credentials on every request instead of
	// creating a session.
	BasicAuth bool

	Logger *slog.Logger
}

// GofishClient is the production Client.
type GofishClient struct {
	config GofishConfig
	http   *http.Client
	logger *slog.Logger

	mu  sync.Mutex
	api *gofish.APIClient
}

// NewGofishClient prepares a client. No connection is made until
// Login.
func NewGofishClient(config GofishConfig) *GofishClient {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transport := &http.Transport{
		// Controllers ship self-signed certificates and are reached on
		// the management network only.
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		TLSHandshakeTimeout: config.Timeout,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}
	return &GofishClient{
		config: config,
		http:   &http.Client{Transport: transport, Timeout: config.Timeout},
		logger: logger.With("controller", config.Host),
	}
}

// Endpoint is the controller's base URL.
func (c *GofishClient) Endpoint() string {
	port := c.config.Port
	if port == "" {
		port = "443"
	}
	return "https://" + net.JoinHostPort(c.config.Host, port)
}

func (c *GofishClient) Login(ctx context.Context) error {
	password := ""
	if c.config.Password != nil {
		password = c.config.Password.String()
	}
	// gofish binds the context passed here to every later request, so
	// it must outlive this call. Request lifetime is bounded by
	// http.Client.Timeout instead.
	api, err := gofish.ConnectContext(context.WithoutCancel(ctx), gofish.ClientConfig{
		Endpoint:   c.Endpoint(),
		Username:   c.config.Username,
		Password:   password,
		HTTPClient: c.http,
		BasicAuth:  c.config.BasicAuth,
	})
	if err != nil {
		return classify(http.MethodPost, "/redfish/v1/SessionService/Sessions", err)
	}

	c.mu.Lock()
	previous := c.api
	c.api = api
	c.mu.Unlock()
	if previous != nil {
		previous.Logout()
	}
	c.logger.Info("logged in to controller", "endpoint", c.Endpoint())
	return nil
}

func (c *GofishClient) Logout(ctx context.Context) error {
	c.mu.Lock()
	api := c.api
	c.api = nil
	c.mu.Unlock()
	if api == nil {
		return nil
	}
	api.Logout()
	c.logger.Info("logged out of controller")
	return nil
}

func (c *GofishClient) Query(ctx context.Context, method, path string, body any) (*Response, error) {
	c.mu.Lock()
	api := c.api
	c.mu.Unlock()
	if api == nil {
		return nil, &Error{Kind: KindAuth, Method: method, Path: path, Err: errors.New("not logged in")}
	}
	if err := ctx.Err(); err != nil {
		return nil, classify(method, path, err)
	}

	var response *http.Response
	var err error
	switch method {
	case http.MethodGet:
		response, err = api.Get(path)
	case http.MethodPost:
		response, err = api.Post(path, body)
	case http.MethodPatch:
		response, err = api.Patch(path, body)
	case http.MethodDelete:
		response, err = api.Delete(path)
	default:
		return nil, &Error{Kind: KindTransport, Method: method, Path: path, Err: fmt.Errorf("unsupported method")}
	}
	if err != nil {
		return nil, classify(method, path, err)
	}
	defer response.Body.Close()

	data, err := netutil.ReadBody(response.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Method: method, Path: path, Status: response.StatusCode, Err: err}
	}
	return &Response{Status: response.StatusCode, Header: response.Header, Body: data}, nil
}

// classify maps gofish and transport errors onto ErrorKind.
func classify(method, path string, err error) *Error {
	out := &Error{Kind: KindTransport, Method: method, Path: path, Err: err}

	var statusErr *common.Error
	if errors.As(err, &statusErr) {
		out.Status = statusErr.HTTPReturnedStatusCode
		out.Kind = KindStatus
		if out.Status == http.StatusUnauthorized || out.Status == http.StatusForbidden {
			out.Kind = KindAuth
		}
		return out
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		out.Kind = KindTimeout
	}
	return out
}
