// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mgr

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http2"

	"github.com/bureau-foundation/node-proxy/lib/netutil"
	"github.com/bureau-foundation/node-proxy/lib/secret"
	"github.com/bureau-foundation/node-proxy/lib/version"
)

// Agent endpoint paths.
const (
	OOBPath  = "/node-proxy/oob"
	DataPath = "/node-proxy/data"
)

// DefaultOOBPort is used when the manager omits the controller port.
const DefaultOOBPort = "443"

// Identity is the cephx identity presented on every request.
type Identity struct {
	Name   string
	Secret *secret.Buffer
}

// MarshalJSON renders {"name", "secret"}. The secret leaves its buffer
// only for the duration of the encoding.
func (i Identity) MarshalJSON() ([]byte, error) {
	var value string
	if i.Secret != nil {
		value = i.Secret.String()
	}
	return json.Marshal(struct {
		Name   string `json:"name"`
		Secret string `json:"secret"`
	}{i.Name, value})
}

// Config configures a Client.
type Config struct {
	Host string
	Port string

	// RootCAs is the PEM bundle the manager's certificate must chain
	// to.
	RootCAs []byte

	Identity Identity

	// Timeout bounds each request. Default 30s.
	Timeout time.Duration

	Logger *slog.Logger
}

// Client is a manager agent-endpoint client.
type Client struct {
	base     string
	identity Identity
	http     *http.Client
	logger   *slog.Logger
}

// New builds a Client. The transport negotiates HTTP/2 when the
// manager offers it.
func New(config Config) (*Client, error) {
	if config.Host == "" || config.Port == "" {
		return nil, errors.New("manager host and port are required")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(config.RootCAs) {
		return nil, errors.New("manager CA bundle contains no certificates")
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 2,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("configuring HTTP/2: %w", err)
	}

	return &Client{
		base:     "https://" + net.JoinHostPort(config.Host, config.Port),
		identity: config.Identity,
		http:     &http.Client{Transport: transport, Timeout: config.Timeout},
		logger:   config.Logger,
	}, nil
}

// URL is the manager's base URL.
func (c *Client) URL() string { return c.base }

// StatusError is a non-2xx manager response.
type StatusError struct {
	Path      string
	Status    int
	RequestID string
	Body      string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("manager %s returned HTTP %d (request %s): %s", e.Path, e.Status, e.RequestID, e.Body)
}

// OOB is the controller access the manager hands out.
type OOB struct {
	Addr     string
	Port     string
	Username string
	Password *secret.Buffer
}

type oobResponse struct {
	Result struct {
		Addr     string `json:"addr"`
		Username string `json:"username"`
		Password string `json:"password"`
		Port     any    `json:"port"`
	} `json:"result"`
}

// FetchOOB requests the controller's address and credentials. The
// caller owns the returned Password and must Close it.
func (c *Client) FetchOOB(ctx context.Context) (*OOB, error) {
	body, err := c.post(ctx, OOBPath, map[string]any{"cephx": c.identity})
	if err != nil {
		return nil, err
	}
	var response oobResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", OOBPath, err)
	}
	result := response.Result
	if result.Addr == "" || result.Username == "" || result.Password == "" {
		return nil, fmt.Errorf("%s response lacks addr, username, or password", OOBPath)
	}

	port := DefaultOOBPort
	switch value := result.Port.(type) {
	case string:
		if value != "" {
			port = value
		}
	case float64:
		port = strconv.FormatFloat(value, 'f', -1, 64)
	}

	password, err := secret.FromString(result.Password)
	if err != nil {
		return nil, fmt.Errorf("protecting controller password: %w", err)
	}
	return &OOB{Addr: result.Addr, Port: port, Username: result.Username, Password: password}, nil
}

// Push delivers one snapshot as {cephx, patch}.
func (c *Client) Push(ctx context.Context, patch map[string]any) error {
	_, err := c.post(ctx, DataPath, map[string]any{"cephx": c.identity, "patch": patch})
	return err
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", path, err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("User-Agent", version.UserAgent())
	request.Header.Set("X-Request-Id", requestID)

	c.logger.Debug("manager request", "path", path, "request_id", requestID, "bytes", len(encoded))
	response, err := c.http.Do(request)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadBody(response.Body)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &StatusError{Path: path, Status: response.StatusCode, RequestID: requestID, Body: netutil.Snippet(body)}
	}
	return body, nil
}
