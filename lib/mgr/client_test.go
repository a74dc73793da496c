// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mgr

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/bureau-foundation/node-proxy/lib/secret"
)

type recorded struct {
	path    string
	header  http.Header
	payload map[string]any
}

// manager is a TLS test server recording every request.
type manager struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []recorded
}

func newManager(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *manager {
	t.Helper()
	m := &manager{}
	m.server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		m.mu.Lock()
		m.requests = append(m.requests, recorded{path: r.URL.Path, header: r.Header.Clone(), payload: payload})
		m.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(m.server.Close)
	return m
}

func (m *manager) client(t *testing.T) *Client {
	t.Helper()
	host, port, err := net.SplitHostPort(strings.TrimPrefix(m.server.URL, "https://"))
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	keyring, err := secret.FromString("AQBsecret==")
	if err != nil {
		t.Fatalf("secret.FromString: %v", err)
	}
	t.Cleanup(func() { keyring.Close() })
	client, err := New(Config{
		Host:     host,
		Port:     port,
		RootCAs:  pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: m.server.Certificate().Raw}),
		Identity: Identity{Name: "client.node-proxy.host1", Secret: keyring},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func (m *manager) last(t *testing.T) recorded {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		t.Fatal("no requests recorded")
	}
	return m.requests[len(m.requests)-1]
}

func TestFetchOOB(t *testing.T) {
	m := newManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"addr":"10.0.0.5","username":"root","password":"calvin","port":8443}}`))
	})
	oob, err := m.client(t).FetchOOB(context.Background())
	if err != nil {
		t.Fatalf("FetchOOB: %v", err)
	}
	defer oob.Password.Close()

	if oob.Addr != "10.0.0.5" || oob.Username != "root" || oob.Port != "8443" {
		t.Errorf("oob = %+v", oob)
	}
	if oob.Password.String() != "calvin" {
		t.Errorf("password = %q", oob.Password.String())
	}

	request := m.last(t)
	if request.path != OOBPath {
		t.Errorf("path = %q", request.path)
	}
	cephx, _ := request.payload["cephx"].(map[string]any)
	if cephx["name"] != "client.node-proxy.host1" || cephx["secret"] != "AQBsecret==" {
		t.Errorf("cephx = %v", request.payload["cephx"])
	}
	if request.header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", request.header.Get("Content-Type"))
	}
	if _, err := uuid.Parse(request.header.Get("X-Request-Id")); err != nil {
		t.Errorf("X-Request-Id %q: %v", request.header.Get("X-Request-Id"), err)
	}
}

func TestFetchOOBDefaultsPort(t *testing.T) {
	for _, body := range []string{
		`{"result":{"addr":"10.0.0.5","username":"root","password":"calvin"}}`,
		`{"result":{"addr":"10.0.0.5","username":"root","password":"calvin","port":""}}`,
	} {
		m := newManager(t, func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(body)) })
		oob, err := m.client(t).FetchOOB(context.Background())
		if err != nil {
			t.Fatalf("FetchOOB: %v", err)
		}
		oob.Password.Close()
		if oob.Port != DefaultOOBPort {
			t.Errorf("port = %q for %s", oob.Port, body)
		}
	}
}

func TestFetchOOBIncomplete(t *testing.T) {
	m := newManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"addr":"10.0.0.5"}}`))
	})
	if _, err := m.client(t).FetchOOB(context.Background()); err == nil {
		t.Fatal("FetchOOB accepted a response without credentials")
	}
}

func TestFetchOOBRejected(t *testing.T) {
	m := newManager(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no oob details for host", http.StatusNotFound)
	})
	_, err := m.client(t).FetchOOB(context.Background())
	var status *StatusError
	if !errors.As(err, &status) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if status.Status != http.StatusNotFound || !strings.Contains(status.Body, "no oob details") {
		t.Errorf("status error = %+v", status)
	}
	if status.RequestID != m.last(t).header.Get("X-Request-Id") {
		t.Errorf("request id %q does not match the sent header", status.RequestID)
	}
}

func TestPush(t *testing.T) {
	m := newManager(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	patch := map[string]any{"host": "10.0.0.5", "sn": "SN-1"}
	if err := m.client(t).Push(context.Background(), patch); err != nil {
		t.Fatalf("Push: %v", err)
	}

	request := m.last(t)
	if request.path != DataPath {
		t.Errorf("path = %q", request.path)
	}
	sent, _ := request.payload["patch"].(map[string]any)
	if sent["sn"] != "SN-1" {
		t.Errorf("patch = %v", request.payload["patch"])
	}
	if request.payload["cephx"] == nil {
		t.Error("cephx missing from data payload")
	}
}

func TestPushFailure(t *testing.T) {
	m := newManager(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	err := m.client(t).Push(context.Background(), map[string]any{})
	var status *StatusError
	if !errors.As(err, &status) || status.Status != http.StatusServiceUnavailable {
		t.Fatalf("error = %v, want a 503 StatusError", err)
	}
}

func TestNewRejectsEmptyBundle(t *testing.T) {
	if _, err := New(Config{Host: "127.0.0.1", Port: "7150", RootCAs: []byte("not a certificate")}); err == nil {
		t.Fatal("New accepted a bundle with no certificates")
	}
}

func TestNewRequiresAddress(t *testing.T) {
	if _, err := New(Config{Port: "7150"}); err == nil {
		t.Fatal("New accepted an empty host")
	}
}
