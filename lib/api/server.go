// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Server serves the command API over TLS. Serve(ctx) blocks until the
// context is cancelled and in-flight requests drain.
type Server struct {
	address         string
	handler         http.Handler
	certificate     tls.Certificate
	logger          *slog.Logger
	shutdownTimeout time.Duration

	// ready is closed once the listener is first bound. Serve may be
	// called again after it returns.
	ready     chan struct{}
	readyOnce sync.Once
	addr      atomic.Pointer[net.Addr]
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// Address is the TCP listen address (":9456"). Required.
	Address string

	// Handler serves requests. Required.
	Handler http.Handler

	// CertificatePEM and KeyPEM are the listener's key pair. Required.
	CertificatePEM []byte
	KeyPEM         []byte

	// ShutdownTimeout bounds the drain after cancellation. Default
	// 10s.
	ShutdownTimeout time.Duration

	Logger *slog.Logger
}

// NewServer validates config and parses the key pair.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Address == "" {
		return nil, errors.New("api: listen address is required")
	}
	if config.Handler == nil {
		return nil, errors.New("api: handler is required")
	}
	certificate, err := tls.X509KeyPair(config.CertificatePEM, config.KeyPEM)
	if err != nil {
		return nil, fmt.Errorf("api: loading listener key pair: %w", err)
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Server{
		address:         config.Address,
		handler:         config.Handler,
		certificate:     certificate,
		logger:          config.Logger,
		shutdownTimeout: config.ShutdownTimeout,
		ready:           make(chan struct{}),
	}, nil
}

// Ready is closed once the server is bound and accepting connections.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr is the bound address. Valid after Ready is closed.
func (s *Server) Addr() net.Addr {
	if addr := s.addr.Load(); addr != nil {
		return *addr
	}
	return nil
}

// Serve accepts connections until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	addr := listener.Addr()
	s.addr.Store(&addr)
	s.readyOnce.Do(func() { close(s.ready) })

	server := &http.Server{
		Handler: s.handler,
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{s.certificate},
			MinVersion:   tls.VersionTLS12,
		},
		// Power actions wait on the controller, which may take most
		// of a request timeout to answer.
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	s.logger.Info("command API listening", "address", addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.ServeTLS(listener, "", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("command API shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("command API shutdown: %w", err)
	}
	s.logger.Info("command API stopped")
	return nil
}
