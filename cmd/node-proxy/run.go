// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bureau-foundation/node-proxy/lib/api"
	"github.com/bureau-foundation/node-proxy/lib/clock"
	"github.com/bureau-foundation/node-proxy/lib/config"
	"github.com/bureau-foundation/node-proxy/lib/logging"
	"github.com/bureau-foundation/node-proxy/lib/metrics"
	"github.com/bureau-foundation/node-proxy/lib/mgr"
	"github.com/bureau-foundation/node-proxy/lib/process"
	"github.com/bureau-foundation/node-proxy/lib/reporter"
	"github.com/bureau-foundation/node-proxy/lib/secret"
	"github.com/bureau-foundation/node-proxy/lib/supervisor"
	"github.com/bureau-foundation/node-proxy/lib/system"
	"github.com/bureau-foundation/node-proxy/lib/version"
)

// loadConfig reads the bootstrap document and the tuning file it
// names.
func loadConfig(opts options) (*config.Bootstrap, *config.Config, error) {
	bootstrap, err := config.LoadBootstrap(opts.configPath)
	if err != nil {
		return nil, nil, &process.ConfigError{Err: err}
	}
	cfg, err := config.LoadFile(bootstrap.ConfigPath())
	if err != nil {
		return nil, nil, &process.ConfigError{Err: err}
	}
	if opts.debug {
		cfg.Logging.Level = config.LevelDebug
	}
	return bootstrap, cfg, nil
}

func run(ctx context.Context, opts options) error {
	bootstrap, cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := logging.Stderr(cfg.Logging.Format, cfg.Logging.Level.Slog())
	logger.Info("node-proxy starting",
		"version", version.Info(),
		"vendor", cfg.System.Vendor,
		"manager", bootstrap.TargetIP,
		"tuning", bootstrap.ConfigPath(),
	)

	keyring, err := secret.FromString(bootstrap.Keyring)
	if err != nil {
		return fmt.Errorf("protecting the cephx secret: %w", err)
	}
	defer keyring.Close()
	if !keyring.Locked() {
		logger.Warn("cephx secret could not be locked in memory")
	}

	registry := metrics.New()

	manager, err := mgr.New(mgr.Config{
		Host:     bootstrap.TargetIP,
		Port:     bootstrap.TargetPort,
		RootCAs:  []byte(bootstrap.RootCertPEM),
		Identity: mgr.Identity{Name: bootstrap.Name, Secret: keyring},
		Timeout:  cfg.System.RequestTimeout.Duration(),
		Logger:   logger.With("component", "mgr"),
	})
	if err != nil {
		return &process.ConfigError{Err: err}
	}

	var server *api.Server
	supervised, err := supervisor.New(supervisor.Config{
		OOB:    manager,
		Pusher: manager,
		Vendor: cfg.System.Vendor,
		System: system.Params{
			Logger:          logger.With("component", "system"),
			Metrics:         registry,
			Clock:           clock.Real(),
			RefreshInterval: cfg.System.RefreshInterval.Duration(),
			RequestTimeout:  cfg.System.RequestTimeout.Duration(),
			Components:      cfg.System.Components,
		},
		Reporter: reporter.Config{
			CheckInterval:     cfg.Reporter.CheckInterval.Duration(),
			MaxRetries:        cfg.Reporter.PushDataMaxRetries,
			RetryDelay:        cfg.Reporter.RetryDelay.Duration(),
			HeartbeatInterval: cfg.Reporter.HeartbeatInterval.Duration(),
			Clock:             clock.Real(),
			Logger:            logger.With("component", "reporter"),
			Metrics:           registry,
		},
		API: func(ctx context.Context) error {
			return server.Serve(ctx)
		},
		MinInterval:       cfg.Supervisor.MinInterval.Duration(),
		MaxInterval:       cfg.Supervisor.MaxInterval.Duration(),
		BackoffFactor:     cfg.Supervisor.BackoffFactor,
		HeartbeatInterval: cfg.Supervisor.HeartbeatInterval.Duration(),
		Clock:             clock.Real(),
		Logger:            logger.With("component", "supervisor"),
		Metrics:           registry,
	})
	if err != nil {
		return err
	}

	handler, err := api.NewHandler(api.Config{
		Backend: supervised,
		Name:    bootstrap.Name,
		Secret:  keyring,
		Metrics: registry,
		Logger:  logger.With("component", "api"),
	})
	if err != nil {
		return err
	}
	server, err = api.NewServer(api.ServerConfig{
		Address:        ":" + strconv.Itoa(cfg.API.Port),
		Handler:        handler,
		CertificatePEM: []byte(bootstrap.ListenerCert),
		KeyPEM:         []byte(bootstrap.ListenerKey),
		Logger:         logger.With("component", "api"),
	})
	if err != nil {
		return &process.ConfigError{Err: err}
	}

	if err := supervised.Run(ctx); err != nil {
		return err
	}
	logger.Info("node-proxy stopped")
	return nil
}
