// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/node-proxy/lib/process"
	"github.com/bureau-foundation/node-proxy/lib/version"
)

type options struct {
	configPath  string
	debug       bool
	showVersion bool
}

func (o *options) register(flags *pflag.FlagSet) {
	flags.StringVar(&o.configPath, "config", "", "path to the cephadm bootstrap document (required)")
	flags.BoolVar(&o.debug, "debug", false, "log at debug level regardless of the tuning file")
	flags.BoolVar(&o.showVersion, "version", false, "print version information and exit")
}

func newRootCommand(stdout io.Writer) *cobra.Command {
	var opts options
	command := &cobra.Command{
		Use:           "node-proxy --config <bootstrap.json>",
		Short:         "Relay baseboard controller health to the cluster manager",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintln(stdout, version.Full())
				return nil
			}
			if opts.configPath == "" {
				return &process.ConfigError{Err: errors.New("--config is required")}
			}
			return run(cmd.Context(), opts)
		},
	}
	command.SetOut(stdout)
	opts.register(command.Flags())
	return command
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		process.Fatal(err)
	}
}
