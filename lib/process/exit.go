// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit codes.
const (
	ExitOK = 0

	// ExitFailure covers runtime failures, including a bootstrap that
	// could not reach the manager.
	ExitFailure = 1

	// ExitConfig is an unreadable or invalid configuration input.
	ExitConfig = 2
)

// ConfigError marks err as a configuration failure for [ExitCode].
type ConfigError struct{ Err error }

func (e *ConfigError) Error() string { return e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// ExitCode maps the error returned by the entrypoint to a process exit
// code.
func ExitCode(err error) int {
	var configErr *ConfigError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &configErr):
		return ExitConfig
	default:
		return ExitFailure
	}
}

// Report writes "error: err" to w.
func Report(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}

// Fatal reports err on stderr and exits with [ExitCode]. Use it in
// main() for errors from run() where the structured logger may not be
// initialized.
func Fatal(err error) {
	Report(os.Stderr, err)
	os.Exit(ExitCode(err))
}
