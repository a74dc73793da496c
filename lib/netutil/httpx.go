// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds bounded HTTP body helpers shared by the
// controller client and the manager client. Every response body read in
// node-proxy goes through ReadBody so that a misbehaving controller
// cannot exhaust memory.
package netutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxBodySize bounds response reads. The largest legitimate payloads
// are firmware inventories of a few hundred kilobytes.
const MaxBodySize int64 = 32 << 20

// ErrBodyTooLarge is returned when a body exceeds MaxBodySize.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// ReadBody reads at most MaxBodySize bytes.
func ReadBody(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(data)) > MaxBodySize {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// DecodeObject decodes data as a JSON object. Numbers decode as
// float64.
func DecodeObject(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("response body is not a JSON object")
	}
	var object map[string]any
	if err := json.Unmarshal(trimmed, &object); err != nil {
		return nil, err
	}
	return object, nil
}

// Snippet returns the start of body for error messages.
func Snippet(body []byte) string {
	const limit = 512
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
