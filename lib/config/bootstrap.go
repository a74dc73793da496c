// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/tidwall/jsonc"
)

// bootstrapKeys are the keys cephadm must write.
var bootstrapKeys = []string{
	"target_ip",
	"target_port",
	"keyring",
	"root_cert.pem",
	"listener.crt",
	"listener.key",
	"name",
}

// Bootstrap is the deployment document cephadm hands to node-proxy.
type Bootstrap struct {
	// TargetIP and TargetPort address the manager's agent endpoint.
	TargetIP   string
	TargetPort string

	// Name and Keyring form the cephx identity presented to the
	// manager and required on the command API.
	Name    string
	Keyring string

	// RootCertPEM is the CA bundle the manager endpoint chains to.
	RootCertPEM string

	// ListenerCert and ListenerKey are the PEM pair served by the
	// command API.
	ListenerCert string
	ListenerKey  string

	// TuningPath is the node_proxy_config key, empty when absent.
	TuningPath string
}

// LoadBootstrap reads and validates the bootstrap document. Comments
// and trailing commas are tolerated.
func LoadBootstrap(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	bootstrap, err := ParseBootstrap(data)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return bootstrap, nil
}

// ParseBootstrap decodes a bootstrap document.
func ParseBootstrap(data []byte) (*Bootstrap, error) {
	var raw map[string]json.RawMessage
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("bootstrap document must be a JSON object: %w", err)
	}

	var missing []error
	for _, key := range bootstrapKeys {
		if _, ok := raw[key]; !ok {
			missing = append(missing, fmt.Errorf("missing required key %q", key))
		}
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	var b Bootstrap
	fields := []struct {
		key  string
		dest *string
	}{
		{"target_ip", &b.TargetIP},
		{"target_port", &b.TargetPort},
		{"keyring", &b.Keyring},
		{"root_cert.pem", &b.RootCertPEM},
		{"listener.crt", &b.ListenerCert},
		{"listener.key", &b.ListenerKey},
		{"name", &b.Name},
		{"node_proxy_config", &b.TuningPath},
	}
	for _, field := range fields {
		value, ok := raw[field.key]
		if !ok {
			continue
		}
		text, err := scalarString(value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", field.key, err)
		}
		*field.dest = text
	}
	return &b, nil
}

// ConfigPath resolves the tuning file location: the bootstrap
// document's node_proxy_config, else NODE_PROXY_CONFIG, else
// [DefaultPath].
func (b *Bootstrap) ConfigPath() string {
	if b.TuningPath != "" {
		return b.TuningPath
	}
	if path := os.Getenv("NODE_PROXY_CONFIG"); path != "" {
		return path
	}
	return DefaultPath
}

// scalarString accepts a JSON string, number, or null. Ports arrive as
// either strings or numbers depending on the cephadm release.
func scalarString(value json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(value, &n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return n.String(), nil
		}
	}
	if string(bytes.TrimSpace(value)) == "null" {
		return "", nil
	}
	return "", fmt.Errorf("expected a string or number, got %s", value)
}
