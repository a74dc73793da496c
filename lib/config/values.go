// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Seconds is a duration written in YAML as a number of seconds or as a
// Go duration string.
type Seconds time.Duration

// Duration returns s as a time.Duration.
func (s Seconds) Duration() time.Duration { return time.Duration(s) }

func (s *Seconds) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected seconds, got a %s", node.Line, kindName(node.Kind))
	}
	if seconds, err := strconv.ParseFloat(node.Value, 64); err == nil {
		*s = Seconds(time.Duration(seconds * float64(time.Second)))
		return nil
	}
	d, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %q is neither seconds nor a duration", node.Line, node.Value)
	}
	*s = Seconds(d)
	return nil
}

// Level is a log level that accepts names (debug, info, warning,
// error, critical) or numeric levels (10 through 50).
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// Slog returns the equivalent slog level.
func (l Level) Slog() slog.Level { return slog.Level(l) }

func (l *Level) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a log level, got a %s", node.Line, kindName(node.Kind))
	}
	level, err := ParseLevel(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*l = level
	return nil
}

// ParseLevel parses a level name or a numeric level. Numeric levels
// round down to the nearest named level.
func ParseLevel(value string) (Level, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		switch {
		case n >= 40:
			return LevelError, nil
		case n >= 30:
			return LevelWarn, nil
		case n >= 20:
			return LevelInfo, nil
		default:
			return LevelDebug, nil
		}
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "critical", "fatal":
		return LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", value)
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	}
	return "document"
}
