// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"regexp"
	"strings"
)

// Unknown stands in for values the controller did not report, whether
// the field was absent or explicitly null.
const Unknown = "unknown"

var (
	wordBoundary = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	caseBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// ToSnakeCase converts a Redfish property name to snake_case:
// "CapacityMiB" becomes "capacity_mi_b", "SpeedMbps" "speed_mbps".
// Already snake_cased input is returned unchanged.
func ToSnakeCase(name string) string {
	name = wordBoundary.ReplaceAllString(name, "${1}_${2}")
	name = caseBoundary.ReplaceAllString(name, "${1}_${2}")
	return strings.ToLower(name)
}

// Normalize returns a copy of record with every mapping key at every
// depth snake_cased and every nil replaced by Unknown. Normalizing a
// normalized record is a no-op.
func Normalize(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for key, value := range record {
		out[ToSnakeCase(key)] = NormalizeValue(value)
	}
	return out
}

// NormalizeValue applies Normalize to maps, recurses into arrays, and
// maps nil to Unknown. Scalars pass through.
func NormalizeValue(value any) any {
	switch typed := value.(type) {
	case nil:
		return Unknown
	case map[string]any:
		return Normalize(typed)
	case []any:
		out := make([]any, len(typed))
		for index, element := range typed {
			out[index] = NormalizeValue(element)
		}
		return out
	default:
		return value
	}
}
