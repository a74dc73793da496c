// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"fmt"
	"strconv"
)

// Records maps instance id to normalized field map.
type Records map[string]map[string]any

// Project selects fields from raw. With attribute empty, raw maps
// instance id to instance object. Otherwise raw[attribute] must be an
// array of instance objects identified by MemberId, then Id, then
// array position.
func Project(raw map[string]any, fields []string, attribute string) (Records, error) {
	if attribute == "" {
		out := make(Records, len(raw))
		for id, value := range raw {
			instance, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("instance %q is %T, not an object", id, value)
			}
			out[id] = selectFields(instance, fields)
		}
		return out, nil
	}

	value, ok := raw[attribute]
	if !ok {
		return nil, fmt.Errorf("attribute %q not present", attribute)
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("attribute %q is %T, not an array", attribute, value)
	}
	out := make(Records, len(items))
	for index, item := range items {
		instance, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is %T, not an object", attribute, index, item)
		}
		out[instanceID(instance, index)] = selectFields(instance, fields)
	}
	return out, nil
}

func selectFields(instance map[string]any, fields []string) map[string]any {
	record := make(map[string]any, len(fields))
	for _, field := range fields {
		record[ToSnakeCase(field)] = NormalizeValue(instance[field])
	}
	return record
}

func instanceID(instance map[string]any, index int) string {
	for _, key := range []string{"MemberId", "Id"} {
		switch id := instance[key].(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		}
	}
	return strconv.Itoa(index)
}

// Flatten drops the per-system layer of a {system: records} map when
// exactly one system is present.
func Flatten(bySystem map[string]Records) map[string]any {
	if len(bySystem) == 1 {
		for _, records := range bySystem {
			return records.Any()
		}
	}
	out := make(map[string]any, len(bySystem))
	for system, records := range bySystem {
		out[system] = records.Any()
	}
	return out
}

// Any converts r to a generic map for JSON and CBOR encoding.
func (r Records) Any() map[string]any {
	out := make(map[string]any, len(r))
	for id, record := range r {
		out[id] = record
	}
	return out
}
