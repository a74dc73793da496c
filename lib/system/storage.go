// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/bureau-foundation/node-proxy/lib/extract"
)

// updateStorage collects drives. Each storage controller under
// systems/<id>/Storage links its drives through a Drives array; every
// drive is read and recorded with the spec's fields plus the drive's
// own URL (redfish_endpoint, used by drive LED operations) and the
// owning controller's name (entity).
func updateStorage(ctx context.Context, b *Base, c *component) (map[string]any, error) {
	spec := c.specs[0]
	root, err := b.graph.Root(spec.Collection)
	if err != nil {
		return map[string]any{}, err
	}

	out := map[string]any{}
	var errs []error
	for _, systemID := range slices.Sorted(maps.Keys(root.MemberURLs())) {
		member, err := root.Child(ctx, systemID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		storage, err := member.Resolve(ctx, spec.Path)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		drives := map[string]any{}
		for entity, raw := range storage.MembersData(ctx) {
			controller, ok := raw.(map[string]any)
			if !ok {
				errs = append(errs, fmt.Errorf("storage %s/%s is %T, not an object", systemID, entity, raw))
				continue
			}
			references, _ := controller["Drives"].([]any)
			for _, reference := range references {
				link, _ := reference.(map[string]any)
				url, _ := link["@odata.id"].(string)
				if url == "" {
					continue
				}
				data := b.graph.Fetch(ctx, url)
				if len(data) == 0 {
					errs = append(errs, fmt.Errorf("drive %s returned no data", url))
					continue
				}
				id, record := driveRecord(data, url, entity, spec.Fields)
				drives[id] = record
			}
		}
		out[systemID] = drives
	}
	return out, errors.Join(errs...)
}

func driveRecord(data map[string]any, url, entity string, fields []string) (string, map[string]any) {
	id, _ := data["Id"].(string)
	if id == "" {
		id = url[strings.LastIndex(strings.TrimRight(url, "/"), "/")+1:]
	}
	endpoint, _ := data["@odata.id"].(string)
	if endpoint == "" {
		endpoint = url
	}

	record := make(map[string]any, len(fields)+2)
	for _, field := range fields {
		record[extract.ToSnakeCase(field)] = extract.NormalizeValue(data[field])
	}
	record["redfish_endpoint"] = endpoint
	record["entity"] = entity
	return id, record
}

// driveEndpoint finds a drive's URL in the storage snapshot, searching
// every system.
func (b *Base) driveEndpoint(device string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	storage := b.sys["storage"]
	for _, systemID := range slices.Sorted(maps.Keys(storage)) {
		drives, _ := storage[systemID].(map[string]any)
		record, ok := drives[device].(map[string]any)
		if !ok {
			continue
		}
		if endpoint, ok := record["redfish_endpoint"].(string); ok && endpoint != "" {
			return endpoint, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownDevice, device)
}
