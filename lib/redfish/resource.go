// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redfish

import (
	"context"
	"strings"
	"sync"
)

// Resource is one node of the graph. Its data is the payload read when
// the node was first reached and is never modified. Only nodes that
// loaded data are cached; a failed read is retried on the next access.
type Resource struct {
	graph *Graph
	url   string
	data  map[string]any

	mu       sync.Mutex
	children map[string]*Resource
}

// URL is the resource's path.
func (r *Resource) URL() string { return r.url }

// Data is the payload read when the resource was first reached. Callers
// must not modify it.
func (r *Resource) Data() map[string]any { return r.data }

// Name is the last segment of the resource's URL.
func (r *Resource) Name() string { return lastSegment(r.url) }

// ID is the payload's Id, else the last segment of its @odata.id,
// else Name.
func (r *Resource) ID() string {
	if id, ok := r.data["Id"].(string); ok && id != "" {
		return id
	}
	if reference, ok := r.data["@odata.id"].(string); ok && reference != "" {
		return lastSegment(reference)
	}
	return r.Name()
}

// IsCollection reports whether the payload has a Members array.
func (r *Resource) IsCollection() bool { return isCollection(r.data) }

func isCollection(data map[string]any) bool {
	_, ok := data["Members"].([]any)
	return ok
}

// MemberNames lists the last URL segment of every member reference.
func (r *Resource) MemberNames() []string {
	var names []string
	for _, url := range memberReferences(r.data) {
		names = append(names, lastSegment(url))
	}
	return names
}

func memberReferences(data map[string]any) []string {
	members, _ := data["Members"].([]any)
	var urls []string
	for _, member := range members {
		reference, _ := member.(map[string]any)
		if url, ok := reference["@odata.id"].(string); ok && url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}

// MemberURLs maps member name to URL, keeping only members under the
// same top-level resource as r. Controllers occasionally list members
// that live elsewhere in the tree (a Chassis collection pointing into
// Systems); those are dropped.
func (r *Resource) MemberURLs() map[string]string {
	return r.filterMembers(r.data)
}

// ReadMemberURLs re-reads the collection strictly and returns its
// filtered members as MemberURLs does. The cached Data is unchanged.
func (r *Resource) ReadMemberURLs(ctx context.Context) (map[string]string, error) {
	data, err := r.graph.Get(ctx, r.url)
	if err != nil {
		return nil, err
	}
	return r.filterMembers(data), nil
}

func (r *Resource) filterMembers(data map[string]any) map[string]string {
	base := r.basePath()
	out := map[string]string{}
	for _, url := range memberReferences(data) {
		if base != "" && !strings.HasPrefix(url, base) {
			r.graph.logger.Warn("skipping member outside collection", "member", url, "collection", r.url, "base", base)
			continue
		}
		out[lastSegment(url)] = url
	}
	return out
}

// basePath is the prefix plus the first segment after it:
// /redfish/v1/Systems for /redfish/v1/Systems/1/Memory.
func (r *Resource) basePath() string {
	prefix := r.graph.prefix
	_, rest, found := strings.Cut(r.url, prefix)
	if !found {
		return ""
	}
	first, _, _ := strings.Cut(rest, "/")
	return prefix + first
}

// Child returns the resource at <url>/<segment>, fetching it on first
// access. A child whose read failed is returned with empty data and is
// not cached.
func (r *Resource) Child(ctx context.Context, segment string) (*Resource, error) {
	if segment == "" || strings.Contains(segment, "/") {
		return nil, &FetchError{Path: r.url + "/" + segment, Err: ErrInvalidSegment}
	}

	r.mu.Lock()
	child, ok := r.children[segment]
	r.mu.Unlock()
	if ok {
		return child, nil
	}

	url := strings.TrimRight(r.url, "/") + "/" + segment
	loaded := r.graph.newResource(url, r.graph.Fetch(ctx, url))
	if len(loaded.data) == 0 {
		r.graph.logger.Warn("no data loaded for resource", "path", url)
		return loaded, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// A concurrent caller may have won the race; keep the first.
	if existing, ok := r.children[segment]; ok {
		return existing, nil
	}
	r.children[segment] = loaded
	return loaded, nil
}

// Resolve walks path below r, one Child per non-empty segment.
func (r *Resource) Resolve(ctx context.Context, path string) (*Resource, error) {
	current := r
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		next, err := current.Child(ctx, segment)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// Children lists cached child segments.
func (r *Resource) Children() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.children))
	for name := range r.children {
		names = append(names, name)
	}
	return names
}

// Refresh re-reads the resource and returns the fresh payload, empty
// on failure. The cached Data is unchanged.
func (r *Resource) Refresh(ctx context.Context) map[string]any {
	return r.graph.Fetch(ctx, r.url)
}

// MembersData returns freshly read payloads keyed by member name. A
// collection whose members were all filtered out, or a plain resource,
// yields {Name: payload}. An empty collection yields an empty map. A
// node without a Members array is re-read first, and is treated as a
// collection if the fresh payload has one.
func (r *Resource) MembersData(ctx context.Context) map[string]any {
	data := r.data
	if !isCollection(data) {
		data = r.Refresh(ctx)
		if len(data) == 0 {
			r.graph.logger.Warn("resource has no members and no data", "path", r.url)
			return map[string]any{}
		}
		if !isCollection(data) {
			return map[string]any{r.Name(): data}
		}
	}

	out := map[string]any{}
	if len(memberReferences(data)) == 0 {
		return out
	}
	members := r.filterMembers(data)
	if len(members) == 0 {
		r.graph.logger.Warn("no members left after filtering; using the collection itself", "path", r.url)
		out[r.Name()] = data
		return out
	}
	for name, url := range members {
		out[name] = r.graph.Fetch(ctx, url)
	}
	return out
}

func lastSegment(url string) string {
	trimmed := strings.TrimRight(url, "/")
	return trimmed[strings.LastIndex(trimmed, "/")+1:]
}
