// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"slices"
	"strings"
)

// Spec locates one source of component data.
type Spec struct {
	// Collection is the snake_case name of a discovered root
	// resource, such as "systems" or "chassis".
	Collection string

	// Path is resolved below each member of Collection. It may span
	// several segments ("PowerSubsystem/PowerSupplies").
	Path string

	// Fields are the source field names to project.
	Fields []string

	// Attribute, when set, names the array inside the resolved
	// resource that holds the instances.
	Attribute string
}

// Override is a partial Spec. Nil pointers and a nil Fields slice
// leave the corresponding base value in place.
type Override struct {
	Collection *string
	Path       *string
	Fields     []string
	Attribute  *string
}

// With returns a copy of s with o's set fields replacing s's.
func (s Spec) With(o Override) Spec {
	out := s
	out.Fields = slices.Clone(s.Fields)
	if o.Collection != nil {
		out.Collection = *o.Collection
	}
	if o.Path != nil {
		out.Path = *o.Path
	}
	if o.Fields != nil {
		out.Fields = slices.Clone(o.Fields)
	}
	if o.Attribute != nil {
		out.Attribute = *o.Attribute
	}
	return out
}

// Segments splits Path, skipping empty segments.
func (s Spec) Segments() []string {
	var segments []string
	for _, segment := range strings.Split(s.Path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// KeyPrefix is the instance-key prefix used when a component merges
// several specs: the last path segment, lowercased.
func (s Spec) KeyPrefix() string {
	segments := s.Segments()
	if len(segments) == 0 {
		return strings.ToLower(s.Collection)
	}
	return strings.ToLower(segments[len(segments)-1])
}

func (s Spec) String() string {
	if s.Attribute != "" {
		return s.Collection + "/" + s.Path + "#" + s.Attribute
	}
	return s.Collection + "/" + s.Path
}

// Ptr returns a pointer to v, for building Overrides.
func Ptr[T any](v T) *T { return &v }
