// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package system

// NewAtollon returns the System for Atollon controllers, which follow
// the generic resource layout and offer no capabilities.
func NewAtollon(params Params) *Base {
	return newBase("atollon", params, nil)
}
