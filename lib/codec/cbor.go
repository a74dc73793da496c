// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// ContentType is the media type for CBOR bodies.
const ContentType = "application/cbor"

// Snapshots are JSON-shaped, so decoded maps are keyed by string.
var (
	encoder = mustEncMode(cbor.CoreDetEncOptions())
	decoder = mustDecMode(cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))})
)

func mustEncMode(options cbor.EncOptions) cbor.EncMode {
	mode, err := options.EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: invalid encoding options: %v", err))
	}
	return mode
}

func mustDecMode(options cbor.DecOptions) cbor.DecMode {
	mode, err := options.DecMode()
	if err != nil {
		panic(fmt.Sprintf("codec: invalid decoding options: %v", err))
	}
	return mode
}

// Marshal encodes v in Core Deterministic form: equal values always
// produce equal bytes, whatever the map iteration order.
func Marshal(v any) ([]byte, error) {
	return encoder.Marshal(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return decoder.Unmarshal(data, v)
}

// Diagnose renders data in CBOR diagnostic notation, for logs and test
// failures.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
