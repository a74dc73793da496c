// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import "testing"

func TestFromBytesZeroesSource(t *testing.T) {
	source := []byte("AQBm7cxlAAAAABAAK9nX")
	buffer, err := FromBytes(source)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != "AQBm7cxlAAAAABAAK9nX" {
		t.Fatalf("String() = %q", got)
	}
	for index, value := range source {
		if value != 0 {
			t.Fatalf("source[%d] = %d, want 0", index, value)
		}
	}
}

func TestFromStringRejectsEmpty(t *testing.T) {
	if _, err := FromString(""); err == nil {
		t.Fatal("FromString(\"\") succeeded")
	}
}

func TestCloseIsIdempotentAndPanicsOnRead(t *testing.T) {
	buffer, err := FromString("calvin")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if buffer.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", buffer.Len())
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if buffer.Len() != 0 {
		t.Fatalf("Len() after Close = %d, want 0", buffer.Len())
	}

	defer func() {
		if recover() == nil {
			t.Fatal("Bytes() after Close did not panic")
		}
	}()
	buffer.Bytes()
}

func TestNilBufferClose(t *testing.T) {
	var buffer *Buffer
	if err := buffer.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}
