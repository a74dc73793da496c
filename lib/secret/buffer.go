// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer is a fixed-size secret in off-heap memory. Must not be copied.
type Buffer struct {
	mu     sync.Mutex
	region []byte
	locked bool
	closed bool
}

// FromBytes copies source into a new Buffer and zeroes source.
func FromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, errors.New("secret: empty value")
	}
	region, err := unix.Mmap(-1, 0, len(source), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap: %w", err)
	}
	// Containers commonly run with a tiny RLIMIT_MEMLOCK; the region
	// stays usable unlocked.
	locked := unix.Mlock(region) == nil
	_ = unix.Madvise(region, unix.MADV_DONTDUMP)

	copy(region, source)
	clear(source)
	return &Buffer{region: region, locked: locked}, nil
}

// FromString copies s into a new Buffer. The string itself cannot be
// scrubbed; callers should drop their reference promptly.
func FromString(s string) (*Buffer, error) {
	return FromBytes([]byte(s))
}

// Bytes returns the secret. The slice aliases the mapped region and is
// invalid after Close.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		panic("secret: read after Close")
	}
	return b.region
}

// String returns a heap copy for APIs that only accept strings (HTTP
// basic auth, JSON payloads).
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Len returns the secret length, or 0 after Close.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0
	}
	return len(b.region)
}

// Locked reports whether the region is pinned in RAM.
func (b *Buffer) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Close zeroes and unmaps the region. Idempotent, and safe on a nil
// Buffer.
func (b *Buffer) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	clear(b.region)

	if b.locked {
		_ = unix.Munlock(b.region)
	}
	err := unix.Munmap(b.region)
	b.region = nil
	if err != nil {
		return fmt.Errorf("secret: munmap: %w", err)
	}
	return nil
}
