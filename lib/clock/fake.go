// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only on Advance. Safe for
// concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []waiter
	// registered is signalled whenever a waiter is added.
	registered *sync.Cond
}

type waiter struct {
	due time.Time
	ch  chan time.Time
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.registered = sync.NewCond(&c.mu)
	return c
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After registers a one-shot wait due at now+d.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, waiter{due: c.now.Add(d), ch: ch})
	c.registered.Broadcast()
	return ch
}

// Advance moves time forward by d and fires, earliest first, every
// wait that has come due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var fired []waiter
	c.waiters = slices.DeleteFunc(c.waiters, func(w waiter) bool {
		if w.due.After(now) {
			return false
		}
		fired = append(fired, w)
		return true
	})
	c.mu.Unlock()

	slices.SortStableFunc(fired, func(a, b waiter) int { return a.due.Compare(b.due) })
	for _, w := range fired {
		w.ch <- now
	}
}

// WaitForTimers blocks until at least n waits are pending. It closes
// the race between a goroutine parking on After and the test calling
// Advance.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.waiters) < n {
		c.registered.Wait()
	}
}

// PendingCount returns the number of unfired waits.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
