// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package activity tracks output activity on a session's PTY and serves
// blocking "wait until quiet" queries against it.
package activity

import (
	"sync"
	"time"
)

// DefaultMaxWait is the absolute ceiling applied to a blocking wait when the
// caller doesn't supply one, so no query can stall a connection forever.
const DefaultMaxWait = 30 * time.Second

// tickInterval is how often waiters are woken to re-check elapsed idle time
// even when nothing has bumped activity in the meantime.
const tickInterval = 25 * time.Millisecond

// Tracker observes PTY output (via Bump) and answers quiescence queries.
// Generalizes a lastActivity-timestamp-under-lock idiom into a condition
// variable so waiters block instead of polling from the outside.
type Tracker struct {
	mu   sync.Mutex
	cond *sync.Cond

	idleThreshold time.Duration
	lastActivity  time.Time
	generation    uint64
	bumpSeq       uint64

	stop chan struct{}
}

// New creates a Tracker that considers the session idle once idleThreshold
// has elapsed since the last Bump.
func New(idleThreshold time.Duration) *Tracker {
	t := &Tracker{
		idleThreshold: idleThreshold,
		lastActivity:  time.Now(),
		stop:          make(chan struct{}),
	}
	t.cond = sync.NewCond(&t.mu)
	go t.tick()
	return t
}

func (t *Tracker) tick() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.cond.Broadcast()
		case <-t.stop:
			return
		}
	}
}

// Close stops the background ticker. Waiters already blocked in cond.Wait
// are unaffected by Close itself; each wait arms its own deadline timer,
// so they still unblock at their deadline.
func (t *Tracker) Close() {
	close(t.stop)
}

// Bump records that output occurred right now. If the gap since the
// previous activity was at least idleThreshold, the session is considered
// to have resumed from a quiescent period and generation advances.
func (t *Tracker) Bump() {
	t.mu.Lock()
	now := time.Now()
	if now.Sub(t.lastActivity) >= t.idleThreshold {
		t.generation++
	}
	t.lastActivity = now
	t.bumpSeq++
	t.mu.Unlock()
	t.cond.Broadcast()
}

// Generation returns the current generation counter.
func (t *Tracker) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// WaitForQuiescence blocks until the session has been idle for at least
// timeout and, if lastGeneration is non-nil, the generation has advanced
// past it. It gives up after maxWait and returns ok=false. maxWait<=0 uses
// DefaultMaxWait.
func (t *Tracker) WaitForQuiescence(timeout time.Duration, lastGeneration *uint64, maxWait time.Duration) (generation uint64, ok bool) {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	deadline := time.Now().Add(maxWait)

	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		if t.quiescentLocked(timeout, lastGeneration) {
			return t.generation, true
		}
		if !t.waitUntilLocked(deadline) {
			return 0, false
		}
	}
}

// WaitForFreshQuiescence is WaitForQuiescence but additionally requires
// observing at least one Bump after the call started before quiescence can
// be declared — it will not return immediately just because the session
// already happened to be idle.
func (t *Tracker) WaitForFreshQuiescence(timeout time.Duration, maxWait time.Duration) (generation uint64, ok bool) {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	deadline := time.Now().Add(maxWait)

	t.mu.Lock()
	defer t.mu.Unlock()
	startSeq := t.bumpSeq
	for {
		if t.bumpSeq > startSeq && t.quiescentLocked(timeout, nil) {
			return t.generation, true
		}
		if !t.waitUntilLocked(deadline) {
			return 0, false
		}
	}
}

func (t *Tracker) quiescentLocked(timeout time.Duration, lastGeneration *uint64) bool {
	idleFor := time.Since(t.lastActivity)
	if idleFor < timeout {
		return false
	}
	if lastGeneration != nil && t.generation <= *lastGeneration {
		return false
	}
	return true
}

// waitUntilLocked blocks on the condition variable until woken (by a Bump,
// the ticker, or a timer armed for the deadline), returning false if the
// deadline has already passed. Must be called with t.mu held; cond.Wait
// releases and reacquires it internally.
func (t *Tracker) waitUntilLocked(deadline time.Time) bool {
	if time.Now().After(deadline) {
		return false
	}
	wake := time.AfterFunc(time.Until(deadline), t.cond.Broadcast)
	t.cond.Wait()
	wake.Stop()
	return !time.Now().After(deadline)
}
