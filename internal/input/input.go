// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package input arbitrates who receives a session's keystrokes: the child
// process (passthrough) or only the subscribers who asked for exclusive
// control (capture).
package input

import (
	"errors"
	"sync"
)

// ErrFocusTaken is returned by Capture when another holder already owns
// capture mode.
var ErrFocusTaken = errors.New("input: focus already held by another subscriber")

// Mode is the arbiter's current routing mode.
type Mode string

const (
	Passthrough Mode = "passthrough"
	Capture     Mode = "capture"
)

// Event is broadcast to input subscribers on every send_input call,
// regardless of mode.
type Event struct {
	Mode      Mode   `json:"mode"`
	RawBytes  []byte `json:"raw_bytes"`
	ParsedKey string `json:"parsed_key,omitempty"`
}

// Arbiter holds the two pieces of state required for input routing: the
// current mode and which holder (if any) owns capture.
type Arbiter struct {
	mu         sync.Mutex
	mode       Mode
	focusOwner string
	hasFocus   bool
	events     *hub
}

// New creates an Arbiter starting in passthrough mode.
func New() *Arbiter {
	return &Arbiter{mode: Passthrough, events: newHub()}
}

// Subscribe hands out a fresh input-event subscription, fed by every
// RoutedInput call regardless of mode.
func (a *Arbiter) Subscribe() *Subscription {
	return a.events.subscribe()
}

// State returns the current mode and focus holder (empty if none).
func (a *Arbiter) State() (mode Mode, focusHolderID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode, a.focusOwner
}

// Capture atomically switches to capture mode for holderID. Calling it
// again with the same holder is a no-op; calling it while a different
// holder owns focus fails with ErrFocusTaken.
func (a *Arbiter) Capture(holderID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.hasFocus && a.focusOwner != holderID {
		return ErrFocusTaken
	}
	a.mode = Capture
	a.focusOwner = holderID
	a.hasFocus = true
	return nil
}

// Release clears capture if holderID is the current focus owner. Releasing
// on behalf of a holder that doesn't currently hold focus is a no-op.
func (a *Arbiter) Release(holderID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.hasFocus && a.focusOwner == holderID {
		a.mode = Passthrough
		a.focusOwner = ""
		a.hasFocus = false
	}
}

// HolderDisconnected is the bookkeeping hook a session's subscriber
// lifecycle calls when a connection drops — functionally identical to
// Release but named for the call site that triggers it.
func (a *Arbiter) HolderDisconnected(holderID string) {
	a.Release(holderID)
}

// RoutedInput decides whether bytes should be written to the PTY, given the
// arbiter's current mode. It always returns the broadcast event; the caller
// writes to the PTY only when toPTY is true.
func (a *Arbiter) RoutedInput(data []byte) (toPTY bool, ev Event) {
	a.mu.Lock()
	mode := a.mode
	a.mu.Unlock()

	raw := make([]byte, len(data))
	copy(raw, data)
	ev = Event{Mode: mode, RawBytes: raw, ParsedKey: ParseKey(raw)}
	a.events.publish(ev)
	return mode == Passthrough, ev
}
