// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package vt

// EventKind tags the polymorphic Event union for JSON serialization.
type EventKind string

const (
	EventLine   EventKind = "line"
	EventCursor EventKind = "cursor"
	EventMode   EventKind = "mode"
	EventReset  EventKind = "reset"
	EventSync   EventKind = "sync"
	EventDiff   EventKind = "diff"
)

// ResetReason explains why a reset event fired.
type ResetReason string

const (
	ResetAltScreenEnter ResetReason = "alternate_screen_enter"
	ResetAltScreenExit  ResetReason = "alternate_screen_exit"
	ResetHard           ResetReason = "hard_reset"
	ResetResize         ResetReason = "resize"
)

// Event is the tagged event shape pushed to every structured subscriber.
// Seq is strictly monotone across all events of a session.
type Event struct {
	Event EventKind `json:"event"`
	Seq   uint64    `json:"seq"`

	// line
	Index      int           `json:"index,omitempty"`
	TotalLines int           `json:"total_lines,omitempty"`
	Line       FormattedLine `json:"line,omitempty"`

	// cursor
	Cursor *Cursor `json:"cursor,omitempty"`

	// mode
	AlternateScreen *bool `json:"alternate_screen,omitempty"`

	// reset
	Reason ResetReason `json:"reason,omitempty"`
	Epoch  uint64      `json:"epoch,omitempty"`

	// sync (full screen snapshot)
	Screen *ScreenState `json:"screen,omitempty"`
}

// ScreenState is the full-screen snapshot carried by `sync` events and
// returned by the Screen query.
type ScreenState struct {
	Lines           []FormattedLine `json:"lines"`
	Cursor          Cursor          `json:"cursor"`
	Cols            int             `json:"cols"`
	Rows            int             `json:"rows"`
	AlternateScreen bool            `json:"alternate_screen"`
	FirstLineIndex  int             `json:"first_line_index"`
	TotalLines      int             `json:"total_lines"`
	Epoch           uint64          `json:"epoch"`
}

// Lagged is an out-of-band notification handed to a subscriber whose event
// channel overflowed, distinct from the tagged Event union since it's a
// transport-level signal, not VT state.
type Lagged struct {
	Count int
}
