// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package vt

import "errors"

// ErrParserUnavailable is returned for every query once the parser task has
// stopped, whether it panicked or its chunk channel closed.
var ErrParserUnavailable = errors.New("vt: parser_unavailable")

// QueryKind selects which synchronous query to run against VT state.
type QueryKind int

const (
	QueryScreen QueryKind = iota
	QueryScrollback
	QueryCursor
	QueryResize
)

// Query is a request the parser task answers synchronously from its own
// goroutine, never concurrently with chunk processing.
type Query struct {
	Kind QueryKind

	// Screen
	Styled bool

	// Scrollback
	Offset int
	Limit  int

	// Resize
	Cols int
	Rows int
}

// Reply is the synchronous answer to a Query.
type Reply struct {
	Screen     *ScreenState
	Scrollback []ScrollbackReplyLine
	Cursor     Cursor
	Err        error
}

// ScrollbackReplyLine is one paginated scrollback entry.
type ScrollbackReplyLine struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type queryRequest struct {
	q     Query
	reply chan Reply
}
