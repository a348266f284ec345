// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package vt maintains the authoritative virtual-terminal state for a
// session: the screen grid, cursor, scrollback, and epoch, wrapping
// github.com/vito/midterm's parser. It answers queries synchronously from a
// single task and emits a sequenced event stream for everyone else.
package vt

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

// Pen is a cell's rendering attributes: foreground/background color
// (indexed or RGB) and style flags.
type Pen struct {
	FgIndexed *int `json:"fg_indexed,omitempty"`
	FgRGB     *RGB `json:"fg_rgb,omitempty"`
	BgIndexed *int `json:"bg_indexed,omitempty"`
	BgRGB     *RGB `json:"bg_rgb,omitempty"`

	Bold          bool `json:"bold,omitempty"`
	Faint         bool `json:"faint,omitempty"`
	Italic        bool `json:"italic,omitempty"`
	Underline     bool `json:"underline,omitempty"`
	Strikethrough bool `json:"strikethrough,omitempty"`
	Blink         bool `json:"blink,omitempty"`
	Inverse       bool `json:"inverse,omitempty"`
}

// Span is a contiguous run of cells sharing one pen.
type Span struct {
	Pen  Pen    `json:"pen"`
	Text string `json:"text"`
}

// FormattedLine is either a plain collapsed string or an ordered sequence of
// styled spans. The wire representation is untagged: consumers distinguish
// by JSON shape (string vs. array) rather than a discriminant field.
type FormattedLine struct {
	Plain string
	Spans []Span
	// HasSpans records which representation was actually requested/built,
	// since an empty Plain string and a nil Spans slice are both zero
	// values otherwise.
	HasSpans bool
}

// Cursor is the VT's cursor position and visibility.
type Cursor struct {
	Row     int  `json:"row"`
	Col     int  `json:"col"`
	Visible bool `json:"visible"`
}
