// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package vt

import (
	"bytes"
	"sync"

	"github.com/vito/midterm"
)

// ScrollbackLine is one line retained after scrolling off the visible
// screen, captured via midterm's OnScrollback hook.
type ScrollbackLine struct {
	Rendered string // ANSI-formatted (SGR + text), as midterm.Line.Display() produces
}

// Changes reports what a single Write() call altered, so the parser task
// can emit precisely the right events without re-walking the whole grid on
// every byte chunk.
type Changes struct {
	ChangedLines  []int
	CursorMoved   bool
	Cursor        Cursor
	AltScreenToggled bool
	EnteredAlt    bool
	HardReset     bool
}

const altScreenEnter = "\x1b[?1049h"
const altScreenExit = "\x1b[?1049l"

// altScanCarry is how many trailing bytes of the previous chunk are kept to
// catch a DEC private-mode sequence split across a read boundary.
const altScanCarry = len(altScreenEnter) - 1

// terminal wraps *midterm.Terminal plus the bookkeeping midterm doesn't do
// for us: a bounded scrollback ring (via OnScrollback), alternate-screen
// detection (midterm exposes no such flag directly, so it's inferred from
// the DEC private-mode sequences themselves), and dirty-line diffing between
// writes.
type terminal struct {
	mu sync.Mutex

	vt   *midterm.Terminal
	rows int
	cols int

	scrollback    []ScrollbackLine
	scrollbackCap int

	altScreen     bool
	cursorVisible bool
	carry         []byte
	prevGrid      []string // snapshot of each visible row's rendered bytes for diffing
	prevCursor    Cursor
}

func newTerminal(rows, cols, scrollbackCap int) *terminal {
	t := &terminal{
		vt:            midterm.NewTerminal(rows, cols),
		rows:          rows,
		cols:          cols,
		scrollbackCap: scrollbackCap,
		prevGrid:      make([]string, rows),
		cursorVisible: true,
	}
	t.vt.OnScrollback(func(line midterm.Line) {
		t.scrollback = append(t.scrollback, ScrollbackLine{Rendered: line.Display()})
		if over := len(t.scrollback) - t.scrollbackCap; over > 0 {
			t.scrollback = t.scrollback[over:]
		}
	})
	return t
}

// write feeds bytes to the VT and returns what changed. The parser task's
// single-threaded select loop already serializes this against queries, so
// the mutex here exists only so tests can call write/query directly without
// running a Parser.
func (t *terminal) write(data []byte) Changes {
	t.mu.Lock()
	defer t.mu.Unlock()

	altToggled, enteredAlt := t.scanAltScreen(data)
	if altToggled {
		t.altScreen = enteredAlt
	}
	t.scanCursorVisibility(data)

	t.vt.Write(data)

	ch := Changes{AltScreenToggled: altToggled, EnteredAlt: enteredAlt}
	rows := len(t.vt.Content)
	if rows > len(t.prevGrid) {
		grown := make([]string, rows)
		copy(grown, t.prevGrid)
		t.prevGrid = grown
	}
	for row := 0; row < rows && row < t.rows; row++ {
		rendered := t.renderRowKey(row)
		if rendered != t.prevGrid[row] {
			ch.ChangedLines = append(ch.ChangedLines, row)
			t.prevGrid[row] = rendered
		}
	}

	cur := t.cursorLocked()
	if cur != t.prevCursor {
		ch.CursorMoved = true
		ch.Cursor = cur
		t.prevCursor = cur
	}
	return ch
}

// renderRowKey produces a cheap comparable representation of a row (its
// runes; style changes alone without content changes are rare enough that
// comparing raw content, rather than per-cell style, keeps dirty-line
// detection to one pass over changed rows instead of the whole grid).
func (t *terminal) renderRowKey(row int) string {
	if row >= len(t.vt.Content) {
		return ""
	}
	return string(t.vt.Content[row])
}

// scanAltScreen looks for DEC private-mode 1049 sequences in data, using a
// short carry-over buffer so a sequence split across two PTY reads is still
// detected.
func (t *terminal) scanAltScreen(data []byte) (toggled bool, entered bool) {
	scan := data
	if len(t.carry) > 0 {
		scan = append(append([]byte{}, t.carry...), data...)
	}
	enterIdx := bytes.LastIndex(scan, []byte(altScreenEnter))
	exitIdx := bytes.LastIndex(scan, []byte(altScreenExit))
	if enterIdx >= 0 && enterIdx > exitIdx {
		toggled, entered = true, true
	} else if exitIdx >= 0 {
		toggled, entered = true, false
	}

	if len(data) >= altScanCarry {
		t.carry = append([]byte{}, data[len(data)-altScanCarry:]...)
	} else {
		t.carry = append(t.carry, data...)
		if len(t.carry) > altScanCarry {
			t.carry = t.carry[len(t.carry)-altScanCarry:]
		}
	}
	return toggled, entered
}

const cursorHide = "\x1b[?25l"
const cursorShow = "\x1b[?25h"

// scanCursorVisibility tracks DECTCEM (cursor show/hide) the same way as
// the alternate-screen scan: midterm does not expose a visibility flag, so
// the last such sequence observed in a chunk wins. This only tracks the
// child's own cursor-visibility requests; it is unrelated to the renderer's
// own temporary cursor hide/show around overlay/panel redraws.
func (t *terminal) scanCursorVisibility(data []byte) {
	hideIdx := bytes.LastIndex(data, []byte(cursorHide))
	showIdx := bytes.LastIndex(data, []byte(cursorShow))
	if hideIdx < 0 && showIdx < 0 {
		return
	}
	t.cursorVisible = showIdx > hideIdx
}

func (t *terminal) resize(rows, cols int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows, t.cols = rows, cols
	t.vt.Resize(rows, cols)
	grown := make([]string, rows)
	copy(grown, t.prevGrid)
	t.prevGrid = grown
}

func (t *terminal) cursorLocked() Cursor {
	return Cursor{Row: t.vt.Cursor.Y, Col: t.vt.Cursor.X, Visible: t.cursorVisible}
}

func (t *terminal) cursor() Cursor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursorLocked()
}

func (t *terminal) line(row int, styled bool) FormattedLine {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.renderLine(t.vt, row, styled)
}

// renderLine builds a FormattedLine from any midterm.Terminal (the live VT
// or the scrollback ring), walking format.Regions once per row and reusing
// the SGR->Pen decoder so the wire shape is identical regardless of source.
func (t *terminal) renderLine(term *midterm.Terminal, row int, styled bool) FormattedLine {
	if row < 0 || row >= len(term.Content) {
		if !styled {
			return FormattedLine{Plain: ""}
		}
		return FormattedLine{HasSpans: true}
	}
	runes := term.Content[row]
	if !styled {
		return FormattedLine{Plain: string(runes)}
	}

	var spans []Span
	pos := 0
	var lastFormat midterm.Format
	haveLast := false
	for region := range term.Format.Regions(row) {
		f := region.F
		end := pos + region.Size
		text := sliceRunes(runes, pos, end)
		pos = end

		if haveLast && f == lastFormat && len(spans) > 0 {
			spans[len(spans)-1].Text += text
			continue
		}
		spans = append(spans, Span{Pen: parsePenFromSGR(f.Render()), Text: text})
		lastFormat = f
		haveLast = true
	}
	return FormattedLine{HasSpans: true, Spans: spans}
}

func sliceRunes(runes []rune, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

func (t *terminal) rowsCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rows
}

func (t *terminal) colsCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols
}

func (t *terminal) isAltScreen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.altScreen
}

func (t *terminal) scrollbackSlice(offset, limit int) []ScrollbackLine {
	t.mu.Lock()
	defer t.mu.Unlock()
	if offset >= len(t.scrollback) {
		return nil
	}
	end := offset + limit
	if end > len(t.scrollback) || limit <= 0 {
		end = len(t.scrollback)
	}
	out := make([]ScrollbackLine, end-offset)
	copy(out, t.scrollback[offset:end])
	return out
}

func (t *terminal) scrollbackLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.scrollback)
}
