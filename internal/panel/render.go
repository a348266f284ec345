// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package panel

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/muesli/termenv"

	"github.com/robmacrae/wsh/internal/vt"
)

const (
	syncUpdateBegin = "\x1b[?2026h"
	syncUpdateEnd   = "\x1b[?2026l"
	saveCursor      = "\x1b7"
	restoreCursor   = "\x1b8"
)

// Resizer is implemented by anything whose row/column extent can be
// changed after construction: the PTY and the VT parser both satisfy it.
type Resizer interface {
	Resize(rows, cols int) error
}

// Reconfigurer recomputes panel layout whenever panels or the terminal
// size change, and keeps the PTY's scroll region and the parser's
// dimensions in lockstep with it.
type Reconfigurer struct {
	store *Store
	out   io.Writer
	pty   Resizer
	vtRes Resizer

	mu         sync.Mutex
	lastLayout Layout
	lastRows   int
	profile    termenv.Profile
}

// NewReconfigurer builds a Reconfigurer. out is the shared PTY output sink
// panel bands and scroll-region control sequences are written to. profile
// is the color profile panel spans are downgraded to before being written
// to the wire.
func NewReconfigurer(store *Store, out io.Writer, pty, vtRes Resizer, profile termenv.Profile) *Reconfigurer {
	return &Reconfigurer{store: store, out: out, pty: pty, vtRes: vtRes, profile: profile}
}

// SetColorProfile updates the color profile future renders downgrade
// through, e.g. once an attaching client reports a narrower terminal than
// the server's default assumption.
func (r *Reconfigurer) SetColorProfile(profile termenv.Profile) {
	r.mu.Lock()
	r.profile = profile
	r.mu.Unlock()
}

// Reconfigure recomputes the layout for the given terminal size, writes
// the scroll-region and panel-band control sequences, and resizes the PTY
// and parser to the resulting pty_rows/pty_cols. It's the full path taken
// whenever a panel is created/deleted/resized or the outer terminal
// resizes.
func (r *Reconfigurer) Reconfigure(rows, cols int) error {
	panels := r.store.List()
	layout := ComputeLayout(panels, rows, cols)
	r.store.ApplyVisibility(layout.Visible)
	for i := range panels {
		panels[i].Visible = layout.Visible[panels[i].ID]
	}

	r.mu.Lock()
	prev, prevRows := r.lastLayout, r.lastRows
	profile := r.profile
	r.lastLayout, r.lastRows = layout, rows
	r.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString(syncUpdateBegin)
	buf.WriteString(saveCursor)

	eraseVacatedRows(&buf, prev, prevRows, layout, rows)

	fmt.Fprintf(&buf, "\x1b[%d;%dr", layout.ScrollRegionTop, layout.ScrollRegionBottom)

	for _, p := range panels {
		if layout.Visible[p.ID] {
			writePanel(&buf, p, panels, rows, cols, profile)
		}
	}

	buf.WriteString(restoreCursor)
	buf.WriteString(syncUpdateEnd)

	if _, err := r.out.Write(buf.Bytes()); err != nil {
		return err
	}

	if err := r.pty.Resize(layout.PTYRows, layout.PTYCols); err != nil {
		return err
	}
	return r.vtRes.Resize(layout.PTYRows, layout.PTYCols)
}

// RepaintSpans handles the span-only-update fast path: when a panel's
// spans changed but its height/position/z didn't, this just repaints its
// rows without touching the scroll region or resizing anything.
func (r *Reconfigurer) RepaintSpans(id string, cols int) error {
	p, err := r.store.Get(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	layout, rows, profile := r.lastLayout, r.lastRows, r.profile
	r.mu.Unlock()
	if !layout.Visible[id] {
		return nil
	}

	var buf bytes.Buffer
	buf.WriteString(syncUpdateBegin)
	buf.WriteString(saveCursor)
	writePanel(&buf, p, r.store.List(), rows, cols, profile)
	buf.WriteString(restoreCursor)
	buf.WriteString(syncUpdateEnd)

	_, err = r.out.Write(buf.Bytes())
	return err
}

// eraseVacatedRows clears absolute screen rows that held a panel band in
// the previous layout (at the previous screen size) but hold no band in
// the new one.
func eraseVacatedRows(buf *bytes.Buffer, prev Layout, prevRows int, next Layout, rows int) {
	prevBand := bandRows(prev, prevRows)
	nextBand := bandRows(next, rows)
	for row := range prevBand {
		if !nextBand[row] {
			writeCursorTo(buf, row, 0)
			buf.WriteString("\x1b[2K")
		}
	}
}

// bandRows returns the 0-based absolute row indices outside the scroll
// region for a given layout, i.e. the rows panel bands occupy.
func bandRows(l Layout, rows int) map[int]bool {
	out := make(map[int]bool)
	if rows <= 0 {
		return out
	}
	for row := 1; row < l.ScrollRegionTop && row <= rows; row++ {
		out[row-1] = true
	}
	for row := l.ScrollRegionBottom + 1; row <= rows; row++ {
		out[row-1] = true
	}
	return out
}

// writePanel renders one visible panel at its absolute row band. Panels
// sharing a position stack in z-descending order, the order ComputeLayout
// allocates them in.
func writePanel(buf *bytes.Buffer, p Panel, all []Panel, rows, cols int, profile termenv.Profile) {
	startRow := bandStart(p, all, rows)
	for i := 0; i < p.Height; i++ {
		writeCursorTo(buf, startRow+i, 0)
		buf.WriteString("\x1b[2K")
	}
	writeCursorTo(buf, startRow, 0)
	writeSpans(buf, p.Spans, startRow, cols, profile)
}

// bandStart computes the absolute 0-based row a panel's band begins at.
// Top panels stack downward from row 0 in the allocation order produced by
// ComputeLayout (highest z first); bottom panels stack upward from the
// last row, so the highest-z bottom panel sits lowest on screen.
func bandStart(target Panel, all []Panel, rows int) int {
	ordered := orderedByAllocation(all, target.Position)

	if target.Position == Top {
		offset := 0
		for _, p := range ordered {
			if p.ID == target.ID {
				return offset
			}
			if p.Visible {
				offset += p.Height
			}
		}
		return offset
	}

	offset := rows
	for _, p := range ordered {
		if p.Visible {
			offset -= p.Height
		}
		if p.ID == target.ID {
			return offset
		}
	}
	return offset
}

// orderedByAllocation returns panels of one position sorted by z
// descending, matching the order ComputeLayout allocated them in.
func orderedByAllocation(all []Panel, pos Position) []Panel {
	out := make([]Panel, 0, len(all))
	for _, p := range all {
		if p.Position == pos {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z > out[j].Z })
	return out
}

// writeSpans paints a panel's spans starting at (startRow, 0), wrapping to
// the next row on an embedded newline and truncating any segment that
// would run past cols — panel text must never trigger the terminal's own
// auto-wrap, which would push rows below it out of alignment with the
// layout this function assumes.
func writeSpans(buf *bytes.Buffer, spans []vt.Span, startRow, cols int, profile termenv.Profile) {
	row := startRow
	col := 0
	writeCursorTo(buf, row, col)
	for _, sp := range spans {
		buf.WriteString(vt.RenderSGR(sp.Pen, profile))
		lines := strings.Split(sp.Text, "\n")
		for i, seg := range lines {
			if i > 0 {
				row++
				col = 0
				writeCursorTo(buf, row, col)
			}
			runes := []rune(seg)
			if remaining := cols - col; remaining > 0 {
				if len(runes) > remaining {
					runes = runes[:remaining]
				}
				buf.WriteString(string(runes))
				col += len(runes)
			}
		}
	}
	buf.WriteString("\x1b[0m")
}

func writeCursorTo(buf *bytes.Buffer, row, col int) {
	fmt.Fprintf(buf, "\x1b[%d;%dH", row+1, col+1)
}
