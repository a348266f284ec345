// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package overlay

import (
	"bytes"
	"fmt"
	"io"
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
	hideCursor      = "\x1b[?25l"
)

// ScreenLine reads the current styled content of one row of the live VT,
// used to repaint rows an overlay previously occupied.
type ScreenLine func(row int) vt.FormattedLine

// Dimensions reports the current terminal size.
type Dimensions func() (rows, cols int)

// Renderer paints a Store's overlays on top of the live screen, coalescing
// bursts of mutations into a single redraw. Grounded on the same per-region
// SGR-on-change walk used for VT row rendering, generalized to composite
// fixed-position overlays over the live grid rather than a linear scrollback
// view.
type Renderer struct {
	store      *Store
	screenLine ScreenLine
	dims       Dimensions
	out        io.Writer

	mu        sync.Mutex
	prevDirty map[int]bool
	profile   termenv.Profile

	wake chan struct{}
	stop chan struct{}
}

// NewRenderer builds a Renderer. out is the single serialized sink overlay
// frames are written to; callers are responsible for ensuring the same sink
// isn't written to concurrently from elsewhere (e.g. by funneling both
// through one PTY writer queue). profile is the color profile overlay
// spans are downgraded to before being written to the wire.
func NewRenderer(store *Store, screenLine ScreenLine, dims Dimensions, out io.Writer, profile termenv.Profile) *Renderer {
	return &Renderer{
		store:      store,
		screenLine: screenLine,
		dims:       dims,
		out:        out,
		profile:    profile,
		prevDirty:  make(map[int]bool),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
	}
}

// SetColorProfile updates the color profile future renders downgrade
// through.
func (r *Renderer) SetColorProfile(profile termenv.Profile) {
	r.mu.Lock()
	r.profile = profile
	r.mu.Unlock()
}

// RequestRender posts a coalescing wake-up; any number of calls between two
// drains of Run collapse into a single redraw.
func (r *Renderer) RequestRender() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run drains render requests until Stop is called.
func (r *Renderer) Run() {
	for {
		select {
		case <-r.wake:
			r.render()
		case <-r.stop:
			return
		}
	}
}

// Stop ends Run.
func (r *Renderer) Stop() {
	close(r.stop)
}

func (r *Renderer) render() {
	rows, cols := r.dims()
	if rows <= 0 || cols <= 0 {
		return
	}
	overlays := r.store.List()

	r.mu.Lock()
	defer r.mu.Unlock()

	profile := r.profile
	newDirty := make(map[int]bool, len(r.prevDirty))
	for row := range r.prevDirty {
		newDirty[row] = true
	}
	for _, ov := range overlays {
		for _, row := range occupiedRows(ov, rows) {
			newDirty[row] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString(syncUpdateBegin)
	buf.WriteString(saveCursor)
	buf.WriteString(hideCursor)

	for row := range newDirty {
		if row < 0 || row >= rows {
			continue
		}
		writeCursorTo(&buf, row, 0)
		buf.WriteString("\x1b[2K")
		writeStyledLine(&buf, r.screenLine(row), profile)
	}

	for _, ov := range overlays {
		writeOverlay(&buf, ov, rows, cols, profile)
	}

	buf.WriteString(restoreCursor)
	buf.WriteString(syncUpdateEnd)

	r.out.Write(buf.Bytes())
	r.prevDirty = newDirty
}

func occupiedRows(ov Overlay, rows int) []int {
	lineCount := 1
	for _, sp := range ov.Spans {
		lineCount += strings.Count(sp.Text, "\n")
	}
	y := clamp(ov.Y, 0, rows)
	var out []int
	for i := 0; i < lineCount; i++ {
		row := saturatingAdd(y, i)
		if row >= 0 && row < rows {
			out = append(out, row)
		}
	}
	return out
}

func writeStyledLine(buf *bytes.Buffer, line vt.FormattedLine, profile termenv.Profile) {
	if !line.HasSpans {
		buf.WriteString("\x1b[0m")
		buf.WriteString(line.Plain)
		return
	}
	for _, sp := range line.Spans {
		buf.WriteString(vt.RenderSGR(sp.Pen, profile))
		buf.WriteString(sp.Text)
	}
	buf.WriteString("\x1b[0m")
}

func writeOverlay(buf *bytes.Buffer, ov Overlay, rows, cols int, profile termenv.Profile) {
	x := clamp(ov.X, 0, cols)
	y := clamp(ov.Y, 0, rows)
	col, row := x, y

	writeCursorTo(buf, row, col)
	for _, sp := range ov.Spans {
		buf.WriteString(vt.RenderSGR(sp.Pen, profile))
		lines := strings.Split(sp.Text, "\n")
		for i, seg := range lines {
			if i > 0 {
				row = saturatingAdd(row, 1)
				col = x
				if row >= rows {
					buf.WriteString("\x1b[0m")
					return
				}
				writeCursorTo(buf, row, col)
			}
			buf.WriteString(seg)
			col = saturatingAdd(col, len([]rune(seg)))
		}
	}
	buf.WriteString("\x1b[0m")
}

func writeCursorTo(buf *bytes.Buffer, row, col int) {
	fmt.Fprintf(buf, "\x1b[%d;%dH", row+1, col+1)
}

// clamp and saturatingAdd keep attacker-controllable overlay coordinates
// from ever producing arithmetic wrap; every row/col derived from an
// overlay's stored position goes through one of these.
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func saturatingAdd(a, b int) int {
	sum := a + b
	if b > 0 && sum < a {
		return int(^uint(0) >> 1) // max int: overflowed past positive range
	}
	if b < 0 && sum > a {
		return -int(^uint(0)>>1) - 1 // min int: overflowed past negative range
	}
	return sum
}
