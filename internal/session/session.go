// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package session wires the per-session subsystems — PTY, broker, parser,
// activity tracker, input arbiter, overlay store, panel store, and
// renderers — into a single ownership cell with one cancellation token.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/robmacrae/wsh/internal/activity"
	"github.com/robmacrae/wsh/internal/broker"
	"github.com/robmacrae/wsh/internal/input"
	"github.com/robmacrae/wsh/internal/overlay"
	"github.com/robmacrae/wsh/internal/panel"
	"github.com/robmacrae/wsh/internal/pty"
	"github.com/robmacrae/wsh/internal/vt"
)

// Size is the shared (rows, cols) cell for a session's terminal. Writes go
// through Set so every reader observes either the old or the new value,
// never a torn one.
type Size struct {
	mu         sync.RWMutex
	rows, cols int
}

func newSize(rows, cols int) *Size {
	return &Size{rows: rows, cols: cols}
}

// Get returns the current dimensions.
func (s *Size) Get() (rows, cols int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows, s.cols
}

func (s *Size) set(rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows, s.cols = rows, cols
}

// Spec describes how to construct a Session.
type Spec struct {
	Name          string
	Tags          []string
	Command       string
	Rows          int
	Cols          int
	Dir           string
	Env           map[string]string
	ScrollbackCap int
	IdleThreshold time.Duration

	// ParserCapacity and BroadcastCapacity override the broker's channel
	// buffer sizes; zero uses the broker package's own defaults.
	ParserCapacity    int
	BroadcastCapacity int

	// ColorProfile names the color profile overlay/panel SGR spans are
	// downgraded to before being written to the wire: "truecolor",
	// "ansi256", "ansi", or "ascii". Empty defaults to "truecolor".
	ColorProfile string
}

// Session owns one PTY-backed child process and every subsystem that
// fans its output out, parses it, and composites overlays/panels on top
// of it. Dropping a Session releases the PTY master fd, which delivers
// SIGHUP to any surviving child.
type Session struct {
	ID   string
	Name string
	Tags []string

	PTY      *pty.PTY
	Writer   *pty.Writer
	Broker   *broker.Broker
	Parser   *vt.Parser
	Activity *activity.Tracker
	Input    *input.Arbiter
	Overlays *overlay.Store
	Panels   *panel.Store
	Size     *Size

	overlayRenderer *overlay.Renderer
	panelLayout     *panel.Reconfigurer

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// New spawns a child process and wires every per-session subsystem
// around it. The caller must arrange for Run to be invoked (typically
// once, right after New returns) to start the PTY reader/writer, parser,
// and render loops.
func New(spec Spec) (*Session, error) {
	if spec.Rows <= 0 {
		spec.Rows = 24
	}
	if spec.Cols <= 0 {
		spec.Cols = 80
	}

	p, err := pty.New(pty.Spec{
		Command: spec.Command,
		Cols:    uint16(spec.Cols),
		Rows:    uint16(spec.Rows),
		Dir:     spec.Dir,
		Env:     spec.Env,
	})
	if err != nil {
		return nil, err
	}

	b := broker.NewWithCapacity(spec.ParserCapacity, spec.BroadcastCapacity)
	parserChunks, err := b.SubscribeParser()
	if err != nil {
		p.Close()
		return nil, err
	}

	writer := pty.NewWriter(p, 256)
	parser := vt.NewParser(parserChunks, spec.Rows, spec.Cols, spec.ScrollbackCap)

	idleThreshold := spec.IdleThreshold
	if idleThreshold <= 0 {
		idleThreshold = 1 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		ID:       p.ID,
		Name:     spec.Name,
		Tags:     append([]string(nil), spec.Tags...),
		PTY:      p,
		Writer:   writer,
		Broker:   b,
		Parser:   parser,
		Activity: activity.New(idleThreshold),
		Input:    input.New(),
		Overlays: overlay.New(),
		Panels:   panel.New(),
		Size:     newSize(spec.Rows, spec.Cols),
		ctx:      ctx,
		cancel:   cancel,
	}

	profile := vt.ParseColorProfile(spec.ColorProfile)
	s.overlayRenderer = overlay.NewRenderer(s.Overlays, s.screenLine, s.dimensions, writer.PTYWriter(), profile)
	s.panelLayout = panel.NewReconfigurer(s.Panels, writer.PTYWriter(), ptyResizer{p}, parser, profile)

	return s, nil
}

// Run starts every background task the session needs: the PTY reader and
// writer, the parser task, the overlay render loop, the activity feed, and
// (when onExit is non-nil) the exit monitor. It returns immediately. Panel
// layout has no loop of its own; it is redrawn synchronously by Resize.
func (s *Session) Run(onExit func(sessionID string, exitErr error)) {
	go pty.RunReader(s.ctx, s.PTY, s.Broker)
	go s.Writer.Run(s.ctx)
	go s.Parser.Run()
	go s.overlayRenderer.Run()
	go s.feedActivity()
	if onExit != nil {
		go pty.RunExitMonitor(s.ID, s.PTY, onExit)
	}
}

// feedActivity bumps the activity tracker on every event the parser
// emits, so idle detection reflects actual VT-visible output rather than
// raw byte arrival (which can include no-op escape sequences).
func (s *Session) feedActivity() {
	sub := s.Parser.Subscribe()
	defer sub.Close()
	for {
		select {
		case <-s.ctx.Done():
			return
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
			s.Activity.Bump()
		case <-sub.Lagged():
		}
	}
}

func (s *Session) screenLine(row int) vt.FormattedLine {
	reply := s.Parser.Query(vt.Query{Kind: vt.QueryScreen, Styled: true})
	if reply.Err != nil || reply.Screen == nil || row < 0 || row >= len(reply.Screen.Lines) {
		return vt.FormattedLine{}
	}
	return reply.Screen.Lines[row]
}

func (s *Session) dimensions() (rows, cols int) {
	return s.Size.Get()
}

// Resize updates the shared terminal-size cell and reconfigures panel
// layout, which in turn resizes the PTY and the parser to the resulting
// pty_rows/pty_cols once any panel bands are accounted for.
func (s *Session) Resize(rows, cols int) error {
	s.Size.set(rows, cols)
	return s.panelLayout.Reconfigure(rows, cols)
}

// SetColorProfile updates the color profile overlay and panel rendering
// downgrade through, e.g. once an attaching client reports the real
// terminal's capability at attach time.
func (s *Session) SetColorProfile(name string) {
	profile := vt.ParseColorProfile(name)
	s.overlayRenderer.SetColorProfile(profile)
	s.panelLayout.SetColorProfile(profile)
}

// RequestOverlayRender posts a coalescing redraw request for the overlay
// compositor.
func (s *Session) RequestOverlayRender() {
	s.overlayRenderer.RequestRender()
}

// RepaintPanelSpans repaints one panel's rows in place without touching
// the scroll region or resizing anything, the fast path for a panel whose
// spans changed but whose height/z/position didn't.
func (s *Session) RepaintPanelSpans(id string, cols int) error {
	return s.panelLayout.RepaintSpans(id, cols)
}

// Detach cancels s.ctx, which stops the PTY reader, the PTY writer and the
// activity feed. The parser task and the overlay renderer do not watch
// s.ctx and are not stopped by Detach.
func (s *Session) Detach() {
	s.cancel()
}

// ForceKill detaches the session and escalates to SIGKILL against the
// child, then closes the PTY master fd.
func (s *Session) ForceKill() error {
	s.Detach()
	s.PTY.Signal(pty.SIGKILL)
	return s.Close()
}

// Close releases the PTY master fd (which SIGHUPs any surviving child),
// stops the writer queue, and closes the broker. Safe to call more than
// once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		s.Broker.Close()
		s.Activity.Close()
		s.overlayRenderer.Stop()
		s.Writer.Close()
		err = s.PTY.Close()
	})
	return err
}

// ptyResizer adapts *pty.PTY's (cols, rows uint16) Resize to the
// panel package's Resizer interface, which speaks (rows, cols int) to
// match vt.Parser's own Resize signature.
type ptyResizer struct {
	p *pty.PTY
}

func (r ptyResizer) Resize(rows, cols int) error {
	return r.p.Resize(uint16(cols), uint16(rows))
}
