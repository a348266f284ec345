// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package ws

import (
	"encoding/json"
	"time"

	"github.com/robmacrae/wsh/internal/overlay"
	"github.com/robmacrae/wsh/internal/panel"
	"github.com/robmacrae/wsh/internal/vt"
	"github.com/robmacrae/wsh/internal/wire"
)

// deferredResponse is returned by a handler that sends its own Response
// asynchronously (currently only await_quiesce, which may outlive the
// request/response round trip it started on).
var deferredResponse = struct{}{}

type methodFunc func(c *Client, req wire.Request) (any, *wire.Error)

var methodTable = map[string]methodFunc{
	"subscribe":       handleSubscribe,
	"get_screen":      handleGetScreen,
	"get_scrollback":  handleGetScrollback,
	"get_cursor":      handleGetCursor,
	"send_input":      handleSendInput,
	"get_input_mode":  handleGetInputMode,
	"capture_input":   handleCaptureInput,
	"release_input":   handleReleaseInput,
	"create_overlay":  handleCreateOverlay,
	"update_overlay":  handleUpdateOverlay,
	"patch_overlay":   handlePatchOverlay,
	"delete_overlay":  handleDeleteOverlay,
	"list_overlays":   handleListOverlays,
	"clear_overlays":  handleClearOverlays,
	"create_panel":    handleCreatePanel,
	"update_panel":    handleUpdatePanel,
	"patch_panel":     handlePatchPanel,
	"delete_panel":    handleDeletePanel,
	"list_panels":     handleListPanels,
	"clear_panels":    handleClearPanels,
	"resize":          handleResize,
	"await_quiesce":   handleAwaitQuiesce,
}

func unmarshalParams(req wire.Request, v any) *wire.Error {
	if len(req.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params, v); err != nil {
		return wire.NewError(wire.CodeInvalidRequest, "bad params: %v", err)
	}
	return nil
}

// handleSubscribe replaces any previous structured-event subscription
// atomically and triggers a fresh sync event carrying the full screen.
func handleSubscribe(c *Client, req wire.Request) (any, *wire.Error) {
	c.restartEventPump()
	return map[string]bool{"subscribed": true}, nil
}

func handleGetScreen(c *Client, req wire.Request) (any, *wire.Error) {
	var p struct {
		Styled bool `json:"styled"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	reply := c.sess.Parser.Query(vt.Query{Kind: vt.QueryScreen, Styled: p.Styled})
	if reply.Err != nil {
		return nil, parserError(reply.Err)
	}
	return reply.Screen, nil
}

func handleGetScrollback(c *Client, req wire.Request) (any, *wire.Error) {
	var p struct {
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	reply := c.sess.Parser.Query(vt.Query{Kind: vt.QueryScrollback, Offset: p.Offset, Limit: p.Limit})
	if reply.Err != nil {
		return nil, parserError(reply.Err)
	}
	return map[string]any{"lines": reply.Scrollback}, nil
}

func handleGetCursor(c *Client, req wire.Request) (any, *wire.Error) {
	reply := c.sess.Parser.Query(vt.Query{Kind: vt.QueryCursor})
	if reply.Err != nil {
		return nil, parserError(reply.Err)
	}
	return reply.Cursor, nil
}

func handleSendInput(c *Client, req wire.Request) (any, *wire.Error) {
	var p struct {
		Data string `json:"data"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	toPTY, _ := c.sess.Input.RoutedInput([]byte(p.Data))
	if !toPTY {
		return nil, wire.NewError(wire.CodeInputSendFailed, "input is captured by another holder")
	}
	if err := c.sess.Writer.Enqueue([]byte(p.Data), time.Time{}); err != nil {
		return nil, wire.NewError(wire.CodeInputSendFailed, "%v", err)
	}
	return map[string]bool{"sent": true}, nil
}

func handleGetInputMode(c *Client, req wire.Request) (any, *wire.Error) {
	mode, holder := c.sess.Input.State()
	return map[string]any{"mode": mode, "focus_holder_id": holder}, nil
}

func handleCaptureInput(c *Client, req wire.Request) (any, *wire.Error) {
	if err := c.sess.Input.Capture(c.id); err != nil {
		return nil, wire.NewError(wire.CodeFocusTaken, "%v", err)
	}
	return map[string]bool{"captured": true}, nil
}

func handleReleaseInput(c *Client, req wire.Request) (any, *wire.Error) {
	c.sess.Input.Release(c.id)
	return map[string]bool{"released": true}, nil
}

type overlayParams struct {
	X     int       `json:"x"`
	Y     int       `json:"y"`
	Z     *int      `json:"z,omitempty"`
	Spans []vt.Span `json:"spans"`
}

func handleCreateOverlay(c *Client, req wire.Request) (any, *wire.Error) {
	var p overlayParams
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	ov := c.sess.Overlays.Create(p.X, p.Y, p.Z, p.Spans, c.id)
	c.sess.RequestOverlayRender()
	return ov, nil
}

func handleUpdateOverlay(c *Client, req wire.Request) (any, *wire.Error) {
	var p struct {
		ID    string    `json:"id"`
		Spans []vt.Span `json:"spans"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	if err := c.sess.Overlays.Update(p.ID, p.Spans); err != nil {
		return nil, wire.NewError(wire.CodeOverlayNotFound, "%v", err)
	}
	c.sess.RequestOverlayRender()
	return map[string]bool{"updated": true}, nil
}

func handlePatchOverlay(c *Client, req wire.Request) (any, *wire.Error) {
	var p struct {
		ID string `json:"id"`
		overlay.Patch
	}
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	if err := c.sess.Overlays.Patch(p.ID, p.Patch); err != nil {
		return nil, wire.NewError(wire.CodeOverlayNotFound, "%v", err)
	}
	c.sess.RequestOverlayRender()
	return map[string]bool{"patched": true}, nil
}

func handleDeleteOverlay(c *Client, req wire.Request) (any, *wire.Error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	if err := c.sess.Overlays.Delete(p.ID); err != nil {
		return nil, wire.NewError(wire.CodeOverlayNotFound, "%v", err)
	}
	c.sess.RequestOverlayRender()
	return map[string]bool{"deleted": true}, nil
}

func handleListOverlays(c *Client, req wire.Request) (any, *wire.Error) {
	return map[string]any{"overlays": c.sess.Overlays.List()}, nil
}

func handleClearOverlays(c *Client, req wire.Request) (any, *wire.Error) {
	c.sess.Overlays.Clear()
	c.sess.RequestOverlayRender()
	return map[string]bool{"cleared": true}, nil
}

type panelParams struct {
	Position panel.Position `json:"position"`
	Height   int            `json:"height"`
	Z        *int           `json:"z,omitempty"`
	Spans    []vt.Span      `json:"spans"`
}

func handleCreatePanel(c *Client, req wire.Request) (any, *wire.Error) {
	var p panelParams
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	pnl := c.sess.Panels.Create(p.Position, p.Height, p.Z, p.Spans, c.id)
	if err := c.reconfigurePanels(); err != nil {
		return nil, err
	}
	return pnl, nil
}

func handleUpdatePanel(c *Client, req wire.Request) (any, *wire.Error) {
	var p struct {
		ID    string    `json:"id"`
		Spans []vt.Span `json:"spans"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	if err := c.sess.Panels.Update(p.ID, p.Spans); err != nil {
		return nil, wire.NewError(wire.CodePanelNotFound, "%v", err)
	}
	if werr := c.repaintPanelSpans(p.ID); werr != nil {
		return nil, werr
	}
	return map[string]bool{"updated": true}, nil
}

func handlePatchPanel(c *Client, req wire.Request) (any, *wire.Error) {
	var p struct {
		ID string `json:"id"`
		panel.Patch
	}
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	if err := c.sess.Panels.Patch(p.ID, p.Patch); err != nil {
		return nil, wire.NewError(wire.CodePanelNotFound, "%v", err)
	}
	if err := c.reconfigurePanels(); err != nil {
		return nil, err
	}
	return map[string]bool{"patched": true}, nil
}

func handleDeletePanel(c *Client, req wire.Request) (any, *wire.Error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	if err := c.sess.Panels.Delete(p.ID); err != nil {
		return nil, wire.NewError(wire.CodePanelNotFound, "%v", err)
	}
	if err := c.reconfigurePanels(); err != nil {
		return nil, err
	}
	return map[string]bool{"deleted": true}, nil
}

func handleListPanels(c *Client, req wire.Request) (any, *wire.Error) {
	return map[string]any{"panels": c.sess.Panels.List()}, nil
}

func handleClearPanels(c *Client, req wire.Request) (any, *wire.Error) {
	c.sess.Panels.Clear()
	if err := c.reconfigurePanels(); err != nil {
		return nil, err
	}
	return map[string]bool{"cleared": true}, nil
}

// handleResize applies a new terminal size reported by the attached client
// (a SIGWINCH on the attaching end, typically). Resize is idempotent: two
// calls with identical cols/rows leave the screen dimensions unchanged.
// ColorProfile optionally renegotiates the color profile overlay/panel
// spans are downgraded to, so a client narrower than the server's default
// assumption (e.g. a plain ANSI terminal) can declare it once at attach
// time via its first resize call.
func handleResize(c *Client, req wire.Request) (any, *wire.Error) {
	var p struct {
		Cols         int    `json:"cols"`
		Rows         int    `json:"rows"`
		ColorProfile string `json:"color_profile,omitempty"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	if p.Cols < 1 || p.Rows < 1 {
		return nil, wire.NewError(wire.CodeInvalidRequest, "cols and rows must be >= 1")
	}
	if p.ColorProfile != "" {
		c.sess.SetColorProfile(p.ColorProfile)
	}
	if err := c.sess.Resize(p.Rows, p.Cols); err != nil {
		return nil, wire.NewError(wire.CodeInternalError, "%v", err)
	}
	return map[string]bool{"resized": true}, nil
}

func handleAwaitQuiesce(c *Client, req wire.Request) (any, *wire.Error) {
	var p struct {
		TimeoutMs      int64   `json:"timeout_ms"`
		MaxWaitMs      int64   `json:"max_wait_ms"`
		LastGeneration *uint64 `json:"last_generation,omitempty"`
		Fresh          bool    `json:"fresh"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return nil, err
	}
	maxWait := time.Duration(p.MaxWaitMs) * time.Millisecond
	if maxWait <= 0 {
		maxWait = c.maxWaitDefault
	}
	timeout := time.Duration(p.TimeoutMs) * time.Millisecond

	gen := c.beginQuiesce(req.ID)
	go func() {
		var generation uint64
		var ok bool
		if p.Fresh {
			generation, ok = c.sess.Activity.WaitForFreshQuiescence(timeout, maxWait)
		} else {
			generation, ok = c.sess.Activity.WaitForQuiescence(timeout, p.LastGeneration, maxWait)
		}
		if !c.finishQuiesce(gen) {
			return
		}
		if !ok {
			c.sendJSON(wire.Fail(req, wire.NewError(wire.CodeInternalError, "await_quiesce timed out before reaching quiescence")))
			return
		}
		c.sendJSON(wire.OK(req, map[string]uint64{"generation": generation}))
	}()
	return deferredResponse, nil
}

func parserError(err error) *wire.Error {
	return wire.NewError(wire.CodeParserUnavailable, "%v", err)
}
