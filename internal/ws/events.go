// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package ws

import (
	"github.com/robmacrae/wsh/internal/input"
	"github.com/robmacrae/wsh/internal/vt"
	"github.com/robmacrae/wsh/internal/wire"
)

// restartEventPump replaces any previous structured-event subscription
// atomically: the old one is torn down and a fresh VT + input subscription
// is started, then a full-screen sync is pushed immediately so the client
// never has to reconcile a gap.
func (c *Client) restartEventPump() {
	c.stopEventPump()

	c.mu.Lock()
	vtSub := c.sess.Parser.Subscribe()
	inputSub := c.sess.Input.Subscribe()
	cancel := make(chan struct{})
	c.vtSub = vtSub
	c.inputSub = inputSub
	c.eventCancel = cancel
	c.mu.Unlock()

	go c.pumpVTEvents(vtSub, cancel)
	go c.pumpInputEvents(inputSub, cancel)

	if reply := c.sess.Parser.Query(vt.Query{Kind: vt.QueryScreen, Styled: true}); reply.Err == nil {
		c.sendJSON(map[string]any{"event": "sync", "screen": reply.Screen})
	}
}

func (c *Client) pumpVTEvents(sub *vt.Subscription, cancel <-chan struct{}) {
	defer sub.Close()
	for {
		select {
		case <-cancel:
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			c.sendJSON(ev)
		case _, ok := <-sub.Lagged():
			if !ok {
				return
			}
			c.sendJSON(map[string]any{"event": "lagged"})
		}
	}
}

func (c *Client) pumpInputEvents(sub *input.Subscription, cancel <-chan struct{}) {
	defer sub.Close()
	for {
		select {
		case <-cancel:
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			c.sendJSON(map[string]any{
				"event":      "input",
				"mode":       ev.Mode,
				"parsed_key": ev.ParsedKey,
			})
		}
	}
}

func (c *Client) stopEventPump() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eventCancel != nil {
		close(c.eventCancel)
		c.eventCancel = nil
	}
	c.vtSub = nil
	c.inputSub = nil
}

// reconfigurePanels recomputes and repaints panel layout against the
// session's current terminal size, used after any panel create/patch/
// delete/clear call.
func (c *Client) reconfigurePanels() *wire.Error {
	rows, cols := c.sess.Size.Get()
	if err := c.sess.Resize(rows, cols); err != nil {
		return wire.NewError(wire.CodeInternalError, "panel reconfigure failed: %v", err)
	}
	return nil
}

// repaintPanelSpans is the span-only fast path for update_panel, which
// never changes height/z/position and so never needs a full reconfigure.
func (c *Client) repaintPanelSpans(id string) *wire.Error {
	_, cols := c.sess.Size.Get()
	if err := c.sess.RepaintPanelSpans(id, cols); err != nil {
		return wire.NewError(wire.CodePanelNotFound, "%v", err)
	}
	return nil
}

// beginQuiesce registers a new pending await_quiesce call, superseding any
// call still in flight on this connection by replying to it immediately
// with quiesce_superseded instead of waiting for its blocking wait to
// return on its own.
func (c *Client) beginQuiesce(reqID any) uint64 {
	c.quiesceMu.Lock()
	defer c.quiesceMu.Unlock()
	if c.quiescePending != nil {
		c.sendJSON(wire.Response{
			ID:     c.quiescePending,
			Method: "await_quiesce",
			Error:  wire.NewError(wire.CodeQuiesceSuperseded, "a newer await_quiesce call superseded this one"),
		})
	}
	c.quiesceGen++
	c.quiescePending = reqID
	return c.quiesceGen
}

// finishQuiesce reports whether the call identified by gen is still the
// most recent one; a superseded call's own goroutine uses this to become a
// no-op once its blocking wait eventually returns.
func (c *Client) finishQuiesce(gen uint64) bool {
	c.quiesceMu.Lock()
	defer c.quiesceMu.Unlock()
	if gen != c.quiesceGen {
		return false
	}
	c.quiescePending = nil
	return true
}
