// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robmacrae/wsh/internal/session"
	"github.com/robmacrae/wsh/internal/wire"
)

func newTestSessionServer(t *testing.T) (string, *session.Session, func()) {
	t.Helper()
	server, reg, cleanup := setupTestServer(t)
	sess, err := reg.Create(session.Spec{Command: "cat", Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return wsURL(server, sess.ID), sess, cleanup
}

func call(t *testing.T, conn *websocket.Conn, id float64, method string, params any) wire.Response {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		raw = data
	}
	req := wire.Request{ID: id, Method: method, Params: raw}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	return readResponseWithID(t, conn, id)
}

// readResponseWithID reads text frames until it finds the response
// matching id, skipping any pushed events (e.g. an unsolicited sync).
func readResponseWithID(t *testing.T, conn *websocket.Conn, id float64) wire.Response {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var resp wire.Response
		if err := json.Unmarshal(data, &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if f, ok := resp.ID.(float64); ok && f == id {
			return resp
		}
	}
}

func TestGetScreenReturnsStructuredResult(t *testing.T) {
	url, _, cleanup := newTestSessionServer(t)
	defer cleanup()

	conn := wsDial(t, url, "")
	defer conn.Close()

	resp := call(t, conn, 1, "get_screen", map[string]bool{"styled": true})
	if resp.Error != nil {
		t.Fatalf("get_screen error: %v", resp.Error)
	}
	if resp.Method != "get_screen" {
		t.Fatalf("got method %q, want get_screen", resp.Method)
	}
}

func TestUnknownMethodReturnsUnknownMethodError(t *testing.T) {
	url, _, cleanup := newTestSessionServer(t)
	defer cleanup()

	conn := wsDial(t, url, "")
	defer conn.Close()

	resp := call(t, conn, 1, "not_a_real_method", nil)
	if resp.Error == nil || resp.Error.Code != wire.CodeUnknownMethod {
		t.Fatalf("got %+v, want unknown_method", resp.Error)
	}
}

func TestCaptureInputThenSecondHolderGetsFocusTaken(t *testing.T) {
	url, _, cleanup := newTestSessionServer(t)
	defer cleanup()

	connA := wsDial(t, url, "")
	defer connA.Close()
	connB := wsDial(t, url, "")
	defer connB.Close()

	respA := call(t, connA, 1, "capture_input", nil)
	if respA.Error != nil {
		t.Fatalf("connA capture_input: %v", respA.Error)
	}

	respB := call(t, connB, 1, "capture_input", nil)
	if respB.Error == nil || respB.Error.Code != wire.CodeFocusTaken {
		t.Fatalf("got %+v, want focus_taken", respB.Error)
	}
}

func TestCreateOverlayThenListOverlaysSeesIt(t *testing.T) {
	url, _, cleanup := newTestSessionServer(t)
	defer cleanup()

	conn := wsDial(t, url, "")
	defer conn.Close()

	createResp := call(t, conn, 1, "create_overlay", map[string]any{"x": 1, "y": 2, "spans": []any{}})
	if createResp.Error != nil {
		t.Fatalf("create_overlay: %v", createResp.Error)
	}

	listResp := call(t, conn, 2, "list_overlays", nil)
	if listResp.Error != nil {
		t.Fatalf("list_overlays: %v", listResp.Error)
	}
	result, ok := listResp.Result.(map[string]any)
	if !ok {
		t.Fatalf("unexpected result shape: %+v", listResp.Result)
	}
	overlays, ok := result["overlays"].([]any)
	if !ok || len(overlays) != 1 {
		t.Fatalf("got overlays=%v, want exactly one", result["overlays"])
	}
}

func TestResizeUpdatesScreenDimensions(t *testing.T) {
	url, sess, cleanup := newTestSessionServer(t)
	defer cleanup()

	conn := wsDial(t, url, "")
	defer conn.Close()

	resp := call(t, conn, 1, "resize", map[string]int{"cols": 100, "rows": 40})
	if resp.Error != nil {
		t.Fatalf("resize: %v", resp.Error)
	}
	rows, cols := sess.Size.Get()
	if rows != 40 || cols != 100 {
		t.Fatalf("got rows=%d cols=%d, want 40/100", rows, cols)
	}
}

func TestResizeTwiceWithSameDimensionsIsIdempotent(t *testing.T) {
	url, sess, cleanup := newTestSessionServer(t)
	defer cleanup()

	conn := wsDial(t, url, "")
	defer conn.Close()

	call(t, conn, 1, "resize", map[string]int{"cols": 100, "rows": 40})
	resp := call(t, conn, 2, "resize", map[string]int{"cols": 100, "rows": 40})
	if resp.Error != nil {
		t.Fatalf("second resize: %v", resp.Error)
	}
	rows, cols := sess.Size.Get()
	if rows != 40 || cols != 100 {
		t.Fatalf("got rows=%d cols=%d, want 40/100", rows, cols)
	}
}

func TestResizeRejectsNonPositiveDimensions(t *testing.T) {
	url, _, cleanup := newTestSessionServer(t)
	defer cleanup()

	conn := wsDial(t, url, "")
	defer conn.Close()

	resp := call(t, conn, 1, "resize", map[string]int{"cols": 0, "rows": 40})
	if resp.Error == nil {
		t.Fatal("expected error for cols=0")
	}
	if resp.Error.Code != wire.CodeInvalidRequest {
		t.Fatalf("got code %q, want invalid_request", resp.Error.Code)
	}
}

func TestResizeNegotiatesColorProfile(t *testing.T) {
	url, sess, cleanup := newTestSessionServer(t)
	defer cleanup()

	conn := wsDial(t, url, "")
	defer conn.Close()

	resp := call(t, conn, 1, "resize", map[string]any{"cols": 100, "rows": 40, "color_profile": "ansi256"})
	if resp.Error != nil {
		t.Fatalf("resize: %v", resp.Error)
	}
	// SetColorProfile has no externally observable state on Session itself;
	// this just confirms the extra field doesn't reject the request and the
	// resize still applies.
	rows, cols := sess.Size.Get()
	if rows != 40 || cols != 100 {
		t.Fatalf("got rows=%d cols=%d, want 40/100", rows, cols)
	}
}

func TestDisconnectReleasesCaptureAndOwnedOverlays(t *testing.T) {
	url, sess, cleanup := newTestSessionServer(t)
	defer cleanup()

	conn := wsDial(t, url, "")
	call(t, conn, 1, "capture_input", nil)
	call(t, conn, 2, "create_overlay", map[string]any{"x": 0, "y": 0, "spans": []any{}})
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mode, holder := sess.Input.State()
		if mode == "passthrough" && holder == "" && len(sess.Overlays.List()) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected capture and overlays to be released after disconnect")
}
