// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/robmacrae/wsh/internal/session"
	"github.com/robmacrae/wsh/internal/vt"
	"github.com/robmacrae/wsh/internal/wire"
)

func (s *Server) getScreen(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	styled := r.URL.Query().Get("styled") == "true"
	reply := sess.Parser.Query(vt.Query{Kind: vt.QueryScreen, Styled: styled})
	if reply.Err != nil {
		writeError(w, wire.NewError(wire.CodeParserUnavailable, "%v", reply.Err))
		return
	}
	writeJSON(w, reply.Screen)
}

func (s *Server) getScrollback(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	reply := sess.Parser.Query(vt.Query{Kind: vt.QueryScrollback, Offset: offset, Limit: limit})
	if reply.Err != nil {
		writeError(w, wire.NewError(wire.CodeParserUnavailable, "%v", reply.Err))
		return
	}
	writeJSON(w, map[string]any{"lines": reply.Scrollback})
}

func (s *Server) getCursor(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	reply := sess.Parser.Query(vt.Query{Kind: vt.QueryCursor})
	if reply.Err != nil {
		writeError(w, wire.NewError(wire.CodeParserUnavailable, "%v", reply.Err))
		return
	}
	writeJSON(w, reply.Cursor)
}

type resizeRequest struct {
	Cols         int    `json:"cols"`
	Rows         int    `json:"rows"`
	ColorProfile string `json:"color_profile,omitempty"`
}

func (s *Server) postResize(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req resizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Cols < 1 || req.Rows < 1 {
		writeError(w, wire.NewError(wire.CodeInvalidRequest, "cols and rows must be >= 1"))
		return
	}
	if req.ColorProfile != "" {
		sess.SetColorProfile(req.ColorProfile)
	}
	if err := sess.Resize(req.Rows, req.Cols); err != nil {
		writeError(w, wire.NewError(wire.CodeInternalError, "%v", err))
		return
	}
	writeJSON(w, map[string]bool{"resized": true})
}

// httpClientID is the fixed input-arbiter identity used for any request
// that arrives over the stateless HTTP API rather than a WebSocket
// connection. Every such request shares one holder identity, since there
// is no standing connection to scope capture to.
const httpClientID = "http-api"

func (s *Server) postInput(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		writeError(w, wire.NewError(wire.CodeInvalidRequest, "reading body: %v", err))
		return
	}
	toPTY, _ := sess.Input.RoutedInput(data)
	if !toPTY {
		writeError(w, wire.NewError(wire.CodeInputSendFailed, "input is captured by another holder"))
		return
	}
	if err := sess.Writer.Enqueue(data, time.Time{}); err != nil {
		writeError(w, wire.NewError(wire.CodeInputSendFailed, "%v", err))
		return
	}
	writeJSON(w, map[string]bool{"sent": true})
}

func (s *Server) getInputMode(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	mode, holder := sess.Input.State()
	writeJSON(w, map[string]any{"mode": mode, "focus_holder_id": holder})
}

func (s *Server) postCaptureInput(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Input.Capture(httpClientID); err != nil {
		writeError(w, wire.NewError(wire.CodeFocusTaken, "%v", err))
		return
	}
	writeJSON(w, map[string]bool{"captured": true})
}

func (s *Server) postReleaseInput(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Input.Release(httpClientID)
	writeJSON(w, map[string]bool{"released": true})
}

// getQuiesce blocks the request until the session reaches quiescence (or
// the wait budget expires), unlike the WebSocket await_quiesce method
// which replies asynchronously over a standing connection. An HTTP
// request has no later frame to deliver a superseding response on, so
// there is nothing to supersede here: each call just blocks on its own.
func (s *Server) getQuiesce(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	q := r.URL.Query()
	timeoutMs, _ := strconv.ParseInt(q.Get("timeout_ms"), 10, 64)
	maxWaitMs, _ := strconv.ParseInt(q.Get("max_wait_ms"), 10, 64)
	fresh := q.Get("fresh") == "true"

	maxWait := time.Duration(maxWaitMs) * time.Millisecond
	if maxWait <= 0 {
		maxWait = s.defaults.MaxWaitDefault
	}
	timeout := time.Duration(timeoutMs) * time.Millisecond

	var lastGeneration *uint64
	if v := q.Get("last_generation"); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			lastGeneration = &parsed
		}
	}

	var generation uint64
	var ok bool
	if fresh {
		generation, ok = sess.Activity.WaitForFreshQuiescence(timeout, maxWait)
	} else {
		generation, ok = sess.Activity.WaitForQuiescence(timeout, lastGeneration, maxWait)
	}
	if !ok {
		writeError(w, wire.NewError(wire.CodeInternalError, "timed out before reaching quiescence"))
		return
	}
	writeJSON(w, map[string]uint64{"generation": generation})
}
