// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package httpapi is the per-session HTTP endpoint set mirroring the
// WebSocket structured methods in internal/ws, for callers that want
// request/response semantics instead of a standing connection.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/robmacrae/wsh/internal/activity"
	"github.com/robmacrae/wsh/internal/auth"
	"github.com/robmacrae/wsh/internal/session"
	"github.com/robmacrae/wsh/internal/wire"
)

// SessionDefaults fills in any field a create-session request left at its
// zero value, so a bare {"command": "bash"} body still gets the
// operator's configured scrollback/idle/channel sizing instead of the
// zero values session.New would otherwise fall back to.
type SessionDefaults struct {
	ScrollbackCap     int
	IdleThreshold     time.Duration
	ParserCapacity    int
	BroadcastCapacity int
	MaxWaitDefault    time.Duration
	ColorProfile      string
}

// Server wires every HTTP handler against a session registry.
type Server struct {
	registry *session.Registry
	authMW   *auth.Middleware
	defaults SessionDefaults
}

// New builds a Server. authMW may be nil, in which case no auth check runs
// at all (the caller is expected to only do this for a loopback bind).
func New(reg *session.Registry, authMW *auth.Middleware, defaults SessionDefaults) *Server {
	if defaults.MaxWaitDefault <= 0 {
		defaults.MaxWaitDefault = activity.DefaultMaxWait
	}
	return &Server{registry: reg, authMW: authMW, defaults: defaults}
}

// Mux builds the full handler tree for this server.
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /sessions", s.createSession)
	mux.HandleFunc("GET /sessions", s.listSessions)
	mux.HandleFunc("GET /sessions/{session}", s.getSession)
	mux.HandleFunc("DELETE /sessions/{session}", s.deleteSession)

	mux.HandleFunc("GET /sessions/{session}/screen", s.withSession(s.getScreen))
	mux.HandleFunc("GET /sessions/{session}/scrollback", s.withSession(s.getScrollback))
	mux.HandleFunc("GET /sessions/{session}/cursor", s.withSession(s.getCursor))
	mux.HandleFunc("POST /sessions/{session}/input", s.withSession(s.postInput))
	mux.HandleFunc("GET /sessions/{session}/input", s.withSession(s.getInputMode))
	mux.HandleFunc("POST /sessions/{session}/input/capture", s.withSession(s.postCaptureInput))
	mux.HandleFunc("POST /sessions/{session}/input/release", s.withSession(s.postReleaseInput))
	mux.HandleFunc("GET /sessions/{session}/quiesce", s.withSession(s.getQuiesce))
	mux.HandleFunc("POST /sessions/{session}/resize", s.withSession(s.postResize))

	mux.HandleFunc("POST /sessions/{session}/overlay", s.withSession(s.createOverlay))
	mux.HandleFunc("GET /sessions/{session}/overlay", s.withSession(s.listOverlays))
	mux.HandleFunc("DELETE /sessions/{session}/overlay", s.withSession(s.clearOverlays))
	mux.HandleFunc("GET /sessions/{session}/overlay/{id}", s.withSession(s.getOverlay))
	mux.HandleFunc("PUT /sessions/{session}/overlay/{id}", s.withSession(s.putOverlay))
	mux.HandleFunc("PATCH /sessions/{session}/overlay/{id}", s.withSession(s.patchOverlay))
	mux.HandleFunc("DELETE /sessions/{session}/overlay/{id}", s.withSession(s.deleteOverlay))

	mux.HandleFunc("POST /sessions/{session}/panel", s.withSession(s.createPanel))
	mux.HandleFunc("GET /sessions/{session}/panel", s.withSession(s.listPanels))
	mux.HandleFunc("DELETE /sessions/{session}/panel", s.withSession(s.clearPanels))
	mux.HandleFunc("GET /sessions/{session}/panel/{id}", s.withSession(s.getPanel))
	mux.HandleFunc("PUT /sessions/{session}/panel/{id}", s.withSession(s.putPanel))
	mux.HandleFunc("PATCH /sessions/{session}/panel/{id}", s.withSession(s.patchPanel))
	mux.HandleFunc("DELETE /sessions/{session}/panel/{id}", s.withSession(s.deletePanel))

	if s.authMW != nil && s.authMW.Enabled() {
		return s.authMW.Require(mux)
	}
	return mux
}

// sessionHandler is an http.HandlerFunc that already has the target
// session resolved and bound.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves the {session} path value (by ID, then by name) and
// calls h, or writes a session_not_found error if it can't be found.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("session")
		sess, err := s.registry.Get(id)
		if err != nil {
			sess, err = s.registry.GetByName(id)
		}
		if err != nil {
			writeError(w, wire.NewError(wire.CodeSessionNotFound, "no session %q", id))
			return
		}
		h(w, r, sess)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err *wire.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code.HTTPStatus())
	json.NewEncoder(w).Encode(map[string]*wire.Error{"error": err})
}

func decodeBody(r *http.Request, v any) *wire.Error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return wire.NewError(wire.CodeInvalidRequest, "bad request body: %v", err)
	}
	return nil
}
