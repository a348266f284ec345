// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package httpapi

import (
	"net/http"
	"time"

	"github.com/robmacrae/wsh/internal/session"
	"github.com/robmacrae/wsh/internal/wire"
)

type createSessionRequest struct {
	Name          string            `json:"name,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Command       string            `json:"command"`
	Rows          int               `json:"rows"`
	Cols          int               `json:"cols"`
	Dir           string            `json:"dir,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
	ScrollbackCap int               `json:"scrollback_cap,omitempty"`
	IdleThresholdMs int64           `json:"idle_threshold_ms,omitempty"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	scrollbackCap := req.ScrollbackCap
	if scrollbackCap == 0 {
		scrollbackCap = s.defaults.ScrollbackCap
	}
	idleThreshold := time.Duration(req.IdleThresholdMs) * time.Millisecond
	if idleThreshold == 0 {
		idleThreshold = s.defaults.IdleThreshold
	}

	sess, err := s.registry.Create(session.Spec{
		Name:              req.Name,
		Tags:              req.Tags,
		Command:           req.Command,
		Rows:              req.Rows,
		Cols:              req.Cols,
		Dir:               req.Dir,
		Env:               req.Env,
		ScrollbackCap:     scrollbackCap,
		IdleThreshold:     idleThreshold,
		ParserCapacity:    s.defaults.ParserCapacity,
		BroadcastCapacity: s.defaults.BroadcastCapacity,
		ColorProfile:      s.defaults.ColorProfile,
	})
	if err == session.ErrNameConflict {
		writeError(w, wire.NewError(wire.CodeNameConflict, "session name %q already in use", req.Name))
		return
	}
	if err != nil {
		writeError(w, wire.NewError(wire.CodeInternalError, "%v", err))
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, sessionView(sess))
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.registry.List()
	views := make([]sessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, sessionView(sess))
	}
	writeJSON(w, map[string]any{"sessions": views})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session")
	sess, err := s.registry.Get(id)
	if err != nil {
		sess, err = s.registry.GetByName(id)
	}
	if err != nil {
		writeError(w, wire.NewError(wire.CodeSessionNotFound, "no session %q", id))
		return
	}
	writeJSON(w, sessionView(sess))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session")
	sess, err := s.registry.Get(id)
	if err != nil {
		sess, err = s.registry.GetByName(id)
	}
	if err != nil {
		writeError(w, wire.NewError(wire.CodeSessionNotFound, "no session %q", id))
		return
	}
	if err := s.registry.ForceKill(sess.ID); err != nil {
		writeError(w, wire.NewError(wire.CodeInternalError, "%v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionInfo struct {
	ID   string   `json:"id"`
	Name string   `json:"name,omitempty"`
	Tags []string `json:"tags,omitempty"`
	Rows int      `json:"rows"`
	Cols int      `json:"cols"`
}

func sessionView(sess *session.Session) sessionInfo {
	rows, cols := sess.Size.Get()
	return sessionInfo{ID: sess.ID, Name: sess.Name, Tags: sess.Tags, Rows: rows, Cols: cols}
}
