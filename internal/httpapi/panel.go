// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package httpapi

import (
	"net/http"

	"github.com/robmacrae/wsh/internal/panel"
	"github.com/robmacrae/wsh/internal/session"
	"github.com/robmacrae/wsh/internal/vt"
	"github.com/robmacrae/wsh/internal/wire"
)

type panelRequest struct {
	Position panel.Position `json:"position"`
	Height   int            `json:"height"`
	Z        *int           `json:"z,omitempty"`
	Spans    []vt.Span      `json:"spans"`
}

func (s *Server) createPanel(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req panelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	pnl := sess.Panels.Create(req.Position, req.Height, req.Z, req.Spans, httpOwnerID)
	if werr := s.reconfigurePanels(sess); werr != nil {
		writeError(w, werr)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, pnl)
}

func (s *Server) listPanels(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, map[string]any{"panels": sess.Panels.List()})
}

func (s *Server) clearPanels(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Panels.Clear()
	if werr := s.reconfigurePanels(sess); werr != nil {
		writeError(w, werr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getPanel(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	pnl, err := sess.Panels.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, wire.NewError(wire.CodePanelNotFound, "%v", err))
		return
	}
	writeJSON(w, pnl)
}

func (s *Server) putPanel(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req struct {
		Spans []vt.Span `json:"spans"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	if err := sess.Panels.Update(id, req.Spans); err != nil {
		writeError(w, wire.NewError(wire.CodePanelNotFound, "%v", err))
		return
	}
	_, cols := sess.Size.Get()
	if err := sess.RepaintPanelSpans(id, cols); err != nil {
		writeError(w, wire.NewError(wire.CodePanelNotFound, "%v", err))
		return
	}
	writeJSON(w, map[string]bool{"updated": true})
}

func (s *Server) patchPanel(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var patch panel.Patch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Panels.Patch(r.PathValue("id"), patch); err != nil {
		writeError(w, wire.NewError(wire.CodePanelNotFound, "%v", err))
		return
	}
	if werr := s.reconfigurePanels(sess); werr != nil {
		writeError(w, werr)
		return
	}
	writeJSON(w, map[string]bool{"patched": true})
}

func (s *Server) deletePanel(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Panels.Delete(r.PathValue("id")); err != nil {
		writeError(w, wire.NewError(wire.CodePanelNotFound, "%v", err))
		return
	}
	if werr := s.reconfigurePanels(sess); werr != nil {
		writeError(w, werr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reconfigurePanels re-runs layout after a panel's height, z, or existence
// changed, which can shift the PTY scroll region and every other panel's
// band.
func (s *Server) reconfigurePanels(sess *session.Session) *wire.Error {
	rows, cols := sess.Size.Get()
	if err := sess.Resize(rows, cols); err != nil {
		return wire.NewError(wire.CodeInternalError, "%v", err)
	}
	return nil
}
