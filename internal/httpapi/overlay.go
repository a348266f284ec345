// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package httpapi

import (
	"net/http"

	"github.com/robmacrae/wsh/internal/overlay"
	"github.com/robmacrae/wsh/internal/session"
	"github.com/robmacrae/wsh/internal/vt"
	"github.com/robmacrae/wsh/internal/wire"
)

// httpOwnerID is the owner identity assigned to overlays and panels
// created over the HTTP API, mirroring httpClientID's role for input
// capture: there is no standing connection to scope ownership to.
const httpOwnerID = "http-api"

type overlayRequest struct {
	X     int       `json:"x"`
	Y     int       `json:"y"`
	Z     *int      `json:"z,omitempty"`
	Spans []vt.Span `json:"spans"`
}

func (s *Server) createOverlay(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req overlayRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ov := sess.Overlays.Create(req.X, req.Y, req.Z, req.Spans, httpOwnerID)
	sess.RequestOverlayRender()
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, ov)
}

func (s *Server) listOverlays(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, map[string]any{"overlays": sess.Overlays.List()})
}

func (s *Server) clearOverlays(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Overlays.Clear()
	sess.RequestOverlayRender()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getOverlay(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ov, err := sess.Overlays.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, wire.NewError(wire.CodeOverlayNotFound, "%v", err))
		return
	}
	writeJSON(w, ov)
}

func (s *Server) putOverlay(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req struct {
		Spans []vt.Span `json:"spans"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Overlays.Update(r.PathValue("id"), req.Spans); err != nil {
		writeError(w, wire.NewError(wire.CodeOverlayNotFound, "%v", err))
		return
	}
	sess.RequestOverlayRender()
	writeJSON(w, map[string]bool{"updated": true})
}

func (s *Server) patchOverlay(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var patch overlay.Patch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Overlays.Patch(r.PathValue("id"), patch); err != nil {
		writeError(w, wire.NewError(wire.CodeOverlayNotFound, "%v", err))
		return
	}
	sess.RequestOverlayRender()
	writeJSON(w, map[string]bool{"patched": true})
}

func (s *Server) deleteOverlay(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Overlays.Delete(r.PathValue("id")); err != nil {
		writeError(w, wire.NewError(wire.CodeOverlayNotFound, "%v", err))
		return
	}
	sess.RequestOverlayRender()
	w.WriteHeader(http.StatusNoContent)
}
