// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package ws

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robmacrae/wsh/internal/activity"
	"github.com/robmacrae/wsh/internal/session"
	"github.com/robmacrae/wsh/internal/wire"
)

// allowedOrigins returns the configured allowlist of WebSocket origins.
func allowedOrigins() []string {
	origins := os.Getenv("WSH_ALLOWED_ORIGINS")
	if origins == "" {
		return nil
	}
	return strings.Split(origins, ",")
}

// checkOrigin validates the Origin header against the allowlist. A request
// with no Origin header (a non-browser client, e.g. a CLI) is accepted,
// since the same-origin policy this guards against is itself a
// browser-only concept.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	allowed := allowedOrigins()
	if len(allowed) == 0 {
		return false
	}

	for _, a := range allowed {
		a = strings.TrimSpace(a)
		if a == origin || a == "*" {
			return true
		}
		if strings.HasSuffix(a, ":*") {
			prefix := strings.TrimSuffix(a, "*")
			if strings.HasPrefix(origin, prefix) {
				remainder := strings.TrimPrefix(origin, prefix)
				if len(remainder) > 0 && isNumeric(remainder) {
					return true
				}
			}
		}
	}
	return false
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     checkOrigin,
}

// Router upgrades HTTP requests into per-session WebSocket connections.
type Router struct {
	registry       *session.Registry
	maxWaitDefault time.Duration
}

// NewRouter builds a Router serving sessions out of reg. maxWaitDefault is
// the await_quiesce wait ceiling applied when a request doesn't specify
// its own; zero uses the activity package's own default.
func NewRouter(reg *session.Registry, maxWaitDefault time.Duration) *Router {
	if maxWaitDefault <= 0 {
		maxWaitDefault = activity.DefaultMaxWait
	}
	return &Router{registry: reg, maxWaitDefault: maxWaitDefault}
}

// HandleWebSocket upgrades the request and runs a Client against the named
// session until the connection closes. The session is looked up by ID
// first, then by name, matching the registry's own dual lookup.
func (r *Router) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("session")

	sess, err := r.registry.Get(id)
	if err != nil {
		sess, err = r.registry.GetByName(id)
	}
	if err != nil {
		writeJSONError(w, http.StatusNotFound, wire.NewError(wire.CodeSessionNotFound, "no session %q", id))
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, sess)
	client.maxWaitDefault = r.maxWaitDefault
	client.Run()
}

func writeJSONError(w http.ResponseWriter, status int, err *wire.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":{"code":"` + string(err.Code) + `","message":"` + err.Message + `"}}`))
}
