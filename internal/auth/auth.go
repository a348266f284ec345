// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package auth gates the WS and HTTP surfaces behind a single shared
// bearer token. Authentication is only enforced once the server is bound
// to a non-loopback address — a server listening on 127.0.0.1/::1 is
// reachable only by local processes already on the host, so it's treated
// as already inside the trust boundary.
package auth

import (
	"net"
	"net/http"
	"strings"

	"github.com/robmacrae/wsh/internal/wire"
)

// Middleware enforces the configured bearer token against inbound HTTP
// and WebSocket-upgrade requests.
type Middleware struct {
	token    string
	loopback bool
}

// New builds a Middleware. token is the shared secret; an empty token
// means auth is disabled entirely (the caller is expected to only do
// this for a loopback bind). loopback marks that the listener is bound
// to a loopback address, in which case every request is allowed through
// regardless of token.
func New(token string, loopback bool) *Middleware {
	return &Middleware{token: token, loopback: loopback}
}

// Enabled reports whether requests are actually checked against a token.
func (m *Middleware) Enabled() bool {
	return !m.loopback && m.token != ""
}

// Check validates the request's credentials and returns a wire error if
// it should be rejected, or nil if the request may proceed.
func (m *Middleware) Check(r *http.Request) *wire.Error {
	if !m.Enabled() {
		return nil
	}
	got := bearerFrom(r)
	if got == "" {
		return wire.NewError(wire.CodeAuthRequired, "missing bearer token")
	}
	if got != m.token {
		return wire.NewError(wire.CodeAuthInvalid, "invalid bearer token")
	}
	return nil
}

// Require wraps an http.Handler, returning 401/403 with a JSON wire.Error
// body when Check rejects the request.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.Check(r); err != nil {
			writeAuthError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, err *wire.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code.HTTPStatus())
	w.Write([]byte(`{"error":{"code":"` + string(err.Code) + `","message":"` + err.Message + `"}}`))
}

// bearerFrom extracts the bearer token from the request, preferring the
// Authorization header over the "token" query parameter.
func bearerFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(h, prefix) {
			return strings.TrimPrefix(h, prefix)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// IsLoopback reports whether addr (a listener's net.Addr) is bound to a
// loopback interface, the signal used to decide whether authentication
// should be enforced at all.
func IsLoopback(addr net.Addr) bool {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return host == "localhost"
	}
	return ip.IsLoopback()
}
