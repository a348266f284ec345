// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package ws

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robmacrae/wsh/internal/activity"
	"github.com/robmacrae/wsh/internal/session"
)

func setupTestServer(t *testing.T) (*httptest.Server, *session.Registry, func()) {
	t.Helper()
	reg := session.NewRegistry()
	router := NewRouter(reg, 0)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{session}", router.HandleWebSocket)

	server := httptest.NewServer(mux)
	return server, reg, func() {
		reg.Shutdown()
		server.Close()
	}
}

func wsURL(server *httptest.Server, id string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + id
}

func wsDial(t *testing.T, url, origin string) *websocket.Conn {
	t.Helper()
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, headers)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

func TestHandleWebSocketConnectsToExistingSession(t *testing.T) {
	server, reg, cleanup := setupTestServer(t)
	defer cleanup()

	sess, err := reg.Create(session.Spec{Command: "cat", Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	conn := wsDial(t, wsURL(server, sess.ID), "")
	defer conn.Close()
}

func TestHandleWebSocketRejectsUnknownSession(t *testing.T) {
	server, _, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := http.Get(server.URL + "/ws/missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", resp.StatusCode)
	}
}

func TestCheckOriginAllowsRequestsWithoutOriginHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/x", nil)
	if !checkOrigin(req) {
		t.Fatal("expected no Origin header to be allowed")
	}
}

func TestCheckOriginEnforcesAllowlistWhenOriginPresent(t *testing.T) {
	os.Setenv("WSH_ALLOWED_ORIGINS", "http://localhost:*,https://example.com")
	defer os.Unsetenv("WSH_ALLOWED_ORIGINS")

	cases := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"https://example.com", true},
		{"https://evil.example", false},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ws/x", nil)
		req.Header.Set("Origin", c.origin)
		if got := checkOrigin(req); got != c.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", c.origin, got, c.want)
		}
	}
}

func TestCheckOriginRejectsAllWhenNoAllowlistConfigured(t *testing.T) {
	os.Unsetenv("WSH_ALLOWED_ORIGINS")
	req := httptest.NewRequest(http.MethodGet, "/ws/x", nil)
	req.Header.Set("Origin", "https://example.com")
	if checkOrigin(req) {
		t.Fatal("expected rejection with no allowlist configured")
	}
}

func TestNewRouterFallsBackToActivityDefaultMaxWait(t *testing.T) {
	router := NewRouter(session.NewRegistry(), 0)
	if router.maxWaitDefault != activity.DefaultMaxWait {
		t.Fatalf("got %v, want %v", router.maxWaitDefault, activity.DefaultMaxWait)
	}
}

func TestNewRouterHonorsExplicitMaxWait(t *testing.T) {
	router := NewRouter(session.NewRegistry(), 5*time.Second)
	if router.maxWaitDefault != 5*time.Second {
		t.Fatalf("got %v, want 5s", router.maxWaitDefault)
	}
}

func TestIsNumericRecognizesDigitsOnly(t *testing.T) {
	cases := map[string]bool{"3000": true, "30a0": false, "": true}
	for s, want := range cases {
		if got := isNumeric(s); got != want {
			t.Errorf("isNumeric(%q) = %v, want %v", s, got, want)
		}
	}
}
