// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestRunLsPrintsSessionTable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"sessions": []lsSessionInfo{
				{ID: "abc123", Name: "build", Rows: 24, Cols: 80},
			},
		})
	}))
	defer ts.Close()

	addr := strings.TrimPrefix(ts.URL, "http://")

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	if err := runLs(cmd, addr, "", true); err != nil {
		t.Fatalf("runLs: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "abc123") || !strings.Contains(out, "build") || !strings.Contains(out, "80x24") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestRunLsFailsOnUnreachableDaemon(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := runLs(cmd, "127.0.0.1:1", "", true)
	if err == nil {
		t.Fatal("expected an error when the daemon is unreachable")
	}
}
