// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"net"
	"strings"
	"testing"

	"github.com/robmacrae/wsh/internal/config"
)

func TestRunServeFailsLoudlyOnPortConflict(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	cfg := config.Default()
	cfg.Listen = ln.Addr().String()

	err = runServe(&cfg)
	if err == nil {
		t.Fatal("expected error binding an already-listening address")
	}
	if !strings.Contains(err.Error(), "listen on") {
		t.Errorf("error = %q, want it to mention the listen failure", err.Error())
	}
}
