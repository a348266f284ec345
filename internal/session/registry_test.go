// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package session

import (
	"testing"
	"time"
)

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry()
	s, err := r.Create(Spec{Command: "cat", Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer r.ForceKill(s.ID)

	got, err := r.Get(s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Fatal("expected Get to return the same session instance")
	}
}

func TestRegistryCreateRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	a, err := r.Create(Spec{Name: "shared", Command: "cat", Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer r.ForceKill(a.ID)

	_, err = r.Create(Spec{Name: "shared", Command: "cat", Rows: 24, Cols: 80})
	if err != ErrNameConflict {
		t.Fatalf("got %v, want ErrNameConflict", err)
	}
}

func TestRegistryGetByName(t *testing.T) {
	r := NewRegistry()
	s, err := r.Create(Spec{Name: "main", Command: "cat", Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer r.ForceKill(s.ID)

	got, err := r.GetByName("main")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.ID != s.ID {
		t.Fatalf("got id=%s, want %s", got.ID, s.ID)
	}
}

func TestRegistryGetReturnsNotFoundForUnknownID(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("missing"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRegistryForceKillRemovesSession(t *testing.T) {
	r := NewRegistry()
	s, err := r.Create(Spec{Command: "cat", Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := r.ForceKill(s.ID); err != nil {
		t.Fatalf("ForceKill: %v", err)
	}
	if _, err := r.Get(s.ID); err != ErrNotFound {
		t.Fatalf("expected session removed from registry, got %v", err)
	}
}

func TestRegistryListReturnsAllSessions(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Create(Spec{Command: "cat", Rows: 24, Cols: 80})
	b, _ := r.Create(Spec{Command: "cat", Rows: 24, Cols: 80})
	defer r.ForceKill(a.ID)
	defer r.ForceKill(b.ID)

	if len(r.List()) != 2 {
		t.Fatalf("got %d sessions, want 2", len(r.List()))
	}
}

func TestRegistryShutdownClosesAllSessionsAndClearsRegistry(t *testing.T) {
	r := NewRegistry()
	s, err := r.Create(Spec{Command: "cat", Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	r.Shutdown()

	if len(r.List()) != 0 {
		t.Fatal("expected empty registry after Shutdown")
	}
	select {
	case <-s.PTY.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected child to exit after Shutdown")
	}
}

func TestRegistryOnChildExitRemovesSessionWithoutExplicitKill(t *testing.T) {
	r := NewRegistry()
	s, err := r.Create(Spec{Name: "short-lived", Command: "true", Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := r.Get(s.ID); err == ErrNotFound {
			if _, err := r.GetByName("short-lived"); err != ErrNotFound {
				t.Fatal("expected name to be released once the child exited on its own")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected the registry to reap the session once its child exited")
}
