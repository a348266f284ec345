// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package panel

import (
	"testing"

	"github.com/robmacrae/wsh/internal/vt"
)

func TestCreateAutoAssignsIncreasingZ(t *testing.T) {
	s := New()
	a := s.Create(Top, 3, nil, nil, "")
	b := s.Create(Top, 3, nil, nil, "")
	if b.Z <= a.Z {
		t.Fatalf("expected increasing z, got a.Z=%d b.Z=%d", a.Z, b.Z)
	}
}

func TestCreateHonorsExplicitZ(t *testing.T) {
	s := New()
	z := 9
	p := s.Create(Bottom, 2, &z, nil, "")
	if p.Z != 9 {
		t.Fatalf("got z=%d, want 9", p.Z)
	}
}

func TestGetReturnsNotFoundForMissingID(t *testing.T) {
	s := New()
	if _, err := s.Get("missing"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListSortsByZAscending(t *testing.T) {
	s := New()
	zHigh, zLow := 5, 1
	s.Create(Top, 1, &zHigh, nil, "")
	s.Create(Top, 1, &zLow, nil, "")

	list := s.List()
	if len(list) != 2 || list[0].Z != 1 || list[1].Z != 5 {
		t.Fatalf("got %+v, want ascending z order", list)
	}
}

func TestUpdateReplacesSpans(t *testing.T) {
	s := New()
	p := s.Create(Top, 1, nil, []vt.Span{{Text: "old"}}, "")
	if err := s.Update(p.ID, []vt.Span{{Text: "new"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.Get(p.ID)
	if len(got.Spans) != 1 || got.Spans[0].Text != "new" {
		t.Fatalf("got %+v", got.Spans)
	}
}

func TestPatchUpdatesOnlyGivenFields(t *testing.T) {
	s := New()
	p := s.Create(Top, 3, nil, nil, "")
	newHeight := 5
	if err := s.Patch(p.ID, Patch{Height: &newHeight}); err != nil {
		t.Fatalf("Patch: %v", err)
	}
	got, _ := s.Get(p.ID)
	if got.Height != 5 || got.Position != Top {
		t.Fatalf("got %+v, want height=5 position unchanged", got)
	}
}

func TestDeleteRemovesPanel(t *testing.T) {
	s := New()
	p := s.Create(Top, 1, nil, nil, "")
	if err := s.Delete(p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(p.ID); err != ErrNotFound {
		t.Fatalf("expected panel to be gone, got %v", err)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	s := New()
	s.Create(Top, 1, nil, nil, "")
	s.Create(Bottom, 1, nil, nil, "")
	s.Clear()
	if len(s.List()) != 0 {
		t.Fatalf("expected empty store after Clear, got %d", len(s.List()))
	}
}

func TestApplyVisibilityWritesBackFlags(t *testing.T) {
	s := New()
	p := s.Create(Top, 1, nil, nil, "")
	s.ApplyVisibility(map[string]bool{p.ID: true})
	got, _ := s.Get(p.ID)
	if !got.Visible {
		t.Fatal("expected panel to be marked visible")
	}
	s.ApplyVisibility(map[string]bool{})
	got, _ = s.Get(p.ID)
	if got.Visible {
		t.Fatal("expected panel to be marked invisible when absent from visibility map")
	}
}
