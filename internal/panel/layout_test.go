// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package panel

import "testing"

func TestComputeLayoutWithNoPanelsUsesFullScreen(t *testing.T) {
	l := ComputeLayout(nil, 24, 80)
	if l.ScrollRegionTop != 1 || l.ScrollRegionBottom != 24 || l.PTYRows != 24 || l.PTYCols != 80 {
		t.Fatalf("got %+v, want full-screen layout", l)
	}
}

func TestComputeLayoutAllocatesTopAndBottomBands(t *testing.T) {
	panels := []Panel{
		{ID: "top1", Position: Top, Height: 3, Z: 1},
		{ID: "bot1", Position: Bottom, Height: 2, Z: 1},
	}
	l := ComputeLayout(panels, 24, 80)

	if !l.Visible["top1"] || !l.Visible["bot1"] {
		t.Fatalf("expected both panels visible, got %+v", l.Visible)
	}
	if l.ScrollRegionTop != 4 {
		t.Fatalf("got scroll_region_top=%d, want 4", l.ScrollRegionTop)
	}
	if l.ScrollRegionBottom != 22 {
		t.Fatalf("got scroll_region_bottom=%d, want 22", l.ScrollRegionBottom)
	}
	if l.PTYRows != 19 {
		t.Fatalf("got pty_rows=%d, want 19", l.PTYRows)
	}
}

func TestComputeLayoutHidesLowestZWhenOverBudget(t *testing.T) {
	panels := []Panel{
		{ID: "high", Position: Top, Height: 10, Z: 5},
		{ID: "low", Position: Top, Height: 10, Z: 1},
	}
	l := ComputeLayout(panels, 15, 80)

	if !l.Visible["high"] {
		t.Fatal("expected higher-z panel to be visible")
	}
	if l.Visible["low"] {
		t.Fatal("expected lower-z panel to be hidden when budget is exhausted")
	}
}

func TestComputeLayoutKeepsAtLeastOnePTYRow(t *testing.T) {
	panels := []Panel{
		{ID: "giant", Position: Top, Height: 23, Z: 1},
	}
	l := ComputeLayout(panels, 24, 80)
	if l.PTYRows < 1 {
		t.Fatalf("got pty_rows=%d, want >= 1", l.PTYRows)
	}
}

func TestComputeLayoutHidesPanelRequestingMoreThanAllRows(t *testing.T) {
	panels := []Panel{
		{ID: "oversized", Position: Top, Height: 100, Z: 1},
	}
	l := ComputeLayout(panels, 24, 80)
	if l.Visible["oversized"] {
		t.Fatal("expected panel requesting more than rows to be hidden")
	}
	if l.PTYRows != 24 {
		t.Fatalf("got pty_rows=%d, want 24 (no panels actually allocated)", l.PTYRows)
	}
}

func TestComputeLayoutExactlyOneRowLeftForPTYIsAllowed(t *testing.T) {
	panels := []Panel{
		{ID: "tall", Position: Top, Height: 23, Z: 1},
	}
	l := ComputeLayout(panels, 24, 80)
	if !l.Visible["tall"] {
		t.Fatal("expected panel to be visible, leaving exactly one PTY row")
	}
	if l.PTYRows != 1 {
		t.Fatalf("got pty_rows=%d, want 1", l.PTYRows)
	}
}
