// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package panel

import "sort"

// Layout is the result of greedily allocating row bands to panels. It has
// no dependency on the Store or any I/O, so it's trivial to test in
// isolation from the renderer that consumes it.
type Layout struct {
	Visible            map[string]bool
	ScrollRegionTop    int
	ScrollRegionBottom int
	PTYRows            int
	PTYCols            int
}

// ComputeLayout separates panels by position, greedily allocates row budget
// to each group ordered by z descending, and derives the PTY's scroll
// region from what's left. It never mutates panels; callers write the
// resulting Visible map back to the Store.
func ComputeLayout(panels []Panel, rows, cols int) Layout {
	visible := make(map[string]bool, len(panels))
	for _, p := range panels {
		visible[p.ID] = false
	}

	if len(panels) == 0 || rows <= 0 || cols <= 0 {
		return Layout{
			Visible:            visible,
			ScrollRegionTop:    1,
			ScrollRegionBottom: rows,
			PTYRows:            rows,
			PTYCols:            cols,
		}
	}

	top := allocate(filterByPosition(panels, Top), rows)
	bottom := allocate(filterByPosition(panels, Bottom), rows-sumHeights(top))

	topHeight := sumHeights(top)
	bottomHeight := sumHeights(bottom)

	for _, p := range top {
		visible[p.ID] = true
	}
	for _, p := range bottom {
		visible[p.ID] = true
	}

	scrollTop := 1 + topHeight
	scrollBottom := rows - bottomHeight
	ptyRows := scrollBottom - scrollTop + 1
	if ptyRows < 1 {
		ptyRows = 1
	}

	return Layout{
		Visible:            visible,
		ScrollRegionTop:    scrollTop,
		ScrollRegionBottom: scrollBottom,
		PTYRows:            ptyRows,
		PTYCols:            cols,
	}
}

func filterByPosition(panels []Panel, pos Position) []Panel {
	out := make([]Panel, 0, len(panels))
	for _, p := range panels {
		if p.Position == pos {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z > out[j].Z })
	return out
}

// allocate greedily accepts panels (highest z first) into the row budget,
// stopping as soon as fewer than 2 rows remain so the PTY always keeps at
// least one row.
func allocate(candidates []Panel, budget int) []Panel {
	var accepted []Panel
	remaining := budget
	for _, p := range candidates {
		if remaining <= 1 {
			break
		}
		if p.Height > remaining-1 {
			continue
		}
		accepted = append(accepted, p)
		remaining -= p.Height
	}
	return accepted
}

func sumHeights(panels []Panel) int {
	total := 0
	for _, p := range panels {
		total += p.Height
	}
	return total
}
