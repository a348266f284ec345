// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package panel stores and lays out fixed row-band panels that sit above
// and below a session's PTY scroll region.
package panel

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/robmacrae/wsh/internal/vt"
)

// ErrNotFound is returned by operations addressing a panel ID that doesn't
// exist (or was already deleted).
var ErrNotFound = errors.New("panel: not found")

// Position is which band of the screen a panel occupies.
type Position string

const (
	Top    Position = "top"
	Bottom Position = "bottom"
)

// Panel is a fixed-height row band rendered outside the PTY's scroll
// region, so raw PTY output can never overwrite it.
type Panel struct {
	ID       string    `json:"id"`
	Position Position  `json:"position"`
	Height   int       `json:"height"`
	Z        int       `json:"z"`
	Spans    []vt.Span `json:"spans"`
	Visible  bool      `json:"visible"`
	OwnerID  string    `json:"-"`
}

// Patch carries the optional fields of a partial panel update.
type Patch struct {
	Height *int
	Z      *int
}

// Store is a concurrent uuid -> Panel map.
type Store struct {
	mu     sync.RWMutex
	panels map[string]*Panel
	nextZ  int
}

// New creates an empty Store.
func New() *Store {
	return &Store{panels: make(map[string]*Panel)}
}

// Create inserts a new panel, auto-assigning z when nil. The panel starts
// invisible; visibility is only ever set by ApplyVisibility, from a
// ComputeLayout result.
func (s *Store) Create(pos Position, height int, z *int, spans []vt.Span, ownerID string) *Panel {
	s.mu.Lock()
	defer s.mu.Unlock()

	zVal := s.nextZ
	if z != nil {
		zVal = *z
	}
	if zVal >= s.nextZ {
		s.nextZ = zVal + 1
	}

	p := &Panel{
		ID:       uuid.NewString(),
		Position: pos,
		Height:   height,
		Z:        zVal,
		Spans:    append([]vt.Span(nil), spans...),
		OwnerID:  ownerID,
	}
	s.panels[p.ID] = p
	return p
}

// Get returns a copy of the panel with the given ID.
func (s *Store) Get(id string) (Panel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.panels[id]
	if !ok {
		return Panel{}, ErrNotFound
	}
	return *p, nil
}

// List returns every panel.
func (s *Store) List() []Panel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Panel, 0, len(s.panels))
	for _, p := range s.panels {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

// Update replaces a panel's spans wholesale.
func (s *Store) Update(id string, spans []vt.Span) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.panels[id]
	if !ok {
		return ErrNotFound
	}
	p.Spans = append([]vt.Span(nil), spans...)
	return nil
}

// Patch applies a partial height/z update.
func (s *Store) Patch(id string, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.panels[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Height != nil {
		p.Height = *patch.Height
	}
	if patch.Z != nil {
		p.Z = *patch.Z
	}
	return nil
}

// Delete removes a panel.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.panels[id]; !ok {
		return ErrNotFound
	}
	delete(s.panels, id)
	return nil
}

// Clear removes every panel.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panels = make(map[string]*Panel)
}

// ClearOwnedBy deletes every panel tagged with ownerID, for
// disconnect-triggered garbage collection.
func (s *Store) ClearOwnedBy(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.panels {
		if p.OwnerID == ownerID {
			delete(s.panels, id)
		}
	}
}

// ApplyVisibility writes back the visible flags computed by Layout.
func (s *Store) ApplyVisibility(visibility map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.panels {
		p.Visible = visibility[id]
	}
}
