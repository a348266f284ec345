// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package overlay stores and renders floating, styled annotations painted
// on top of a session's live PTY screen without touching VT state.
package overlay

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/robmacrae/wsh/internal/vt"
)

// ErrNotFound is returned by operations addressing an overlay ID that
// doesn't exist (or was already deleted).
var ErrNotFound = errors.New("overlay: not found")

// Overlay is a positioned, ordered run of styled spans floating over the
// live screen. It never modifies VT state; it's painted over it at render
// time and restored away on the next frame.
type Overlay struct {
	ID      string    `json:"id"`
	X       int       `json:"x"`
	Y       int       `json:"y"`
	Z       int       `json:"z"`
	Spans   []vt.Span `json:"spans"`
	OwnerID string    `json:"-"`
}

// Patch carries the optional fields of a partial overlay update; a nil
// pointer means "leave unchanged".
type Patch struct {
	X *int
	Y *int
	Z *int
}

// Store is a concurrent uuid -> Overlay map, guarded by a single
// reader-writer lock so list/render reads don't contend with each other
// but never observe a torn write.
type Store struct {
	mu       sync.RWMutex
	overlays map[string]*Overlay
	nextZ    int
}

// New creates an empty Store.
func New() *Store {
	return &Store{overlays: make(map[string]*Overlay)}
}

// Create inserts a new overlay, auto-assigning z when z is nil: one higher
// than the highest z any earlier Create assigned. Deleted overlays and z
// values set through Patch do not change that value.
func (s *Store) Create(x, y int, z *int, spans []vt.Span, ownerID string) *Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()

	zVal := s.nextZ
	if z != nil {
		zVal = *z
	}
	if zVal >= s.nextZ {
		s.nextZ = zVal + 1
	}

	ov := &Overlay{
		ID:      uuid.NewString(),
		X:       x,
		Y:       y,
		Z:       zVal,
		Spans:   append([]vt.Span(nil), spans...),
		OwnerID: ownerID,
	}
	s.overlays[ov.ID] = ov
	return ov
}

// Get returns a copy of the overlay with the given ID.
func (s *Store) Get(id string) (Overlay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ov, ok := s.overlays[id]
	if !ok {
		return Overlay{}, ErrNotFound
	}
	return *ov, nil
}

// List returns every overlay, sorted by z ascending (render order).
func (s *Store) List() []Overlay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Overlay, 0, len(s.overlays))
	for _, ov := range s.overlays {
		out = append(out, *ov)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

// Update replaces an overlay's spans wholesale.
func (s *Store) Update(id string, spans []vt.Span) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ov, ok := s.overlays[id]
	if !ok {
		return ErrNotFound
	}
	ov.Spans = append([]vt.Span(nil), spans...)
	return nil
}

// Patch applies a partial position/z update.
func (s *Store) Patch(id string, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ov, ok := s.overlays[id]
	if !ok {
		return ErrNotFound
	}
	if p.X != nil {
		ov.X = *p.X
	}
	if p.Y != nil {
		ov.Y = *p.Y
	}
	if p.Z != nil {
		ov.Z = *p.Z
	}
	return nil
}

// Delete removes an overlay.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overlays[id]; !ok {
		return ErrNotFound
	}
	delete(s.overlays, id)
	return nil
}

// Clear removes every overlay.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays = make(map[string]*Overlay)
}

// ClearOwnedBy deletes every overlay tagged with ownerID, for
// disconnect-triggered garbage collection.
func (s *Store) ClearOwnedBy(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ov := range s.overlays {
		if ov.OwnerID == ownerID {
			delete(s.overlays, id)
		}
	}
}
