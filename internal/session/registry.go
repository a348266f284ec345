// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package session

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Get, GetByName, Detach and ForceKill for an
// unknown session.
var ErrNotFound = errors.New("session: not found")

// ErrNameConflict is returned by Create when the requested name is
// already held by another live session.
var ErrNameConflict = errors.New("session: name already in use")

// Registry tracks every live Session, keyed by ID, with a name index for
// uniqueness. Create is a single atomic check-then-insert under the write
// lock so a concurrent lookup can never observe a reserved name with no
// backing session, or a session whose name was reserved by two callers at
// once.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	names    map[string]string // name -> session ID
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		names:    make(map[string]string),
	}
}

// Create spawns a new Session from spec and publishes it under a single
// critical section: name uniqueness is checked, the PTY is spawned, and
// the session is inserted before the lock is released, so no caller can
// observe the name reserved without a session behind it.
func (r *Registry) Create(spec Spec) (*Session, error) {
	r.mu.Lock()
	if spec.Name != "" {
		if _, taken := r.names[spec.Name]; taken {
			r.mu.Unlock()
			return nil, ErrNameConflict
		}
	}

	s, err := New(spec)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}

	if spec.Name != "" {
		r.names[spec.Name] = s.ID
	}
	r.sessions[s.ID] = s
	r.mu.Unlock()

	s.Run(r.onChildExit)
	return s, nil
}

// onChildExit removes a session from the registry once its child process
// has exited on its own (as opposed to being force-killed, which already
// removes it explicitly).
func (r *Registry) onChildExit(sessionID string, _ error) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, sessionID)
	if s.Name != "" {
		delete(r.names, s.Name)
	}
	r.mu.Unlock()
	s.Close()
}

// Get returns the session with the given ID.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// GetByName returns the session registered under the given name.
func (r *Registry) GetByName(name string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.names[name]
	if !ok {
		return nil, ErrNotFound
	}
	return r.sessions[id], nil
}

// List returns every live session.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Detach cancels a session's per-session tasks without killing its child,
// leaving the session registered so a new client can reattach.
func (r *Registry) Detach(id string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	s.Detach()
	return nil
}

// ForceKill force-kills a session's child and removes it from the
// registry.
func (r *Registry) ForceKill(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.sessions, id)
	if s.Name != "" {
		delete(r.names, s.Name)
	}
	r.mu.Unlock()
	return s.ForceKill()
}

// Shutdown drains every session: each is detached and then closed, which
// releases its PTY master fd and SIGHUPs any surviving child.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.names = make(map[string]string)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Detach()
		s.Close()
	}
}
