// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package vt

import "sync"

// EventCapacity is the bounded capacity of each structured subscriber's
// event channel.
const EventCapacity = 256

// Subscription delivers the parser's event stream to one structured
// consumer. Mirrors the broker's per-subscriber channel-map shape, with an
// added out-of-band lag counter so a slow consumer is told "you missed N
// events" instead of silently losing them.
type Subscription struct {
	id     uint64
	events chan Event
	lagged chan Lagged
	hub    *eventHub
}

func (s *Subscription) Events() <-chan Event  { return s.events }
func (s *Subscription) Lagged() <-chan Lagged { return s.lagged }
func (s *Subscription) Close()                { s.hub.unsubscribe(s.id) }

type eventHub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[uint64]*Subscription)}
}

func (h *eventHub) subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	sub := &Subscription{
		id:     id,
		events: make(chan Event, EventCapacity),
		lagged: make(chan Lagged, 1),
		hub:    h,
	}
	h.subs[id] = sub
	return sub
}

func (h *eventHub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.events)
	}
}

func (h *eventHub) publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.events <- ev:
		default:
			// Fold any still-pending notice into this one, so the
			// subscriber reads the total number of events it missed.
			var missed Lagged
			select {
			case missed = <-sub.lagged:
			default:
			}
			missed.Count++
			select {
			case sub.lagged <- missed:
			default:
			}
		}
	}
}

func (h *eventHub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
