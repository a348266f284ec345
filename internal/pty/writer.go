// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package pty

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrWriteQueueFull is returned by Writer.Enqueue when the producer's
// deadline elapses before the bounded queue has room.
var ErrWriteQueueFull = errors.New("pty: write queue full")

// writeRequest pairs a buffer with the deadline its producer is willing to
// wait for queue space. Once queued, the write itself is not bounded by it.
type writeRequest struct {
	data     []byte
	deadline time.Time
}

// Writer serializes writes to a PTY's master fd through a single task, so
// the write half has exactly one owner. Producers enqueue with their own
// deadline; the queue itself is bounded so a hung child (not reading stdin)
// applies backpressure to producers rather than growing memory without
// limit.
type Writer struct {
	pty   *PTY
	queue chan writeRequest
}

// NewWriter creates a writer with the given bounded queue capacity.
func NewWriter(p *PTY, capacity int) *Writer {
	if capacity <= 0 {
		capacity = 256
	}
	return &Writer{pty: p, queue: make(chan writeRequest, capacity)}
}

// Enqueue submits data for writing, waiting up to deadline for queue space.
// A zero deadline means "wait forever" (bounded only by ctx, if the caller
// races Enqueue against a context via a select of its own).
func (w *Writer) Enqueue(data []byte, deadline time.Time) error {
	req := writeRequest{data: data, deadline: deadline}
	if deadline.IsZero() {
		w.queue <- req
		return nil
	}
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case w.queue <- req:
		return nil
	case <-timer.C:
		return ErrWriteQueueFull
	}
}

// Run drains the queue and writes each item to the PTY master, retrying
// partial writes until complete or the fd is closed. Returns when ctx is
// canceled or the queue is closed via Close.
func (w *Writer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-w.queue:
			if !ok {
				return
			}
			w.writeAll(req.data)
		}
	}
}

func (w *Writer) writeAll(data []byte) {
	for len(data) > 0 {
		n, err := w.pty.Write(data)
		if n > 0 {
			data = data[n:]
		}
		if err != nil {
			return
		}
	}
}

// Close stops accepting further writes. Safe to call once; a second call
// panics, matching the single-owner discipline of the queue channel.
func (w *Writer) Close() {
	close(w.queue)
}

// PTYWriter returns an io.Writer that enqueues through this Writer with no
// deadline, so overlay/panel render output and passthrough keystrokes
// share the same single-owner write path to the PTY master instead of
// racing each other on the fd directly.
func (w *Writer) PTYWriter() io.Writer {
	return ptyWriterAdapter{w}
}

type ptyWriterAdapter struct {
	w *Writer
}

func (a ptyWriterAdapter) Write(data []byte) (int, error) {
	if err := a.w.Enqueue(data, time.Time{}); err != nil {
		return 0, err
	}
	return len(data), nil
}
