// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package pty

import (
	"context"
	"log"
)

// Publisher is the subset of the broker's interface the reader task needs.
type Publisher interface {
	Publish(data []byte)
}

const readBufSize = 32 * 1024

// RunReader loops read(master) -> publish(bytes) until EOF, a closed fd, or
// ctx cancel. It never returns an error: the reader is a fire-and-forget
// task, and the exit monitor is what tells the rest of the session the
// child is gone.
func RunReader(ctx context.Context, p *PTY, pub Publisher) {
	buf := make([]byte, readBufSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := p.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			pub.Publish(data)
		}
		if err != nil {
			log.Printf("[pty] reader for %s stopping: %v", p.ID, err)
			return
		}
	}
}
