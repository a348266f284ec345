// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package pty

// ExitCallback is invoked exactly once when the child process exits. The
// monitor holds only the session name/ID it was given at construction, not a
// back-reference to the registry itself, so the registry can resolve the
// session by lookup rather than the two sharing ownership of each other.
type ExitCallback func(sessionID string, exitErr error)

// RunExitMonitor waits for p.Done() and then invokes cb exactly once. It is
// meant to be run in its own goroutine for the lifetime of the session.
func RunExitMonitor(sessionID string, p *PTY, cb ExitCallback) {
	<-p.Done()
	cb(sessionID, p.ExitError())
}
