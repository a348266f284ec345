// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package pty owns the master side of a pseudo-terminal bound to a child
// process: allocation, resize, signaling, and the read/write halves consumed
// exactly once by the reader and writer tasks.
package pty

import (
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"github.com/google/shlex"

	"github.com/robmacrae/wsh/internal/id"
)

// Signal identifies a signal deliverable to the child process.
type Signal int

const (
	SIGINT  Signal = Signal(syscall.SIGINT)
	SIGTERM Signal = Signal(syscall.SIGTERM)
	SIGKILL Signal = Signal(syscall.SIGKILL)
	SIGSTOP Signal = Signal(syscall.SIGSTOP)
	SIGCONT Signal = Signal(syscall.SIGCONT)
)

// wshAuthEnvVar is the server's own bearer token. It must never be visible
// to a spawned child, however it arrived in this process's environment.
const wshAuthEnvVar = "WSH_AUTH_TOKEN"

// PTY represents the master side of a Unix pseudo-terminal bound to a child
// process. The read half and write half are each consumed exactly once, by
// the reader and writer tasks respectively; resize is safe under concurrent
// callers via a mutex held only across the ioctl.
type PTY struct {
	ID   string
	file *os.File
	cmd  *exec.Cmd

	mu     sync.Mutex
	closed bool

	doneOnce sync.Once
	doneChan chan struct{}
}

// Spec describes how to spawn a child process attached to a new PTY.
type Spec struct {
	// Command is a shell-like command line, split with quote-aware rules.
	// If empty, DefaultShell() is used verbatim.
	Command string
	Cols    uint16
	Rows    uint16
	Dir     string
	Env     map[string]string
}

// New spawns a child process per spec and returns its owning PTY.
func New(spec Spec) (*PTY, error) {
	argv, err := splitCommand(spec.Command)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = buildEnv(spec.Env)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	return newWithCmd(cmd, spec.Cols, spec.Rows)
}

func splitCommand(command string) ([]string, error) {
	if command == "" {
		return []string{DefaultShell()}, nil
	}
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return []string{DefaultShell()}, nil
	}
	return argv, nil
}

func buildEnv(extra map[string]string) []string {
	base := os.Environ()
	env := make([]string, 0, len(base)+len(extra)+1)
	for _, kv := range base {
		if isKey(kv, wshAuthEnvVar) {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, "TERM=xterm-256color")
	for k, v := range extra {
		if k == wshAuthEnvVar {
			continue
		}
		env = append(env, k+"="+v)
	}
	return env
}

func isKey(kv, key string) bool {
	return len(kv) > len(key) && kv[len(key)] == '=' && kv[:len(key)] == key
}

func newWithCmd(cmd *exec.Cmd, cols, rows uint16) (*PTY, error) {
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return nil, err
	}
	ptyID, err := id.New()
	if err != nil {
		ptmx.Close()
		return nil, err
	}
	return &PTY{ID: ptyID, file: ptmx, cmd: cmd}, nil
}

// Read reads raw bytes from the master fd. Single-owner: only the reader
// task should call this.
func (p *PTY) Read(buf []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, os.ErrClosed
	}
	file := p.file
	p.mu.Unlock()
	return file.Read(buf)
}

// Write writes raw bytes to the master fd. Single-owner: only the writer
// task should call this.
func (p *PTY) Write(data []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, os.ErrClosed
	}
	file := p.file
	p.mu.Unlock()
	return file.Write(data)
}

// Resize changes the PTY window size. Safe under contention: the mutex is
// held only across the ioctl.
func (p *PTY) Resize(cols, rows uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return os.ErrClosed
	}
	return pty.Setsize(p.file, &pty.Winsize{Cols: cols, Rows: rows})
}

// Signal sends a signal to the child process.
func (p *PTY) Signal(sig Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return os.ErrClosed
	}
	if p.cmd.Process == nil {
		return os.ErrProcessDone
	}
	return p.cmd.Process.Signal(syscall.Signal(sig))
}

// Close releases the master fd, which delivers SIGHUP to any surviving
// child, and kills the process if it is still alive.
func (p *PTY) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	return p.file.Close()
}

// Done returns a channel that closes when the child process exits. The
// channel is cached so repeated calls do not leak goroutines.
func (p *PTY) Done() <-chan struct{} {
	p.doneOnce.Do(func() {
		p.doneChan = make(chan struct{})
		go func() {
			if p.cmd != nil {
				p.cmd.Wait()
			}
			close(p.doneChan)
		}()
	})
	return p.doneChan
}

// ExitError returns the child's exit error, if any. Only meaningful after
// Done() has fired.
func (p *PTY) ExitError() error {
	if p.cmd == nil || p.cmd.ProcessState == nil {
		return nil
	}
	if p.cmd.ProcessState.Success() {
		return nil
	}
	return &exec.ExitError{ProcessState: p.cmd.ProcessState}
}
