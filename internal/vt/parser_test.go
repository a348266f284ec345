// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package vt

import (
	"testing"
	"time"
)

func newTestParser() (*Parser, chan []byte) {
	chunks := make(chan []byte, 16)
	p := NewParser(chunks, 24, 80, 100)
	go p.Run()
	return p, chunks
}

func recvEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestParserEmitsLineEventOnWrite(t *testing.T) {
	p, chunks := newTestParser()
	sub := p.Subscribe()
	defer sub.Close()

	chunks <- []byte("hi")

	ev := recvEvent(t, sub)
	if ev.Event != EventLine {
		t.Fatalf("got event %q, want %q", ev.Event, EventLine)
	}
	if ev.Line.PlainText()[:2] != "hi" {
		t.Fatalf("line text = %q", ev.Line.PlainText())
	}
}

func TestParserSeqIsStrictlyMonotone(t *testing.T) {
	p, chunks := newTestParser()
	sub := p.Subscribe()
	defer sub.Close()

	chunks <- []byte("a")
	chunks <- []byte("b")

	first := recvEvent(t, sub)
	second := recvEvent(t, sub)
	if second.Seq <= first.Seq {
		t.Fatalf("seq did not increase: %d then %d", first.Seq, second.Seq)
	}
}

func TestParserScreenQueryReflectsWrites(t *testing.T) {
	p, chunks := newTestParser()
	chunks <- []byte("abc")
	time.Sleep(20 * time.Millisecond)

	reply := p.Query(Query{Kind: QueryScreen, Styled: true})
	if reply.Err != nil {
		t.Fatalf("unexpected error: %v", reply.Err)
	}
	if reply.Screen == nil {
		t.Fatal("expected a screen snapshot")
	}
	if reply.Screen.Cols != 80 || reply.Screen.Rows != 24 {
		t.Fatalf("got %dx%d, want 80x24", reply.Screen.Cols, reply.Screen.Rows)
	}
}

func TestParserResizeQueryEmitsResetAndSync(t *testing.T) {
	p, _ := newTestParser()
	sub := p.Subscribe()
	defer sub.Close()

	reply := p.Query(Query{Kind: QueryResize, Cols: 100, Rows: 30})
	if reply.Err != nil {
		t.Fatalf("unexpected error: %v", reply.Err)
	}
	if reply.Screen.Cols != 100 || reply.Screen.Rows != 30 {
		t.Fatalf("got %dx%d, want 100x30", reply.Screen.Cols, reply.Screen.Rows)
	}

	reset := recvEvent(t, sub)
	if reset.Event != EventReset || reset.Reason != ResetResize {
		t.Fatalf("got %+v, want a resize reset event", reset)
	}
	sync := recvEvent(t, sub)
	if sync.Event != EventSync {
		t.Fatalf("got %+v, want a sync event", sync)
	}
}

func TestParserAltScreenToggleEmitsResetModeAndSync(t *testing.T) {
	p, chunks := newTestParser()
	sub := p.Subscribe()
	defer sub.Close()

	chunks <- []byte(altScreenEnter)

	reset := recvEvent(t, sub)
	if reset.Event != EventReset || reset.Reason != ResetAltScreenEnter {
		t.Fatalf("got %+v, want an alt-screen-enter reset event", reset)
	}
	mode := recvEvent(t, sub)
	if mode.Event != EventMode || mode.AlternateScreen == nil || !*mode.AlternateScreen {
		t.Fatalf("got %+v, want mode event with alternate_screen=true", mode)
	}
	sync := recvEvent(t, sub)
	if sync.Event != EventSync || !sync.Screen.AlternateScreen {
		t.Fatalf("got %+v, want sync event with alternate_screen=true", sync)
	}
}

func TestParserCursorQueryMatchesLastWrite(t *testing.T) {
	p, chunks := newTestParser()
	chunks <- []byte("abcd")
	time.Sleep(20 * time.Millisecond)

	reply := p.Query(Query{Kind: QueryCursor})
	if reply.Err != nil {
		t.Fatalf("unexpected error: %v", reply.Err)
	}
	if reply.Cursor.Col != 4 {
		t.Fatalf("cursor col = %d, want 4", reply.Cursor.Col)
	}
}

func TestParserBecomesUnavailableAfterChunkChannelCloses(t *testing.T) {
	chunks := make(chan []byte)
	p := NewParser(chunks, 24, 80, 100)
	go p.Run()

	close(chunks)

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Run to return after the chunk channel closed")
	}

	if reply := p.Query(Query{Kind: QueryCursor}); reply.Err != ErrParserUnavailable {
		t.Fatalf("got err %v after shutdown, want ErrParserUnavailable", reply.Err)
	}
}

func TestParserSubscribersReceiveLaggedNotificationOnOverflow(t *testing.T) {
	p, chunks := newTestParser()
	sub := p.Subscribe()
	defer sub.Close()

	for i := 0; i < EventCapacity+10; i++ {
		chunks <- []byte("x")
	}

	select {
	case <-sub.Lagged():
	case <-time.After(time.Second):
		t.Fatal("expected a lagged notification once the event channel overflowed")
	}
}
