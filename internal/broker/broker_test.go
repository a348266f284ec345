// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package broker

import (
	"testing"
	"time"
)

func TestParserReceivesEveryByteChunk(t *testing.T) {
	b := New()
	parserCh, err := b.SubscribeParser()
	if err != nil {
		t.Fatalf("SubscribeParser: %v", err)
	}

	chunks := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	for _, c := range chunks {
		b.Publish(c)
	}

	for i, want := range chunks {
		select {
		case got := <-parserCh:
			if string(got) != string(want) {
				t.Fatalf("chunk %d: got %q, want %q", i, got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("chunk %d: timed out waiting for parser delivery", i)
		}
	}
}

func TestSubscribeParserTwiceFails(t *testing.T) {
	b := New()
	if _, err := b.SubscribeParser(); err != nil {
		t.Fatalf("first SubscribeParser: %v", err)
	}
	if _, err := b.SubscribeParser(); err != ErrParserAlreadySubscribed {
		t.Fatalf("second SubscribeParser: got %v, want ErrParserAlreadySubscribed", err)
	}
}

func TestStreamingSubscriberReceivesBytes(t *testing.T) {
	b := New()
	sub := b.SubscribeStreaming()
	defer sub.Close()

	b.Publish([]byte("hello"))

	select {
	case got := <-sub.C():
		if string(got) != "hello" {
			t.Fatalf("got %q, want %q", got, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for streaming delivery")
	}
}

func TestStreamingSubscriberDropsUnderLagInsteadOfBlocking(t *testing.T) {
	b := New()
	sub := b.SubscribeStreaming()
	defer sub.Close()

	// Overflow the bounded channel without ever reading; Publish must not
	// block the caller regardless of how far behind this subscriber falls.
	done := make(chan struct{})
	go func() {
		for i := 0; i < StreamingCapacity*4; i++ {
			b.Publish([]byte("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a lagging streaming subscriber")
	}
}

func TestCloseUnblocksStreamingReaders(t *testing.T) {
	b := New()
	sub := b.SubscribeStreaming()
	b.Close()

	select {
	case _, ok := <-sub.C():
		if ok {
			t.Fatal("expected closed channel to yield no value")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestUnsubscribeRemovesFromFanout(t *testing.T) {
	b := New()
	sub := b.SubscribeStreaming()
	if got := b.StreamingCount(); got != 1 {
		t.Fatalf("StreamingCount = %d, want 1", got)
	}
	sub.Close()
	if got := b.StreamingCount(); got != 0 {
		t.Fatalf("StreamingCount after close = %d, want 0", got)
	}
}

func TestNewWithCapacityHonorsExplicitSizes(t *testing.T) {
	b := NewWithCapacity(2, 3)
	parserCh, err := b.SubscribeParser()
	if err != nil {
		t.Fatalf("SubscribeParser: %v", err)
	}
	if cap(parserCh) != 2 {
		t.Fatalf("parser channel cap = %d, want 2", cap(parserCh))
	}
	sub := b.SubscribeStreaming()
	if cap(sub.ch) != 3 {
		t.Fatalf("streaming channel cap = %d, want 3", cap(sub.ch))
	}
}

func TestNewWithCapacityFallsBackToDefaultsOnNonPositive(t *testing.T) {
	b := NewWithCapacity(0, -1)
	if b.parserCap != ParserCapacity {
		t.Fatalf("parserCap = %d, want default %d", b.parserCap, ParserCapacity)
	}
	if b.streamingCap != StreamingCapacity {
		t.Fatalf("streamingCap = %d, want default %d", b.streamingCap, StreamingCapacity)
	}
}
