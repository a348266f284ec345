// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package vt

import (
	"encoding/json"
	"testing"
)

func TestFormattedLineMarshalsPlainAsBareString(t *testing.T) {
	f := FormattedLine{Plain: "hello"}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"hello"` {
		t.Fatalf("got %s, want bare string", data)
	}
}

func TestFormattedLineMarshalsSpansAsBareArray(t *testing.T) {
	f := FormattedLine{HasSpans: true, Spans: []Span{{Text: "hi"}}}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var spans []Span
	if err := json.Unmarshal(data, &spans); err != nil {
		t.Fatalf("expected bare array, got %s: %v", data, err)
	}
	if len(spans) != 1 || spans[0].Text != "hi" {
		t.Fatalf("got %+v", spans)
	}
}

func TestFormattedLineUnmarshalRoundTrip(t *testing.T) {
	original := FormattedLine{HasSpans: true, Spans: []Span{{Text: "a"}, {Text: "b"}}}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded FormattedLine
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.PlainText() != "ab" {
		t.Fatalf("PlainText() = %q, want %q", decoded.PlainText(), "ab")
	}
}

func TestFormattedLinePlainTextFromPlainField(t *testing.T) {
	f := FormattedLine{Plain: "plain text"}
	if f.PlainText() != "plain text" {
		t.Fatalf("got %q", f.PlainText())
	}
}
