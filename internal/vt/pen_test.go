// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package vt

import (
	"testing"

	"github.com/muesli/termenv"
)

func TestParsePenFromSGRBasicAttributes(t *testing.T) {
	p := parsePenFromSGR("\x1b[1;4;31m")
	if !p.Bold || !p.Underline {
		t.Fatalf("expected bold+underline, got %+v", p)
	}
	if p.FgIndexed == nil || *p.FgIndexed != 1 {
		t.Fatalf("expected fg indexed 1, got %+v", p.FgIndexed)
	}
}

func TestParsePenFromSGRResetClearsAttributes(t *testing.T) {
	p := parsePenFromSGR("\x1b[0m")
	if p != (Pen{}) {
		t.Fatalf("expected zero Pen after reset, got %+v", p)
	}
}

func TestParsePenFromSGRExtendedTruecolor(t *testing.T) {
	p := parsePenFromSGR("\x1b[38;2;10;20;30m")
	if p.FgRGB == nil {
		t.Fatal("expected fg rgb to be set")
	}
	if p.FgRGB.R != 10 || p.FgRGB.G != 20 || p.FgRGB.B != 30 {
		t.Fatalf("got %+v", p.FgRGB)
	}
}

func TestParsePenFromSGRExtended256(t *testing.T) {
	p := parsePenFromSGR("\x1b[48;5;200m")
	if p.BgIndexed == nil || *p.BgIndexed != 200 {
		t.Fatalf("expected bg indexed 200, got %+v", p.BgIndexed)
	}
}

func TestRenderSGRRoundTripsIndexedColor(t *testing.T) {
	idx := 3
	p := Pen{FgIndexed: &idx, Bold: true}
	rendered := RenderSGR(p, termenv.TrueColor)
	got := parsePenFromSGR(rendered)
	if got.FgIndexed == nil || *got.FgIndexed != 3 || !got.Bold {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestRenderSGREmptyPenIsReset(t *testing.T) {
	if got := RenderSGR(Pen{}, termenv.TrueColor); got != "\x1b[0m" {
		t.Fatalf("got %q, want reset sequence", got)
	}
}
