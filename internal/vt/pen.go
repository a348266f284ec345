// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package vt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

// parsePenFromSGR decodes an ANSI SGR escape sequence (as produced by
// midterm.Format.Render(), e.g. "\x1b[1;4;31m") into a structured Pen. This
// parses the standard ECMA-48 SGR parameter codes rather than any
// midterm-internal representation, since the rendered escape sequence is
// the only output the terminal library actually exposes per region.
func parsePenFromSGR(sgr string) Pen {
	var p Pen
	params := sgrParams(sgr)
	for i := 0; i < len(params); i++ {
		n := params[i]
		switch {
		case n == 0:
			p = Pen{}
		case n == 1:
			p.Bold = true
		case n == 2:
			p.Faint = true
		case n == 3:
			p.Italic = true
		case n == 4:
			p.Underline = true
		case n == 5:
			p.Blink = true
		case n == 7:
			p.Inverse = true
		case n == 9:
			p.Strikethrough = true
		case n == 22:
			p.Bold, p.Faint = false, false
		case n == 23:
			p.Italic = false
		case n == 24:
			p.Underline = false
		case n == 25:
			p.Blink = false
		case n == 27:
			p.Inverse = false
		case n == 29:
			p.Strikethrough = false
		case n >= 30 && n <= 37:
			idx := n - 30
			p.FgIndexed = &idx
		case n == 38:
			consumed, rgb, indexed := parseExtendedColor(params[i:])
			i += consumed
			applyExtended(&p, true, rgb, indexed)
		case n == 39:
			p.FgIndexed, p.FgRGB = nil, nil
		case n >= 40 && n <= 47:
			idx := n - 40
			p.BgIndexed = &idx
		case n == 48:
			consumed, rgb, indexed := parseExtendedColor(params[i:])
			i += consumed
			applyExtended(&p, false, rgb, indexed)
		case n == 49:
			p.BgIndexed, p.BgRGB = nil, nil
		case n >= 90 && n <= 97:
			idx := n - 90 + 8
			p.FgIndexed = &idx
		case n >= 100 && n <= 107:
			idx := n - 100 + 8
			p.BgIndexed = &idx
		}
	}
	return p
}

func applyExtended(p *Pen, fg bool, rgb *RGB, indexed *int) {
	if fg {
		p.FgRGB, p.FgIndexed = rgb, indexed
		return
	}
	p.BgRGB, p.BgIndexed = rgb, indexed
}

// parseExtendedColor reads a "38;5;n" or "38;2;r;g;b" run starting at
// params[0]==38 (or 48). Returns how many extra params were consumed beyond
// the leading 38/48 itself.
func parseExtendedColor(params []int) (consumed int, rgb *RGB, indexed *int) {
	if len(params) < 2 {
		return 0, nil, nil
	}
	switch params[1] {
	case 5:
		if len(params) < 3 {
			return 1, nil, nil
		}
		idx := params[2]
		return 2, nil, &idx
	case 2:
		if len(params) < 5 {
			return len(params) - 1, nil, nil
		}
		return 4, &RGB{R: uint8(params[2]), G: uint8(params[3]), B: uint8(params[4])}, nil
	}
	return 1, nil, nil
}

func sgrParams(sgr string) []int {
	start := strings.IndexByte(sgr, '[')
	end := strings.IndexByte(sgr, 'm')
	if start < 0 || end < 0 || end <= start {
		return nil
	}
	body := sgr[start+1 : end]
	if body == "" {
		return []int{0}
	}
	fields := strings.Split(body, ";")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// RenderSGR builds an ANSI SGR escape sequence for a server-authored pen
// (overlay/panel spans), downgrading any RGB/indexed color through profile
// so a client with a narrower terminal than truecolor still gets a usable
// approximation rather than a raw 24-bit escape it can't interpret. The
// attribute codes (bold, underline, ...) aren't color and pass through
// unchanged regardless of profile.
func RenderSGR(p Pen, profile termenv.Profile) string {
	var codes []string
	if p.Bold {
		codes = append(codes, "1")
	}
	if p.Faint {
		codes = append(codes, "2")
	}
	if p.Italic {
		codes = append(codes, "3")
	}
	if p.Underline {
		codes = append(codes, "4")
	}
	if p.Blink {
		codes = append(codes, "5")
	}
	if p.Inverse {
		codes = append(codes, "7")
	}
	if p.Strikethrough {
		codes = append(codes, "9")
	}
	if p.FgIndexed != nil {
		appendColorCode(&codes, profile, strconv.Itoa(*p.FgIndexed), false)
	} else if p.FgRGB != nil {
		appendColorCode(&codes, profile, hexString(*p.FgRGB), false)
	}
	if p.BgIndexed != nil {
		appendColorCode(&codes, profile, strconv.Itoa(*p.BgIndexed), true)
	} else if p.BgRGB != nil {
		appendColorCode(&codes, profile, hexString(*p.BgRGB), true)
	}
	if len(codes) == 0 {
		return "\x1b[0m"
	}
	return "\x1b[0;" + strings.Join(codes, ";") + "m"
}

// appendColorCode converts colorSpec (a "#rrggbb" hex string or a 0-255
// ANSI index) into the SGR parameter sequence profile would actually
// render it as, downgrading truecolor/256-color requests to whatever
// profile supports. An Ascii profile strips color entirely, so nothing is
// appended in that case.
func appendColorCode(codes *[]string, profile termenv.Profile, colorSpec string, bg bool) {
	seq := profile.Color(colorSpec).Sequence(bg)
	if seq != "" {
		*codes = append(*codes, seq)
	}
}

func hexString(c RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColorProfile maps a configured color-profile name (as set via
// config/flag/a client's attach-time negotiation) to the termenv profile
// RenderSGR should downgrade through. An empty or unrecognized name
// defaults to TrueColor, matching the absence of any negotiated
// downgrade.
func ParseColorProfile(name string) termenv.Profile {
	switch strings.ToLower(name) {
	case "ascii":
		return termenv.Ascii
	case "ansi":
		return termenv.ANSI
	case "ansi256":
		return termenv.ANSI256
	default:
		return termenv.TrueColor
	}
}
