// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package input

// namedSequences maps the raw bytes of common key sequences to a readable
// name, covering the escape sequences a terminal actually sends for arrow
// keys and navigation, plus a handful of single-byte controls.
var namedSequences = map[string]string{
	"\x1b[A": "up",
	"\x1b[B": "down",
	"\x1b[C": "right",
	"\x1b[D": "left",
	"\x1bOA": "up",
	"\x1bOB": "down",
	"\x1bOC": "right",
	"\x1bOD": "left",
	"\x1b[H": "home",
	"\x1b[F": "end",
	"\x1b[5~": "page_up",
	"\x1b[6~": "page_down",
	"\x1b[3~": "delete",
	"\r":    "enter",
	"\n":    "enter",
	"\t":    "tab",
	"\x7f":  "backspace",
	"\x08":  "backspace",
	"\x1b":  "escape",
	"\x03":  "ctrl+c",
	"\x04":  "ctrl+d",
	"\x1a":  "ctrl+z",
}

// ParseKey does a best-effort decoding of a single key event's raw bytes
// into a readable name. Multi-key chunks and unrecognized sequences return
// "" — callers still have raw_bytes to fall back on.
func ParseKey(raw []byte) string {
	if name, ok := namedSequences[string(raw)]; ok {
		return name
	}
	if len(raw) == 1 && raw[0] >= 0x20 && raw[0] < 0x7f {
		return string(raw)
	}
	return ""
}
