// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package vt

import "encoding/json"

// MarshalJSON renders a FormattedLine as a bare JSON string when it's plain
// text, or as a bare JSON array of spans otherwise — an untagged wire shape
// so plain-text clients don't need to unwrap a variant just to read a line.
func (f FormattedLine) MarshalJSON() ([]byte, error) {
	if !f.HasSpans {
		return json.Marshal(f.Plain)
	}
	return json.Marshal(f.Spans)
}

// UnmarshalJSON accepts either shape back.
func (f *FormattedLine) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Plain = s
		f.HasSpans = false
		f.Spans = nil
		return nil
	}
	var spans []Span
	if err := json.Unmarshal(data, &spans); err != nil {
		return err
	}
	f.Spans = spans
	f.HasSpans = true
	f.Plain = ""
	return nil
}

// PlainText collapses a FormattedLine to plain text regardless of how it
// was built, by concatenating span text.
func (f FormattedLine) PlainText() string {
	if !f.HasSpans {
		return f.Plain
	}
	var out string
	for _, sp := range f.Spans {
		out += sp.Text
	}
	return out
}
