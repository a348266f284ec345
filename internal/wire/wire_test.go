// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package wire

import "testing"

func TestErrorImplementsErrorInterface(t *testing.T) {
	var err error = NewError(CodeSessionNotFound, "no session %q", "abc")
	if err.Error() != "session_not_found: no session \"abc\"" {
		t.Fatalf("got %q", err.Error())
	}
}

func TestHTTPStatusMapsKnownCodes(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInvalidRequest, 400},
		{CodeUnknownMethod, 400},
		{CodeAuthRequired, 401},
		{CodeAuthInvalid, 403},
		{CodeFocusTaken, 403},
		{CodeSessionNotFound, 404},
		{CodeOverlayNotFound, 404},
		{CodePanelNotFound, 404},
		{CodeNameConflict, 409},
		{CodeQuiesceSuperseded, 409},
		{CodeInputSendFailed, 502},
		{CodeParserUnavailable, 502},
		{CodeInternalError, 500},
	}
	for _, c := range cases {
		if got := c.code.HTTPStatus(); got != c.want {
			t.Errorf("%s: got %d, want %d", c.code, got, c.want)
		}
	}
}

func TestHTTPStatusFallsBackToInternalServerErrorForUnknownCode(t *testing.T) {
	if got := Code("something_new").HTTPStatus(); got != 500 {
		t.Fatalf("got %d, want 500", got)
	}
}

func TestOKAndFailEchoRequestIDAndMethod(t *testing.T) {
	req := Request{ID: float64(7), Method: "get_screen"}

	ok := OK(req, map[string]int{"rows": 24})
	if ok.ID != req.ID || ok.Method != req.Method || ok.Error != nil {
		t.Fatalf("OK response mismatched request: %+v", ok)
	}

	fail := Fail(req, NewError(CodeInvalidRequest, "bad params"))
	if fail.ID != req.ID || fail.Method != req.Method || fail.Result != nil {
		t.Fatalf("Fail response mismatched request: %+v", fail)
	}
	if fail.Error.Code != CodeInvalidRequest {
		t.Fatalf("got code %s, want invalid_request", fail.Error.Code)
	}
}
