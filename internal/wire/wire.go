// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package wire holds the error codes and envelope shapes shared by the
// WebSocket and HTTP surfaces, so both speak exactly one error taxonomy
// instead of each inventing its own strings.
package wire

import "fmt"

// Code identifies one entry in the wire error taxonomy. Every error
// returned to a caller over WS or HTTP carries one of these.
type Code string

const (
	CodeInvalidRequest    Code = "invalid_request"
	CodeUnknownMethod     Code = "unknown_method"
	CodeParserUnavailable Code = "parser_unavailable"
	CodeOverlayNotFound   Code = "overlay_not_found"
	CodePanelNotFound     Code = "panel_not_found"
	CodeInputSendFailed   Code = "input_send_failed"
	CodeFocusTaken        Code = "focus_taken"
	CodeQuiesceSuperseded Code = "quiesce_superseded"
	CodeSessionNotFound   Code = "session_not_found"
	CodeNameConflict      Code = "name_conflict"
	CodeAuthRequired      Code = "auth_required"
	CodeAuthInvalid       Code = "auth_invalid"
	CodeInternalError     Code = "internal_error"
)

// Error is a taxonomy-tagged error that can be serialized straight into a
// response envelope's "error" field. It implements the error interface so
// it composes with normal Go error handling up until the point it's
// written to a client.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds an Error from a code and a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// HTTPStatus maps a wire error code to the HTTP status the httpapi package
// should respond with. Codes not listed here fall back to 500.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidRequest, CodeUnknownMethod:
		return 400
	case CodeAuthRequired:
		return 401
	case CodeAuthInvalid, CodeFocusTaken:
		return 403
	case CodeOverlayNotFound, CodePanelNotFound, CodeSessionNotFound:
		return 404
	case CodeNameConflict, CodeQuiesceSuperseded:
		return 409
	case CodeInputSendFailed, CodeParserUnavailable:
		return 502
	default:
		return 500
	}
}
