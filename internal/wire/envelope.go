// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package wire

import "encoding/json"

// Request is one client→server structured message: an id the server
// echoes back verbatim, a method name, and method-specific params.
type Request struct {
	ID     any             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is one server→client reply to a Request. Exactly one of
// Result or Error is set.
type Response struct {
	ID     any    `json:"id"`
	Method string `json:"method"`
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// OK builds a successful Response echoing the request's id and method.
func OK(req Request, result any) Response {
	return Response{ID: req.ID, Method: req.Method, Result: result}
}

// Fail builds an error Response echoing the request's id and method.
func Fail(req Request, err *Error) Response {
	return Response{ID: req.ID, Method: req.Method, Error: err}
}

// Event is one server-pushed, subscription-based message: line, cursor,
// mode, reset, sync, diff, input, or lagged. Unlike Response it carries no
// id, since it isn't a reply to any particular request.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
