// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package ws is the WebSocket glue layer: one connection per client
// multiplexes the raw PTY byte stream (binary frames) with the structured
// JSON query/event channel (text frames), exactly as a terminal's single
// socket naturally wants to.
package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/robmacrae/wsh/internal/activity"
	"github.com/robmacrae/wsh/internal/broker"
	"github.com/robmacrae/wsh/internal/input"
	"github.com/robmacrae/wsh/internal/session"
	"github.com/robmacrae/wsh/internal/vt"
	"github.com/robmacrae/wsh/internal/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// outbound is one frame queued for delivery to the client.
type outbound struct {
	binary bool
	data   []byte
}

// Client owns one WebSocket connection attached to a single session. It is
// also that session's identity for overlay/panel ownership and input
// capture: disconnecting releases everything this connection created or
// held.
type Client struct {
	id   string
	conn *websocket.Conn
	sess *session.Session

	out chan outbound

	rawSub *broker.Subscription

	mu          sync.Mutex
	vtSub       *vt.Subscription
	inputSub    *input.Subscription
	eventCancel chan struct{}

	quiesceMu      sync.Mutex
	quiesceGen     uint64
	quiescePending any

	// maxWaitDefault is the await_quiesce wait ceiling applied when a
	// request doesn't specify max_wait_ms. Set by the router right after
	// construction; zero is never observed past that point.
	maxWaitDefault time.Duration
}

// NewClient subscribes to the session's raw output stream and returns a
// Client ready to run. The caller then calls Run, which starts the read,
// write and raw-output pumps.
func NewClient(conn *websocket.Conn, sess *session.Session) *Client {
	return &Client{
		id:             uuid.NewString(),
		conn:           conn,
		sess:           sess,
		out:            make(chan outbound, 256),
		rawSub:         sess.Broker.SubscribeStreaming(),
		maxWaitDefault: activity.DefaultMaxWait,
	}
}

// Run starts every per-connection goroutine and blocks until the
// connection closes, at which point it tears down everything this
// connection owned: subscriptions, input capture, and owned overlays and
// panels.
func (c *Client) Run() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.readPump()
	}()
	go c.rawPump()
	c.writePump(done)

	c.sess.Input.HolderDisconnected(c.id)
	c.sess.Overlays.ClearOwnedBy(c.id)
	c.sess.Panels.ClearOwnedBy(c.id)
	c.sess.RequestOverlayRender()
	c.rawSub.Close()
	c.stopEventPump()
}

// rawPump forwards raw PTY bytes from the session's broadcast subscription
// straight to the client as binary frames.
func (c *Client) rawPump() {
	for data := range c.rawSub.C() {
		c.send(outbound{binary: true, data: data})
	}
}

// readPump reads both binary (raw input) and text (structured request)
// frames off the connection until it errs or closes.
func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleRawInput(data)
		case websocket.TextMessage:
			c.handleStructured(data)
		}
	}
}

// handleRawInput routes raw bytes received on the binary frame channel
// through the input arbiter, same as a send_input structured call would.
func (c *Client) handleRawInput(data []byte) {
	toPTY, _ := c.sess.Input.RoutedInput(data)
	if toPTY {
		c.sess.Writer.Enqueue(data, time.Time{})
	}
}

func (c *Client) handleStructured(data []byte) {
	var req wire.Request
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendJSON(wire.Response{Error: wire.NewError(wire.CodeInvalidRequest, "malformed json: %v", err)})
		return
	}

	handler, ok := methodTable[req.Method]
	if !ok {
		c.sendJSON(wire.Fail(req, wire.NewError(wire.CodeUnknownMethod, "unknown method %q", req.Method)))
		return
	}

	result, wireErr := handler(c, req)
	if wireErr != nil {
		c.sendJSON(wire.Fail(req, wireErr))
		return
	}
	if result == deferredResponse {
		// The handler (await_quiesce) sends its own response asynchronously.
		return
	}
	c.sendJSON(wire.OK(req, result))
}

// writePump drains the outbound queue to the connection and sends periodic
// pings, until done fires (readPump exited) or a write fails.
func (c *Client) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			frameType := websocket.TextMessage
			if msg.binary {
				frameType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(frameType, msg.data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

func (c *Client) send(msg outbound) {
	select {
	case c.out <- msg:
	default:
		// The outbound queue only fills when the client is badly behind on
		// reading; drop rather than block every other subsystem that wants
		// to talk to this connection.
		log.Printf("[ws] client %s outbound queue full, dropping frame", c.id)
	}
}

func (c *Client) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[ws] marshal error: %v", err)
		return
	}
	c.send(outbound{binary: false, data: data})
}
