// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAttachCmd() *cobra.Command {
	var addr string
	var token string
	var insecure bool

	cmd := &cobra.Command{
		Use:   "attach <session>",
		Short: "Attach the local terminal to a running session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttach(addr, token, args[0], insecure)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7777", "wsh daemon address (host:port)")
	cmd.Flags().StringVar(&token, "token", os.Getenv("WSH_TOKEN"), "bearer token, if the daemon requires one")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "dial ws:// instead of wss://")

	return cmd
}

// runAttach puts the local terminal into raw mode, dials the session's raw
// byte stream, and copies bytes in both directions until either side
// closes. SIGWINCH is forwarded as a resize call on the structured
// channel; SIGINT is forwarded to the remote session instead of killing
// the local client, matching how a real terminal delivers Ctrl-C to the
// foreground process.
func runAttach(addr, token, sessionID string, insecure bool) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("attach requires an interactive terminal")
	}

	scheme := "wss"
	if insecure {
		scheme = "ws"
	}
	rawURL := fmt.Sprintf("%s://%s/ws/%s", scheme, addr, sessionID)

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(rawURL, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", rawURL, err)
	}
	defer conn.Close()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	profile := colorProfileName(termenv.NewOutput(os.Stdout).ColorProfile())
	if cols, rows, err := term.GetSize(fd); err == nil {
		sendResize(conn, cols, rows, profile)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH, syscall.SIGINT)
	defer signal.Stop(sigCh)
	go watchSignals(conn, fd, sigCh)

	errCh := make(chan error, 2)
	go func() {
		_, err := io.Copy(connWriter{conn}, os.Stdin)
		errCh <- err
	}()
	go func() {
		errCh <- pumpRemoteOutput(conn, os.Stdout)
	}()

	return <-errCh
}

// watchSignals forwards window-size changes as a resize call on the
// structured channel and relays Ctrl-C to the remote process as a raw
// ETX byte rather than letting the local process's default SIGINT
// handling tear down the attach client.
func watchSignals(conn *websocket.Conn, fd int, sigCh <-chan os.Signal) {
	for sig := range sigCh {
		switch sig {
		case syscall.SIGWINCH:
			if cols, rows, err := term.GetSize(fd); err == nil {
				sendResize(conn, cols, rows, "")
			}
		case syscall.SIGINT:
			conn.WriteMessage(websocket.BinaryMessage, []byte{0x03})
		}
	}
}

// colorProfileName maps a locally detected termenv profile to the name
// the server's resize method understands, so the remote renderer
// downgrades overlay/panel colors to match what this terminal can
// actually display instead of assuming truecolor.
func colorProfileName(p termenv.Profile) string {
	switch p {
	case termenv.Ascii:
		return "ascii"
	case termenv.ANSI:
		return "ansi"
	case termenv.ANSI256:
		return "ansi256"
	default:
		return "truecolor"
	}
}

func sendResize(conn *websocket.Conn, cols, rows int, colorProfile string) {
	fields := map[string]any{"cols": cols, "rows": rows}
	if colorProfile != "" {
		fields["color_profile"] = colorProfile
	}
	params, err := json.Marshal(fields)
	if err != nil {
		return
	}
	req := map[string]any{
		"id":     time.Now().UnixNano(),
		"method": "resize",
		"params": json.RawMessage(params),
	}
	data, err := json.Marshal(req)
	if err != nil {
		return
	}
	conn.WriteMessage(websocket.TextMessage, data)
}

// connWriter adapts *websocket.Conn to io.Writer for raw keystroke
// forwarding, so io.Copy can read stdin directly without an intermediate
// buffer loop.
type connWriter struct {
	conn *websocket.Conn
}

func (w connWriter) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// pumpRemoteOutput reads frames off the raw byte stream and writes them
// to out, ignoring any text frames (the structured channel's JSON
// responses share the same connection in this attach client's minimal
// mode and are simply discarded rather than parsed).
func pumpRemoteOutput(conn *websocket.Conn, out io.Writer) error {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	}
}
