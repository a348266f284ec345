// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/robmacrae/wsh/internal/auth"
	"github.com/robmacrae/wsh/internal/config"
	"github.com/robmacrae/wsh/internal/httpapi"
	"github.com/robmacrae/wsh/internal/session"
	"github.com/robmacrae/wsh/internal/ws"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the wsh daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	config.RegisterFlags(cmd.Flags())

	return cmd
}

// runServe binds the listener before doing anything else fallible, so a
// port conflict is reported immediately rather than after spawning any
// sessions.
func runServe(cfg *config.Config) error {
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Listen, err)
	}
	loopback := auth.IsLoopback(ln.Addr())
	authMW := auth.New(cfg.Token, loopback)
	if authMW.Enabled() {
		log.Printf("[serve] bearer token auth enabled (non-loopback bind)")
	} else if cfg.Token != "" {
		log.Printf("[serve] bound to loopback, bearer token ignored")
	}

	reg := session.NewRegistry()
	defer reg.Shutdown()

	mux := http.NewServeMux()

	wsRouter := ws.NewRouter(reg, cfg.MaxWaitDefault)
	mux.Handle("GET /ws/{session}", authMW.Require(http.HandlerFunc(wsRouter.HandleWebSocket)))

	api := httpapi.New(reg, authMW, httpapi.SessionDefaults{
		ScrollbackCap:     cfg.ScrollbackLines,
		IdleThreshold:     cfg.IdleThreshold,
		ParserCapacity:    cfg.ParserCapacity,
		BroadcastCapacity: cfg.BroadcastCapacity,
		MaxWaitDefault:    cfg.MaxWaitDefault,
		ColorProfile:      cfg.ColorProfile,
	})
	mux.Handle("/", api.Mux())

	server := &http.Server{Handler: mux}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()

	log.Printf("[serve] listening on %s", ln.Addr())

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Printf("[serve] shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	}
}
