// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLsCmd() *cobra.Command {
	var addr string
	var token string
	var insecure bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List sessions on a running wsh daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(cmd, addr, token, insecure)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7777", "wsh daemon address (host:port)")
	cmd.Flags().StringVar(&token, "token", os.Getenv("WSH_TOKEN"), "bearer token, if the daemon requires one")
	cmd.Flags().BoolVar(&insecure, "insecure", true, "use http:// instead of https://")

	return cmd
}

type lsSessionInfo struct {
	ID   string   `json:"id"`
	Name string   `json:"name,omitempty"`
	Tags []string `json:"tags,omitempty"`
	Rows int      `json:"rows"`
	Cols int      `json:"cols"`
}

func runLs(cmd *cobra.Command, addr, token string, insecure bool) error {
	scheme := "https"
	if insecure {
		scheme = "http"
	}
	url := fmt.Sprintf("%s://%s/sessions", scheme, addr)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	var body struct {
		Sessions []lsSessionInfo `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTAGS\tSIZE")
	for _, s := range body.Sessions {
		fmt.Fprintf(tw, "%s\t%s\t%v\t%dx%d\n", s.ID, s.Name, s.Tags, s.Cols, s.Rows)
	}
	return tw.Flush()
}
