// Package main provides the entry point for the waypoint CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/waypoint/internal/cli"
	"github.com/mrz1836/waypoint/internal/signal"
)

// Set via ldflags at build time.
var (
	version = "dev"     //nolint:gochecknoglobals // ldflags target
	commit  = "none"    //nolint:gochecknoglobals // ldflags target
	date    = "unknown" //nolint:gochecknoglobals // ldflags target
)

func main() {
	h := signal.NewHandler(context.Background())
	err := cli.Execute(h.Context(), cli.BuildInfo{Version: version, Commit: commit, Date: date})
	interrupted := h.Received() != nil
	h.Stop()

	if interrupted {
		os.Exit(signal.ExitCodeInterrupted)
	}
	os.Exit(cli.ExitCodeForError(err))
}
