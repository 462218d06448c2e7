// Command spotify-remote runs the Spotify proxy server and a terminal remote control for it.
package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/justestif/spotify-remote/internal/apierr"
)

func main() {
	logger := NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:    "spotify-remote",
		Usage:   "Spotify remote control and OAuth proxy",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
				Value: "info",
			},
		},
		Before:   runner.setup,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, apierr.ErrUnauthenticated) {
			logger.Error("not logged in", "hint", "run spotify-remote login", "err", err)
			os.Exit(2)
		}
		logger.Fatal("application error", "err", err)
	}
}

// NewLogger creates a timestamped logger writing to w, or stderr when w is nil.
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{ReportTimestamp: true})
}
