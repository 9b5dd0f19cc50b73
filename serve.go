package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/material-processor/internal/api"
)

const (
	// defaultAddr keeps the form on the loopback interface: POST /api/run
	// writes to caller-chosen paths and has no authentication.
	defaultAddr     = "localhost:8501"
	shutdownTimeout = 10 * time.Second
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := api.NewApp(&api.Handler{Labels: root.resolved, Version: version})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info().Str("addr", addr).Msg("Serving form")
				fmt.Fprintf(cmd.OutOrStdout(), "Open http://localhost%s in a browser (Ctrl+C to stop)\n", displayAddr(addr))
				if err := app.Listen(addr); err != nil {
					return fmt.Errorf("server stopped: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				log.Info().Msg("Shutting down")
				return app.ShutdownWithTimeout(shutdownTimeout)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "Listen address")
	return cmd
}

// displayAddr returns the ":port" part of a listen address.
func displayAddr(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return ":" + port
	}
	return addr
}
