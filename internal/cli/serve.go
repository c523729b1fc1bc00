package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"setpace/internal/api"
	"setpace/internal/log"
	"setpace/internal/preferences"
	"setpace/internal/storage"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 5 * time.Second
	reapInterval    = time.Minute
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host timing sessions over HTTP",
	Long: `Runs the HTTP host. Sessions are created with POST /v1/rest and
POST /v1/tempo and followed with server-sent events at /events.
Changes to the settings file are picked up without a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides the settings file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := log.WithComponent("serve")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := settings.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	registry := api.NewRegistry(settings, nil)
	defer registry.Close()

	httpServer := &http.Server{
		Handler:           api.NewServer(registry, settings.RateLimit).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	cmd.Printf("Listening on %s\n", listener.Addr())

	if path, err := settingsPath(); err == nil {
		err := storage.WatchSettings(ctx, path, func(updated preferences.Settings) {
			registry.SetDefaults(updated)
		})
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("settings hot reload disabled")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", listener.Addr().String()).Msg("http server started")
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return registry.RunReaper(gctx, reapInterval)
	})

	return g.Wait()
}
