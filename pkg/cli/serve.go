package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bstardust/photo-atlas/internal/catalog"
	"github.com/bstardust/photo-atlas/internal/config"
	"github.com/bstardust/photo-atlas/internal/logger"
	"github.com/bstardust/photo-atlas/internal/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [flags] [<dir> | <archive.zip> | <glob>]...",
		Short: "Serve the catalog over HTTP, rebuilt on every request",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg, args)
		},
	}

	addPhotoFlags(cmd.Flags())
	cmd.Flags().String("addr", cfg.Server.Addr, "Listen address")
	cmd.Flags().Bool("cors", cfg.Server.CORS, "Allow cross-origin requests from any origin")
	cmd.Flags().Duration("request-timeout", cfg.Server.RequestTimeout, "Time limit for building the catalog of one request")

	return cmd
}

// newCatalogServer wires the pipeline into the HTTP handler
func newCatalogServer(cfg *config.Config, paths []string) (*server.Server, error) {
	p, err := newPipeline(cfg)
	if err != nil {
		return nil, err
	}

	build := func(ctx context.Context) (catalog.Catalog, error) {
		result, err := p.BuildCatalog(ctx, paths)
		if err != nil {
			return nil, err
		}
		return result.Catalog, nil
	}

	opts := []server.Option{
		server.WithLogger(logger.L()),
		server.WithRequestTimeout(cfg.Server.RequestTimeout),
	}
	if cfg.Server.CORS {
		opts = append(opts, server.WithCORS())
	}

	return server.New(build, opts...), nil
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	paths, err := photoSources(cfg, args)
	if err != nil {
		return err
	}

	srv, err := newCatalogServer(cfg, paths)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
	}

	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	logger.Info("Serving catalog of %v on http://%s", paths, listener.Addr())

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
