package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexjbarnes/postmatter/internal/mcpserver"
	"github.com/alexjbarnes/postmatter/internal/server"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

// runServe exposes the post index as MCP tools over HTTP and, unless
// disabled, watches the content directory for changes.
func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	listen := fs.String("listen-addr", "", "HTTP listen address (overrides LISTEN_ADDR)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, s, err := setup(ctx, fs, stderr)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{Name: "postmatter", Version: Version},
		nil,
	)
	mcpserver.RegisterTools(mcpServer, s)

	mcpHandler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	if cfg.APIKey == "" {
		logger.Warn("MCP_API_KEY not set, /mcp is unauthenticated")
	}

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: server.NewMux(server.MuxConfig{
			Site:       s,
			MCPHandler: mcpHandler,
			Logger:     logger,
			APIKey:     cfg.APIKey,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Watch {
		g.Go(func() error {
			if err := s.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watching content dir: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		logger.Info("starting server",
			slog.String("version", Version),
			slog.String("listen", cfg.ListenAddr),
			slog.String("content_dir", cfg.ContentDir),
			slog.Bool("watch", cfg.Watch),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	return g.Wait()
}
