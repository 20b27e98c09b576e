package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/srijanshukla18/wiki-in-a-box/internal/mcp"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve retrieval tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *app) runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting MCP server",
		"name", mcp.ServerName,
		"version", version,
		"archive", a.cfg.ArchivePath,
		"title_index", a.cfg.TitleIndexDir,
		"embed_provider", a.cfg.EmbedProvider)

	server := mcp.NewServer(a.cfg)

	errChan := make(chan error, 1)
	go func() {
		slog.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		return server.Close()
	case err := <-errChan:
		return err
	}
}
