package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/srijanshukla18/wiki-in-a-box/internal/config"
)

// app carries the configuration loaded before any subcommand runs
type app struct {
	cfg *config.Config
}

// NewRootCmd creates the root wikibox command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "wikibox",
		Short:         "Offline encyclopedia retrieval over a local archive",
		Long:          "wikibox ranks passages from a read-only article archive and serves them to agents over MCP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("archive", "", "path to the archive (overrides ARCHIVE_PATH)")

	root.AddCommand(
		newServeCmd(a),
		newSearchCmd(a),
		newBuildTitleIndexCmd(a),
		newImportCmd(a),
		newVersionCmd(),
	)

	return root
}

// init loads configuration and installs the default logger. Logs go to
// stderr because stdout carries the MCP protocol and command output.
func (a *app) init(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if archivePath, _ := cmd.Flags().GetString("archive"); archivePath != "" {
		cfg.ArchivePath = archivePath
	}
	a.cfg = cfg

	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()})
	slog.SetDefault(slog.New(handler))
	return nil
}
