package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/srijanshukla18/wiki-in-a-box/internal/archive"
	"github.com/srijanshukla18/wiki-in-a-box/internal/titleindex"
)

func newBuildTitleIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build-title-index",
		Short: "Build the auxiliary title index from the archive",
		Args:  cobra.NoArgs,
		RunE:  a.runBuildTitleIndex,
	}

	cmd.Flags().Int("max-rows", 0, "scan at most this many entries (0 = all)")

	return cmd
}

func (a *app) runBuildTitleIndex(cmd *cobra.Command, _ []string) error {
	maxRows, _ := cmd.Flags().GetInt("max-rows")
	if maxRows < 0 {
		return fmt.Errorf("--max-rows must not be negative")
	}
	if a.cfg.TitleIndexDir == "" {
		return fmt.Errorf("title index directory is not configured")
	}

	arc, err := archive.Open(a.cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer func() { _ = arc.Close() }()

	errOut := cmd.ErrOrStderr()
	stats, err := titleindex.NewBuilder().Build(cmd.Context(), arc, a.cfg.TitleIndexDir, titleindex.BuildOptions{
		MaxRows: maxRows,
		Progress: func(fraction float64, message string) {
			_, _ = fmt.Fprintf(errOut, "[%3.0f%%] %s\n", fraction*100, message)
		},
	})
	if err != nil {
		return fmt.Errorf("building title index: %w", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Title index written to %s\nScanned: %d, indexed: %d, skipped: %d (%s)\n",
		filepath.Join(a.cfg.TitleIndexDir, titleindex.FileName),
		stats.Scanned, stats.Indexed, stats.Skipped, stats.Duration.Round(time.Millisecond))
	return err
}
