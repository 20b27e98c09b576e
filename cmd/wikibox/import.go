package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/srijanshukla18/wiki-in-a-box/internal/archive"
	"github.com/srijanshukla18/wiki-in-a-box/internal/indexer"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Import a directory of HTML and text files into the archive",
		Long: "Import walks dir for .html, .htm and .txt files and adds them to the archive, " +
			"creating it if needed. Paths already present are left untouched.",
		Args: cobra.ExactArgs(1),
		RunE: a.runImport,
	}

	cmd.Flags().Int("workers", 0, "concurrent parsers (default: number of CPUs)")
	cmd.Flags().Int("batch-size", indexer.DefaultBatchSize, "documents per transaction")
	cmd.Flags().String("prefix", indexer.DefaultPrefix, "archive path prefix for imported pages")

	return cmd
}

func (a *app) runImport(cmd *cobra.Command, args []string) (err error) {
	workers, _ := cmd.Flags().GetInt("workers")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	prefix, _ := cmd.Flags().GetString("prefix")

	w, err := archive.Create(a.cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	stats, err := indexer.New().ImportDirectory(cmd.Context(), args[0], w, &indexer.Config{
		Workers:   workers,
		BatchSize: batchSize,
		Prefix:    prefix,
	})
	if err != nil {
		return fmt.Errorf("importing %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Imported %d files into %s (skipped %d, failed %d) in %s\n",
		stats.FilesImported, a.cfg.ArchivePath, stats.FilesSkipped, stats.FilesFailed, stats.Duration.Round(time.Millisecond))
	for _, msg := range stats.ErrorMessages {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", msg)
	}
	return nil
}
