package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srijanshukla18/wiki-in-a-box/internal/storage"
)

// Build-time variables set via ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wikibox %s (built: %s, sqlite: %s/%s)\n",
				version, buildTime, storage.BuildMode, storage.DriverName)
			return err
		},
	}
}
