package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for linkcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkcrawl",
		Short: "Breadth-first link crawler",
		Long: `linkcrawl loads a JSON document of starting links ({"links": [...]}),
visits every page breadth-first, follows each a[href] it finds and stops when
no unvisited link remains. It reports the number of requests performed,
how many succeeded and failed, and the elapsed time.

Finished runs are kept in a local history database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("trace", false, "Log every queued and skipped link (implies --verbose)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
