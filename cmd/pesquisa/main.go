// Command pesquisa drives the multilingual policy research pipeline: it
// seeds the failures catalog, populates the search queue, and runs the
// worker pool that gathers, scores, and translates evidence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

var (
	// Global flags
	workspace string
	verbose   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pesquisa",
	Short: "Multilingual public-policy research pipeline",
	Long: `pesquisa researches market failures by fanning queries out across
search providers in multiple languages, then deduplicating, scoring,
translating, and persisting the ranked evidence.

Typical flow:

  pesquisa seed failures.yaml
  pesquisa populate-queue
  pesquisa process-parallel
  pesquisa status`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve working directory: %w", err)
			}
			workspace = wd
		}
		if err := logging.Initialize(workspace); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		if verbose {
			if err := logging.EnableDebug(); err != nil {
				return fmt.Errorf("failed to enable verbose logging: %w", err)
			}
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose console output")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(populateQueueCmd)
	rootCmd.AddCommand(clearQueueCmd)
	rootCmd.AddCommand(processBatchCmd)
	rootCmd.AddCommand(processParallelCmd)
	rootCmd.AddCommand(processUntilEmptyCmd)
	rootCmd.AddCommand(loopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(retranslateCmd)
	rootCmd.AddCommand(reindexCmd)
}

// signalContext returns a context canceled on SIGINT/SIGTERM so workers
// stop after their current item.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
