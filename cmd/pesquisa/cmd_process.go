package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/research"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
)

var batchSize int

// processBatchCmd processes up to N items serially.
var processBatchCmd = &cobra.Command{
	Use:   "process-batch",
	Short: "Process up to N queue items with a single worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, cancel := signalContext()
		defer cancel()

		summary, err := app.Pool.ProcessBatch(ctx, batchSize)
		printSummary(summary)
		return err
	},
}

// processParallelCmd drains all pending items with the configured pool.
var processParallelCmd = &cobra.Command{
	Use:   "process-parallel",
	Short: "Drain the queue with the configured worker pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		return drainOnce()
	},
}

// processUntilEmptyCmd is an alias for the draining run; kept separate so
// scripts read naturally.
var processUntilEmptyCmd = &cobra.Command{
	Use:   "process-until-empty",
	Short: "Process items until no pending work remains",
	RunE: func(cmd *cobra.Command, args []string) error {
		return drainOnce()
	},
}

var loopInterval time.Duration

// loopCmd drains the queue, sleeps, recovers stuck items, and repeats
// until interrupted.
var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Continuously drain the queue, sleeping between passes",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, cancel := signalContext()
		defer cancel()

		for {
			summary, err := app.Pool.ProcessUntilEmpty(ctx)
			if err != nil && ctx.Err() == nil {
				return err
			}
			printSummary(summary)

			if ctx.Err() != nil {
				app.Pool.Pause()
				fmt.Println("Stopped")
				return nil
			}

			pending, err := app.Store.CountQueue(store.StatusPending)
			if err != nil {
				return err
			}
			fmt.Printf("Pass complete, %d pending; next pass in %s\n", pending, loopInterval)

			select {
			case <-ctx.Done():
				app.Pool.Pause()
				fmt.Println("Stopped")
				return nil
			case <-time.After(loopInterval):
			}
		}
	},
}

func drainOnce() error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext()
	defer cancel()

	summary, err := app.Pool.ProcessUntilEmpty(ctx)
	if err != nil && ctx.Err() != nil {
		// Interrupted: release claimed items and exit clean.
		app.Pool.Pause()
		printSummary(summary)
		return nil
	}
	printSummary(summary)
	return err
}

func printSummary(s research.Summary) {
	fmt.Printf("Processed %d items: %d errors, %d new results, %d duplicates (success rate %.0f%%)\n",
		s.Processed, s.Errors, s.NewResults, s.Duplicates, s.SuccessRate()*100)
}

func init() {
	processBatchCmd.Flags().IntVarP(&batchSize, "count", "n", 10, "Max items to process")
	loopCmd.Flags().DurationVar(&loopInterval, "interval", time.Minute, "Sleep between passes")
}
