package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/research"
)

// populateQueueCmd generates query variants for every seeded failure and
// enqueues one item per (variant, language) with round-robin providers.
var populateQueueCmd = &cobra.Command{
	Use:   "populate-queue",
	Short: "Generate query variants and fill the work queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, cancel := signalContext()
		defer cancel()

		n, err := research.Populate(ctx, app.Store, app.Generator, app.Config.Search)
		if err != nil {
			return err
		}
		fmt.Printf("Enqueued %d items\n", n)
		return nil
	},
}

// clearQueueCmd deletes every queue item regardless of status.
var clearQueueCmd = &cobra.Command{
	Use:   "clear-queue",
	Short: "Delete all queue items",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		n, err := app.Store.ClearQueue()
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d queue items\n", n)
		return nil
	},
}
