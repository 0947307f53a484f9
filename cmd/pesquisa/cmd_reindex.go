package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/research"
)

// reindexCmd rebuilds the in-memory vector store from the database.
var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector store from persisted failures and results",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if app.Engine == nil || app.Vectors == nil {
			return fmt.Errorf("semantic layer is disabled; enable rag and set a GenAI API key")
		}

		ctx, cancel := signalContext()
		defer cancel()

		n, err := research.Reindex(ctx, app.Store, app.Engine, app.Vectors)
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %d entries\n", n)
		return nil
	},
}
