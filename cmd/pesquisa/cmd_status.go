package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
)

var historyLimit int

// statusCmd prints queue counts, result totals, and the latest history
// entries.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue, results, and recent run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		counts, err := app.Store.QueueCounts()
		if err != nil {
			return err
		}
		fmt.Println("Queue:")
		for _, status := range []store.QueueStatus{store.StatusPending, store.StatusInProgress, store.StatusDone, store.StatusError} {
			fmt.Printf("  %-12s %d\n", status, counts[status])
		}

		results, err := app.Store.CountResults()
		if err != nil {
			return err
		}
		fmt.Printf("Results: %d\n", results)

		if app.Vectors != nil {
			fmt.Println("Vector collections:")
			for name, n := range app.Vectors.Counts() {
				fmt.Printf("  %-12s %d\n", name, n)
			}
		}

		if historyLimit > 0 {
			history, err := app.Store.ListHistory(historyLimit)
			if err != nil {
				return err
			}
			if len(history) > 0 {
				fmt.Println("Recent history:")
				for _, h := range history {
					line := fmt.Sprintf("  [%s] failure=%d %s/%s %q -> %d results (%.1fs)",
						h.Status, h.FailureID, h.Provider, h.Language, truncateQuery(h.Query), h.ResultsFound, h.ElapsedSeconds)
					if h.ErrorMessage != "" {
						line += " error: " + h.ErrorMessage
					}
					fmt.Println(line)
				}
			}
		}
		return nil
	},
}

func truncateQuery(q string) string {
	const max = 40
	runes := []rune(q)
	if len(runes) <= max {
		return q
	}
	return string(runes[:max]) + "..."
}

func init() {
	statusCmd.Flags().IntVar(&historyLimit, "history", 10, "History entries to show (0 to hide)")
}
