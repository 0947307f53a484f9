package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/research"
)

var retranslateLimit int

// retranslateCmd retries PT translation for results that still lack one.
var retranslateCmd = &cobra.Command{
	Use:   "retranslate",
	Short: "Fill missing translations for stored results",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, cancel := signalContext()
		defer cancel()

		n, err := research.Retranslate(ctx, app.Store, app.Translate, retranslateLimit)
		if err != nil {
			return err
		}
		fmt.Printf("Updated translations on %d results\n", n)
		return nil
	},
}

func init() {
	retranslateCmd.Flags().IntVarP(&retranslateLimit, "limit", "n", 100, "Max results to retranslate")
}
