package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
)

// seedCmd loads the failures catalog from a YAML or JSON file.
var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Seed the failures catalog from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		failures, err := loadFailures(args[0])
		if err != nil {
			return err
		}
		if len(failures) == 0 {
			return fmt.Errorf("no failures found in %s", args[0])
		}

		if err := app.Store.SeedFailures(failures); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}

		fmt.Printf("Seeded %d failures from %s\n", len(failures), args[0])
		return nil
	},
}

func loadFailures(path string) ([]store.Failure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var failures []store.Failure
	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, &failures); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return failures, nil
	}
	if err := yaml.Unmarshal(data, &failures); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return failures, nil
}
