package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"research-master/internal/models"
)

var (
	dedupeInputPath string
	dedupeStrategy  string
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Deduplicate a JSON array of papers read from --input (or stdin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if dedupeInputPath == "" || dedupeInputPath == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(dedupeInputPath)
		}
		if err != nil {
			return reported(fmt.Errorf("reading papers: %w", err))
		}

		var papers []models.Paper
		if err := json.Unmarshal(data, &papers); err != nil {
			return reported(fmt.Errorf("parsing papers as JSON: %w", err))
		}

		app, err := bootstrap()
		if err != nil {
			return reported(err)
		}
		result := app.Service.DeduplicatePapers(papers, dedupeStrategy)
		return reported(printResult(map[string]interface{}{
			"papers": result.Kept,
			"groups": result.Groups,
		}))
	},
}

func init() {
	dedupeCmd.Flags().StringVar(&dedupeInputPath, "input", "", "path to a JSON array of papers (default: stdin)")
	dedupeCmd.Flags().StringVar(&dedupeStrategy, "strategy", "first", "dedup strategy: first, last, or mark")
}
