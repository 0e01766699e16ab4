package main

import (
	"context"

	"github.com/spf13/cobra"

	"research-master/internal/service"
)

var (
	referencesSource     string
	referencesMaxResults int
)

var referencesCmd = &cobra.Command{
	Use:   "references [paper-id]",
	Short: "List papers referenced by the given paper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *service.Service) error {
			resp, err := svc.GetReferences(ctx, args[0], referencesSource, referencesMaxResults)
			if err != nil {
				return err
			}
			return printResult(resp)
		})
	},
}

func init() {
	referencesCmd.Flags().StringVar(&referencesSource, "source", "", "source id to query (default: semantic)")
	referencesCmd.Flags().IntVar(&referencesMaxResults, "max-results", 0, "maximum results to return")
}
