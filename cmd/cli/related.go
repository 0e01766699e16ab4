package main

import (
	"context"

	"github.com/spf13/cobra"

	"research-master/internal/service"
)

var (
	relatedSource     string
	relatedMaxResults int
)

var relatedCmd = &cobra.Command{
	Use:   "related [paper-id]",
	Short: "List papers related to the given paper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *service.Service) error {
			resp, err := svc.GetRelated(ctx, args[0], relatedSource, relatedMaxResults)
			if err != nil {
				return err
			}
			return printResult(resp)
		})
	},
}

func init() {
	relatedCmd.Flags().StringVar(&relatedSource, "source", "", "restrict to one source id")
	relatedCmd.Flags().IntVar(&relatedMaxResults, "max-results", 0, "maximum results to return")
}
