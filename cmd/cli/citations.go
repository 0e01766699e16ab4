package main

import (
	"context"

	"github.com/spf13/cobra"

	"research-master/internal/service"
)

var (
	citationsSource     string
	citationsMaxResults int
)

var citationsCmd = &cobra.Command{
	Use:   "citations [paper-id]",
	Short: "List papers that cite the given paper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *service.Service) error {
			resp, err := svc.GetCitations(ctx, args[0], citationsSource, citationsMaxResults)
			if err != nil {
				return err
			}
			return printResult(resp)
		})
	},
}

func init() {
	citationsCmd.Flags().StringVar(&citationsSource, "source", "", "source id to query (default: semantic)")
	citationsCmd.Flags().IntVar(&citationsMaxResults, "max-results", 0, "maximum results to return")
}
