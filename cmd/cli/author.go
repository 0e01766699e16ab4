package main

import (
	"context"

	"github.com/spf13/cobra"

	"research-master/internal/service"
)

var (
	authorSource     string
	authorMaxResults int
)

var authorCmd = &cobra.Command{
	Use:   "author [name]",
	Short: "Search for papers by author name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *service.Service) error {
			resp, err := svc.SearchByAuthor(ctx, args[0], authorSource, authorMaxResults)
			if err != nil {
				return err
			}
			return printResult(resp)
		})
	},
}

func init() {
	authorCmd.Flags().StringVar(&authorSource, "source", "", "restrict to one source id")
	authorCmd.Flags().IntVar(&authorMaxResults, "max-results", 10, "maximum results to return")
}
