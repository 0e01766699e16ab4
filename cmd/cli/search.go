package main

import (
	"context"

	"github.com/spf13/cobra"

	"research-master/internal/service"
)

var (
	searchSource     string
	searchMaxResults int
	searchYear       string
	searchCategory   string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for papers across one or all registered sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *service.Service) error {
			resp, err := svc.SearchPapers(ctx, args[0], searchSource, searchMaxResults, searchYear, searchCategory)
			if err != nil {
				return err
			}
			return printResult(resp)
		})
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchSource, "source", "", "restrict to one source id")
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "maximum results to return")
	searchCmd.Flags().StringVar(&searchYear, "year", "", "filter by publication year")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "filter by subject category")
}
