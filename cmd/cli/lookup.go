package main

import (
	"context"

	"github.com/spf13/cobra"

	"research-master/internal/service"
)

var lookupSource string

var lookupCmd = &cobra.Command{
	Use:     "lookup-by-doi [doi]",
	Aliases: []string{"doi"},
	Short:   "Resolve a DOI to a paper record",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *service.Service) error {
			paper, err := svc.LookupByDOI(ctx, args[0], lookupSource)
			if err != nil {
				return err
			}
			return printResult(paper)
		})
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupSource, "source", "", "restrict to one source id")
}
