package main

import (
	"context"

	"github.com/spf13/cobra"

	"research-master/internal/service"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List every registered source and its capabilities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(_ context.Context, svc *service.Service) error {
			return printResult(svc.Sources())
		})
	},
}
