package main

import (
	"context"

	"github.com/spf13/cobra"

	"research-master/internal/service"
)

var readSource string

var readCmd = &cobra.Command{
	Use:   "read [paper-id]",
	Short: "Extract full text from a paper's PDF, downloading it first if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *service.Service) error {
			result, err := svc.ReadPaper(ctx, args[0], readSource)
			if err != nil {
				return err
			}
			return printResult(result)
		})
	},
}

func init() {
	readCmd.Flags().StringVar(&readSource, "source", "", "source id that owns the paper id")
}
