package main

import (
	"context"

	"github.com/spf13/cobra"

	"research-master/internal/service"
)

var (
	downloadSource       string
	downloadOutputPath   string
	downloadAutoFilename bool
)

var downloadCmd = &cobra.Command{
	Use:   "download [paper-id]",
	Short: "Download a paper's PDF to disk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *service.Service) error {
			result, err := svc.DownloadPaper(ctx, args[0], downloadSource, downloadOutputPath, downloadAutoFilename)
			if err != nil {
				return err
			}
			return printResult(result)
		})
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadSource, "source", "", "source id that owns the paper id")
	downloadCmd.Flags().StringVar(&downloadOutputPath, "output-path", "", "directory to save the PDF in")
	downloadCmd.Flags().BoolVar(&downloadAutoFilename, "auto-filename", true, "derive the filename from the paper id")
}
