package main

import (
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the disk cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show disk cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap()
		if err != nil {
			return reported(err)
		}
		return reported(printResult(app.Service.CacheStats()))
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the entire disk cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap()
		if err != nil {
			return reported(err)
		}
		return reported(app.Cache.ClearAll())
	},
}

var cacheClearSearchesCmd = &cobra.Command{
	Use:   "clear-searches",
	Short: "Clear only cached search responses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap()
		if err != nil {
			return reported(err)
		}
		return reported(app.Cache.ClearSearches())
	},
}

var cacheClearCitationsCmd = &cobra.Command{
	Use:   "clear-citations",
	Short: "Clear only cached citation responses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap()
		if err != nil {
			return reported(err)
		}
		return reported(app.Cache.ClearCitations())
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd, cacheClearSearchesCmd, cacheClearCitationsCmd)
}
