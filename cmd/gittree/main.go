package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "gittree",
		Short:         "gittree: repository structure models with a persistent cache",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")

	root.AddCommand(
		newBuildCmd(&configPath),
		newServeCmd(&configPath),
		newMCPCmd(&configPath),
		newCacheCmd(&configPath),
	)
	return root
}
