package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JoaoClaudiano/gittree/pkg/mcp"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start gittree as an MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, closeStore, err := openService(*configPath, false)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return mcp.New(svc, version).Run(ctx, os.Stdin, os.Stdout)
		},
	}
}
