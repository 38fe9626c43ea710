package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the repository model cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, closeStore, err := openService(*configPath, false)
			if err != nil {
				return err
			}
			defer closeStore()
			store := svc.Store()
			if store == nil {
				return fmt.Errorf("cache is disabled")
			}

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			capacity := "unbounded"
			if stats.CapacityBytes > 0 {
				capacity = fmt.Sprintf("%d", stats.CapacityBytes)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entries:  %d\nSize:     %d\nCapacity: %s\nEviction: %s\nHits:     %d\nMisses:   %d\n",
				stats.Entries, stats.SizeBytes, capacity, stats.Eviction, stats.Hits, stats.Misses)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list [prefix]",
		Short: "List cached models",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, closeStore, err := openService(*configPath, false)
			if err != nil {
				return err
			}
			defer closeStore()
			store := svc.Store()
			if store == nil {
				return fmt.Errorf("cache is disabled")
			}

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			entries, err := store.List(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached models found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tSIZE\tCREATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%d\t%s\n", e.Key, e.SizeBytes, e.CreatedAt.Format("2006-01-02T15:04:05"))
			}
			return w.Flush()
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached models",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, closeStore, err := openService(*configPath, false)
			if err != nil {
				return err
			}
			defer closeStore()
			store := svc.Store()
			if store == nil {
				return fmt.Errorf("cache is disabled")
			}

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All cache entries cleared.")
			return nil
		},
	}

	invalidateCmd := &cobra.Command{
		Use:   "invalidate <owner/name[@branch]>",
		Short: "Remove cached models for a repository or one of its branches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, closeStore, err := openService(*configPath, false)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := svc.Invalidate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries for %s.\n", n, args[0])
			return nil
		},
	}

	cmd.AddCommand(statsCmd, listCmd, clearCmd, invalidateCmd)
	return cmd
}
