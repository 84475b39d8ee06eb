package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethanolivertroy/license-audit/internal/cache"
)

// newCacheCmd creates the metadata cache management command
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the package metadata cache used by --cache",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())

	return cmd
}

// newCacheClearCmd creates the "cache clear" subcommand
func newCacheClearCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached package metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cache.Open(dir, 0)
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}

			removed, err := c.Clear()
			if err != nil {
				return fmt.Errorf("failed to clear cache %s: %w", c.Dir(), err)
			}

			loggerFromContext(cmd.Context()).Debug("cache cleared", "dir", c.Dir(), "removed", removed)
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached entries\n", removed)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "cache-dir", "", "Cache directory (default: "+cache.DefaultDir()+")")
	return cmd
}

// newCachePathCmd creates the "cache path" subcommand
func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cache.DefaultDir())
			return nil
		},
	}
}
