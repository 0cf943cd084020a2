package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"anitransfer/internal/logging"
	"anitransfer/internal/requestcache"
)

func newCacheCommand(cmdCtx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the API response cache",
	}

	cacheCmd.AddCommand(newCacheInfoCommand(cmdCtx))
	cacheCmd.AddCommand(newCacheClearCommand(cmdCtx))

	return cacheCmd
}

func openCache(cmdCtx *commandContext) (*requestcache.Cache, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return requestcache.New(cfg.Paths.CacheDir, cfg.Matching.IgnoreExpiry, logging.NewNop()), nil
}

func newCacheInfoCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cached response counts per kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(cmdCtx)
			if err != nil {
				return err
			}
			counts, err := cache.Count()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(counts))
			for _, kind := range []requestcache.Kind{requestcache.KindSearch, requestcache.KindDetail} {
				rows = append(rows, []string{string(kind), strconv.Itoa(counts[kind])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Kind", "Entries"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func newCacheClearCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached API responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(cmdCtx)
			if err != nil {
				return err
			}
			if err := cache.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Response cache cleared")
			return nil
		},
	}
}
