package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the enrichment cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache hit counters and occupancy",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the enrichment cache",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	p := mustBuildPipeline(cfg)
	defer p.Close()

	stats, err := p.cache.Stats()
	if err != nil {
		exitWithError(ExitError, "reading cache stats: %v", err)
	}

	if humanOutput {
		fmt.Printf("Entries: %d / %d\n", stats.Size, stats.MaxSize)
		fmt.Printf("Hits: %d\n", stats.Hits)
		fmt.Printf("Misses: %d\n", stats.Misses)
		fmt.Printf("Hit rate: %.0f%%\n", stats.HitRate*100)
		return nil
	}
	return outputJSON(stats)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	p := mustBuildPipeline(cfg)
	defer p.Close()

	if err := p.cache.Clear(); err != nil {
		exitWithError(ExitError, "clearing cache: %v", err)
	}

	if humanOutput {
		fmt.Println("Cache cleared")
		return nil
	}
	return outputJSON(StatusResponse{Status: "cleared"})
}
