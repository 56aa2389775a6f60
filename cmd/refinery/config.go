package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/refinery/internal/config"
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the refinery configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	if humanOutput {
		fmt.Printf("Cache: %s (max %d entries)\n", orDefault(cfg.CachePath, "in-memory"), cfg.CacheSize)
		fmt.Printf("Batch DB: %s\n", orDefault(cfg.BatchDBPath, "in-memory"))
		fmt.Printf("Workers: %d\n", cfg.Workers)
		fmt.Printf("Default mode: %s\n", cfg.DefaultMode)
		fmt.Printf("Listen: %s\n", cfg.ListenAddr)
		if cfg.WatchDir != "" {
			fmt.Printf("Watch dir: %s\n", cfg.WatchDir)
		}
		return nil
	}
	return outputJSON(cfg)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	fmt.Println(path)
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
