// Package main provides the refinery CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/refinery/internal/batch"
	"github.com/matsen/refinery/internal/cache"
	"github.com/matsen/refinery/internal/config"
	"github.com/matsen/refinery/internal/enrich"
	"github.com/matsen/refinery/internal/extract"
	"github.com/matsen/refinery/internal/source"
	"github.com/matsen/refinery/internal/validate"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// configPath overrides the default config file location
var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "refinery",
	Short: "Reference extraction and enrichment CLI",
	Long: `refinery extracts bibliographic references from documents and
enriches them against academic APIs.

Core features:
  - Regex-based reference extraction from PDF and plain text
  - Batches with a validation lifecycle and token-guarded runs
  - Concurrent enrichment from CrossRef, OpenAlex, Semantic Scholar,
    DOAJ, PubMed and arXiv with priority merging
  - Fingerprint-keyed result caching
  - An HTTP API with streaming validation progress

All commands output JSON by default for agent integration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.config/refinery/config.yml)")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// pipeline is the assembled set of components behind every command.
type pipeline struct {
	cfg         *config.Config
	manager     *batch.Manager
	coordinator *validate.Coordinator
	extractor   extract.Extractor
	cache       cache.Cache

	closers []func() error
}

// Close releases the pipeline's database handles.
func (p *pipeline) Close() {
	for _, c := range p.closers {
		c()
	}
}

// mustBuildPipeline assembles the extraction and enrichment stack from
// the config, exits on error. The caller is responsible for Close.
func mustBuildPipeline(cfg *config.Config) *pipeline {
	_ = godotenv.Load()

	p := &pipeline{cfg: cfg, extractor: extract.NewRegexExtractor()}

	if cfg.CachePath != "" {
		sc, err := cache.OpenSQLite(cfg.CachePath)
		if err != nil {
			exitWithError(ExitError, "opening cache: %v", err)
		}
		p.cache = sc
		p.closers = append(p.closers, sc.Close)
	} else {
		p.cache = cache.NewMemory(cfg.CacheSize)
	}

	if cfg.BatchDBPath != "" {
		bs, err := batch.OpenSQLiteStore(cfg.BatchDBPath)
		if err != nil {
			exitWithError(ExitError, "opening batch store: %v", err)
		}
		p.manager = batch.NewManager(bs)
		p.closers = append(p.closers, bs.Close)
	} else {
		p.manager = batch.NewManager(batch.NewMemoryStore())
	}

	// Config credentials seed the adapters; each adapter falls back to
	// its environment variable when the config leaves the key empty.
	registry := source.NewRegistry(
		source.NewCrossRef(source.WithAPIKey(cfg.CrossRefToken)),
		source.NewOpenAlex(),
		source.NewSemanticScholar(source.WithAPIKey(cfg.S2APIKey)),
		source.NewDOAJ(),
		source.NewPubMed(source.WithAPIKey(cfg.NCBIAPIKey)),
		source.NewArXiv(),
	)
	if len(cfg.SourcePriority) > 0 {
		registry.SetPriority(cfg.SourcePriority)
	}
	orchestrator := enrich.NewOrchestrator(registry, p.cache)
	p.coordinator = validate.NewCoordinator(p.manager, orchestrator)
	return p
}
