package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/refinery/internal/batch"
	"github.com/matsen/refinery/internal/validate"
)

var (
	validateMode    string
	validateIndices []int
	validateSources []string
	validateWorkers int
)

func init() {
	validateCmd.Flags().StringVar(&validateMode, "mode", "", "Validation mode: quick, standard, thorough or custom")
	validateCmd.Flags().IntSliceVar(&validateIndices, "indices", nil, "Reference indices for custom mode")
	validateCmd.Flags().StringSliceVar(&validateSources, "sources", nil, "Restrict enrichment to these sources")
	validateCmd.Flags().IntVar(&validateWorkers, "workers", 0, "Worker pool width (default from config)")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <batch-id>",
	Short: "Enrich a batch against the academic APIs",
	Long: `Run validation over a batch: select references by mode, look them up
in the enrichment sources concurrently and merge the answers by source
priority. Progress streams to stdout as one JSON event per line.

Example:
  refinery validate 2f1c... --mode thorough --sources crossref,openalex`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	p := mustBuildPipeline(cfg)
	defer p.Close()

	opts := validate.Options{
		Mode:    validate.Mode(validateMode),
		Indices: validateIndices,
		Sources: validateSources,
		Workers: validateWorkers,
	}
	if opts.Mode == "" {
		opts.Mode = validate.Mode(cfg.DefaultMode)
	}
	if opts.Workers <= 0 {
		opts.Workers = cfg.Workers
	}
	if len(opts.Sources) == 0 {
		opts.Sources = cfg.Sources
	}

	events, err := p.coordinator.Run(context.Background(), args[0], opts)
	if err != nil {
		switch {
		case errors.Is(err, batch.ErrNotFound):
			exitWithError(ExitNotFound, "batch %q not found", args[0])
		case errors.Is(err, batch.ErrConflict):
			exitWithError(ExitConflict, "batch %q already has a validation in flight", args[0])
		case errors.Is(err, batch.ErrInvalidInput):
			exitWithError(ExitDataError, "%v", err)
		default:
			exitWithError(ExitError, "starting validation: %v", err)
		}
	}

	failed := false
	for ev := range events {
		if humanOutput {
			printEventHuman(ev)
		} else {
			outputJSONCompact(ev)
		}
		if ev.Type == validate.EventError {
			failed = true
		}
	}
	if failed {
		exitWithError(ExitError, "validation failed")
	}
	return nil
}

func printEventHuman(ev validate.Event) {
	switch ev.Type {
	case validate.EventProgress:
		fmt.Printf("[%d/%d] %.0f%%\n", ev.Current, ev.Total, ev.Progress)
	case validate.EventResult:
		origin := strings.Join(ev.SourcesUsed, ", ")
		if ev.FromCache {
			origin = "cache"
		}
		fmt.Printf("  #%d: %d changes (%s)\n", ev.Reference.Index+1, len(ev.Changes), origin)
	case validate.EventComplete:
		fmt.Printf("Done: %d enriched, %d from cache (hit rate %.0f%%)\n",
			ev.Summary.Enriched, ev.Summary.FromCache, ev.Summary.CacheHitRate*100)
	case validate.EventError:
		fmt.Printf("Failed: %s\n", ev.Message)
	}
}
