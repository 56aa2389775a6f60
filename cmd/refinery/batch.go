package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/refinery/internal/batch"
)

func init() {
	batchCmd.AddCommand(batchListCmd)
	batchCmd.AddCommand(batchShowCmd)
	batchCmd.AddCommand(batchDeleteCmd)
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Inspect and manage reference batches",
}

var batchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all batches, newest first",
	Args:  cobra.NoArgs,
	RunE:  runBatchList,
}

var batchShowCmd = &cobra.Command{
	Use:   "show <batch-id>",
	Short: "Show one batch with its references",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchShow,
}

var batchDeleteCmd = &cobra.Command{
	Use:   "delete <batch-id>",
	Short: "Delete a batch",
	Long: `Delete a batch. A batch with a validation run in flight cannot be
deleted until the run finishes or is aborted.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatchDelete,
}

func runBatchList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	p := mustBuildPipeline(cfg)
	defer p.Close()

	batches, err := p.manager.ListBatches()
	if err != nil {
		exitWithError(ExitError, "listing batches: %v", err)
	}

	if humanOutput {
		for _, b := range batches {
			s := batch.Summarize(b.References)
			fmt.Printf("%s  %-12s %3d refs  %s\n", b.ID, b.Status, s.TotalReferences, b.FileInfo.Filename)
		}
		fmt.Printf("\n%d batches\n", len(batches))
		return nil
	}

	return outputJSON(struct {
		Batches []*batch.Batch `json:"batches"`
		Count   int            `json:"count"`
	}{Batches: batches, Count: len(batches)})
}

func runBatchShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	p := mustBuildPipeline(cfg)
	defer p.Close()

	b, err := p.manager.GetBatch(args[0])
	if err != nil {
		if errors.Is(err, batch.ErrNotFound) {
			exitWithError(ExitNotFound, "batch %q not found", args[0])
		}
		exitWithError(ExitError, "getting batch: %v", err)
	}

	if humanOutput {
		s := batch.Summarize(b.References)
		fmt.Printf("Batch: %s\n", b.ID)
		fmt.Printf("File: %s\n", b.FileInfo.Filename)
		fmt.Printf("Status: %s\n", b.Status)
		fmt.Printf("References: %d (%d parsed, %d need validation)\n\n",
			s.TotalReferences, s.SuccessfullyParsed, s.NeedsValidation)
		for i := range b.References {
			printReferenceHuman(&b.References[i])
		}
		if r := b.ValidationResult; r != nil {
			fmt.Printf("\nLast validation: %s mode, %d enriched, %d from cache\n",
				r.Mode, r.Enriched, r.FromCache)
		}
		return nil
	}

	return outputJSON(b)
}

func runBatchDelete(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	p := mustBuildPipeline(cfg)
	defer p.Close()

	if err := p.manager.DeleteBatch(args[0]); err != nil {
		switch {
		case errors.Is(err, batch.ErrNotFound):
			exitWithError(ExitNotFound, "batch %q not found", args[0])
		case errors.Is(err, batch.ErrConflict):
			exitWithError(ExitConflict, "batch %q has a validation in flight", args[0])
		default:
			exitWithError(ExitError, "deleting batch: %v", err)
		}
	}

	if humanOutput {
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	}
	return outputJSON(StatusResponse{Status: "deleted", BatchID: args[0]})
}
