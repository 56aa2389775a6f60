package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/refinery/internal/batch"
	"github.com/matsen/refinery/internal/extract"
	"github.com/matsen/refinery/internal/reference"
)

func init() {
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Extract references from a document into a new batch",
	Long: `Parse a PDF or plain-text document, extract its bibliographic
references and create a batch holding them.

Example:
  refinery parse paper.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	p := mustBuildPipeline(cfg)
	defer p.Close()

	doc, err := extract.ReadDocument(args[0])
	if err != nil {
		exitWithError(ExitError, "reading document: %v", err)
	}

	refs, err := p.extractor.Parse(context.Background(), doc)
	if err != nil {
		exitWithError(ExitDataError, "parsing document: %v", err)
	}

	stat, _ := os.Stat(args[0])
	info := batch.FileInfo{Filename: doc.Name}
	if stat != nil {
		info.Size = stat.Size()
	}

	b, err := p.manager.CreateBatch(info, refs)
	if err != nil {
		exitWithError(ExitError, "creating batch: %v", err)
	}
	summary := batch.Summarize(b.References)

	if humanOutput {
		fmt.Printf("Batch: %s\n", b.ID)
		fmt.Printf("References: %d (%d parsed, %d need validation)\n\n",
			summary.TotalReferences, summary.SuccessfullyParsed, summary.NeedsValidation)
		for i := range b.References {
			printReferenceHuman(&b.References[i])
		}
		return nil
	}

	return outputJSON(struct {
		BatchID    string                      `json:"batch_id"`
		FileInfo   batch.FileInfo              `json:"file_info"`
		Status     batch.Status                `json:"validation_status"`
		Summary    batch.Summary               `json:"summary"`
		References []reference.ParsedReference `json:"references"`
	}{
		BatchID:    b.ID,
		FileInfo:   b.FileInfo,
		Status:     b.Status,
		Summary:    summary,
		References: b.References,
	})
}
