package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matsen/refinery/internal/api"
	"github.com/matsen/refinery/internal/batch"
	"github.com/matsen/refinery/internal/extract"
	"github.com/matsen/refinery/internal/watch"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve the parse/validate pipeline over HTTP. With watch_dir set in
the config, documents dropped into that directory are parsed into
batches automatically.

Example:
  refinery serve --addr :8090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}
	p := mustBuildPipeline(cfg)
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WatchDir != "" {
		if err := watchDirectory(ctx, cfg.WatchDir, p); err != nil {
			exitWithError(ExitConfigError, "watching %s: %v", cfg.WatchDir, err)
		}
		log.Printf("watching %s for documents", cfg.WatchDir)
	}

	server := api.NewServer(cfg, p.manager, p.coordinator, p.extractor, p.cache)
	fmt.Fprintf(os.Stderr, "listening on %s\n", cfg.ListenAddr)
	return server.Run()
}

// watchDirectory parses every document dropped into dir into a new
// batch until ctx is done.
func watchDirectory(ctx context.Context, dir string, p *pipeline) error {
	w, err := watch.NewWatcher(nil)
	if err != nil {
		return err
	}

	paths, err := w.Watch(ctx, dir)
	if err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for path := range paths {
			doc, err := extract.ReadDocument(path)
			if err != nil {
				log.Printf("reading %s: %v", path, err)
				continue
			}
			refs, err := p.extractor.Parse(ctx, doc)
			if err != nil {
				log.Printf("parsing %s: %v", path, err)
				continue
			}
			b, err := p.manager.CreateBatch(batch.FileInfo{Filename: doc.Name}, refs)
			if err != nil {
				log.Printf("creating batch for %s: %v", path, err)
				continue
			}
			log.Printf("parsed %s into batch %s (%d references)", path, b.ID, len(b.References))
		}
	}()
	return nil
}
