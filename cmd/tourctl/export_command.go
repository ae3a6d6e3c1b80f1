package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tourmaster/tourctl/internal/api"
	"github.com/tourmaster/tourctl/internal/logging"
	"github.com/tourmaster/tourctl/internal/output"
	"github.com/tourmaster/tourctl/internal/ui"
	"github.com/tourmaster/tourctl/internal/worker"
)

func newExportCmd() *cobra.Command {
	var (
		simple  bool
		useGzip bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export backend collections as JSONL files",
		Long: `Downloads packages, enquiries, users, banners and countries in parallel
and writes one JSONL file per collection to the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			fileManager, err := output.NewFileManager(a.cfg.OutputDir, useGzip)
			if err != nil {
				return err
			}

			collections := api.ExportCollections()
			jobs := make([]worker.Job, len(collections))
			for i, col := range collections {
				jobs[i] = worker.Job{ID: i, Collection: col}
			}

			logging.Info("export started",
				"collections", len(jobs),
				"workers", a.cfg.Workers,
				"output", a.cfg.OutputDir)

			pool := worker.NewPool(worker.PoolConfig{
				NumWorkers:  a.cfg.Workers,
				Client:      a.client,
				Backoff:     a.backoff,
				FileManager: fileManager,
				Context:     ctx,
			})
			pool.SubmitAll(jobs)

			// Close result channels once every queued job has finished.
			go pool.StopAndWait()

			if simple || !isTerminal() {
				go func() {
					for range pool.StatusUpdates() {
					}
				}()
				ui.RunSimple(len(jobs), pool.Results())
				return nil
			}

			onQuit := func() {
				cancel()
				pool.Stop()
			}
			app := ui.NewApp(len(jobs), a.cfg.Workers, pool.Results(), pool.StatusUpdates(), a.backoff, onQuit)
			return app.Run()
		},
	}

	cmd.Flags().BoolVar(&simple, "simple", false, "Use simple output mode (no fancy UI)")
	cmd.Flags().BoolVar(&useGzip, "gzip", false, "Compress exported files with gzip")

	return cmd
}
