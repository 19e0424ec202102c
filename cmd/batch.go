package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/transition-cli/internal/batch"
	"github.com/sells-group/transition-cli/internal/model"
	"github.com/sells-group/transition-cli/internal/store"
)

var (
	batchInput     string
	batchDraw      int
	batchOutputDir string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze a spreadsheet of HS codes",
	Long:  "Reads HS codes from an XLSX file, runs the full pipeline for each, and writes one result row per component.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		items, err := batch.ReadItems(batchInput)
		if err != nil {
			return eris.Wrap(err, "read input")
		}
		zap.L().Info("batch input loaded",
			zap.String("file", batchInput),
			zap.Int("items", len(items)),
		)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		analyzer := &persistingAnalyzer{
			orch:  initOrchestrator(initLLM()),
			store: st,
		}

		outDir := batchOutputDir
		if outDir == "" {
			outDir = cfg.Batch.OutputDir
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrap(err, "create output dir")
		}

		start := time.Now()
		rows, err := batch.Run(ctx, analyzer, items)
		if err != nil {
			return eris.Wrap(err, "batch run")
		}

		outPath := batch.OutputPath(outDir, batchDraw, time.Now())
		if err := batch.WriteRows(outPath, rows); err != nil {
			return eris.Wrap(err, "write results")
		}

		summary := batch.Summarize(items, rows)
		fmt.Println(batch.FormatSummary(summary, time.Since(start)))
		fmt.Printf("Results written to %s\n", outPath)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "input XLSX file (required)")
	batchCmd.Flags().IntVar(&batchDraw, "draw", 1, "draw number used in the output file name")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "", "output directory (default from config)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// persistingAnalyzer saves every run before handing it back to the batch
// driver. A save failure is logged, not fatal, so the spreadsheet still gets
// its row.
type persistingAnalyzer struct {
	orch  batch.Analyzer
	store store.Store
}

func (a *persistingAnalyzer) Analyze(ctx context.Context, hsCode, description string) *model.PipelineRun {
	run := a.orch.Analyze(ctx, hsCode, description)
	if err := a.store.SaveRun(ctx, run); err != nil {
		zap.L().Warn("batch: save run failed",
			zap.String("hs_code", hsCode),
			zap.Error(err),
		)
	}
	return run
}
