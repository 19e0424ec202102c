package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runHSCode      string
	runDescription string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze a single HS code",
	Long:  "Runs the enrich, classify, score, and validate stages for one HS code and persists the run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		orch := initOrchestrator(initLLM())

		run := orch.Analyze(ctx, runHSCode, runDescription)

		if err := st.SaveRun(ctx, run); err != nil {
			return eris.Wrap(err, "save run")
		}

		zap.L().Info("analysis complete",
			zap.String("run_id", run.ID),
			zap.String("hs_code", run.HSCode),
			zap.String("status", string(run.Status)),
			zap.Int("components", len(run.Components)),
		)

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func init() {
	runCmd.Flags().StringVar(&runHSCode, "hs-code", "", "6-digit HS code (required)")
	runCmd.Flags().StringVar(&runDescription, "description", "", "product description (required)")
	_ = runCmd.MarkFlagRequired("hs-code")
	_ = runCmd.MarkFlagRequired("description")
	rootCmd.AddCommand(runCmd)
}
