package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/transition-cli/internal/regional"
)

var (
	regionalMode    string
	regionalRegions string
	regionalFrom    int
	regionalDataDir string
)

var regionalCmd = &cobra.Command{
	Use:   "regional",
	Short: "Run the regional vulnerability pipeline",
	Long:  "Maps automotive companies, plants, components, and employment across German NUTS-2 regions, validates against Eurostat, and scores regional transition vulnerability.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("regional"); err != nil {
			return err
		}

		dataDir := regionalDataDir
		if dataDir == "" {
			dataDir = cfg.Regional.DataDir
		}
		st, err := regional.NewStore(dataDir)
		if err != nil {
			return eris.Wrap(err, "open regional store")
		}

		selection := regionalMode
		if regionalRegions != "" {
			selection = regionalRegions
		}

		var done map[string]bool
		if selection == regional.ModeRemaining {
			done, err = st.CompletedRegions()
			if err != nil {
				return eris.Wrap(err, "scan completed regions")
			}
		}

		regions, err := regional.SelectRegions(selection, done)
		if err != nil {
			return err
		}
		zap.L().Info("regions selected",
			zap.String("selection", selection),
			zap.Int("count", len(regions)),
			zap.Int("from_stage", regionalFrom),
		)

		client := regional.NewLLMClient(initLLM(), regional.Config{
			Model:       cfg.Anthropic.Model,
			MaxTokens:   cfg.Regional.Stage.MaxTokens,
			Temperature: cfg.Regional.Stage.Temperature,
			Timeout:     time.Duration(cfg.Regional.Stage.TimeoutSecs) * time.Second,
		})

		p := regional.NewPipeline(client, st, regional.Options{
			MaxRetries:  cfg.Regional.MaxRetries,
			Concurrency: cfg.Regional.Concurrency,
		})

		return p.Run(ctx, regions, regionalFrom)
	},
}

func init() {
	regionalCmd.Flags().StringVar(&regionalMode, "mode", regional.ModeTest, "region selection: test, priority, all, remaining")
	regionalCmd.Flags().StringVar(&regionalRegions, "regions", "", "comma-separated NUTS-2 codes (overrides --mode)")
	regionalCmd.Flags().IntVar(&regionalFrom, "from", regional.StageCompanies, "first stage to run (1-6); earlier stages must have files on disk")
	regionalCmd.Flags().StringVar(&regionalDataDir, "data-dir", "", "stage file directory (default from config)")
	rootCmd.AddCommand(regionalCmd)
}
