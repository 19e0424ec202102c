package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/transition-cli/internal/config"
	"github.com/sells-group/transition-cli/internal/pipeline"
	"github.com/sells-group/transition-cli/internal/stage"
	"github.com/sells-group/transition-cli/internal/store"
	"github.com/sells-group/transition-cli/pkg/llm"
)

// initStore opens the run database and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initLLM builds the shared Anthropic backend with rate limiting.
func initLLM() llm.Client {
	rps := float64(cfg.Anthropic.RequestsPerMinute) / 60.0
	return llm.NewClient(cfg.Anthropic.Key, rps)
}

// stageConfig maps one configured stage onto the stage client settings. All
// stages share the top-level Anthropic model.
func stageConfig(sc config.StageConfig) stage.Config {
	return stage.Config{
		Model:       cfg.Anthropic.Model,
		MaxTokens:   sc.MaxTokens,
		Temperature: sc.Temperature,
		Timeout:     time.Duration(sc.TimeoutSecs) * time.Second,
	}
}

// initOrchestrator wires the component pipeline from config.
func initOrchestrator(backend llm.Client) *pipeline.Orchestrator {
	stages := stage.NewLLMClient(backend,
		stageConfig(cfg.Pipeline.Enricher),
		stageConfig(cfg.Pipeline.Classifier),
		stageConfig(cfg.Pipeline.Scorer),
	)
	return pipeline.New(stages, pipeline.Options{
		MaxRetries:  cfg.Pipeline.MaxRetries,
		Concurrency: cfg.Pipeline.Concurrency,
	})
}
