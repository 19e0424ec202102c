// Package pipeline orchestrates one HS code through enrichment, concurrent
// classification and scoring, and validation, assembling the final
// PipelineRun.
//
// Abort policy: the run terminates early only when a stage produces nothing
// usable at all, meaning an empty enrichment or a fan-out where every item
// failed.
// Sentinel-degraded partial results always continue to the validator, and the
// validator itself can never abort the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/transition-cli/internal/model"
	"github.com/sells-group/transition-cli/internal/runner"
	"github.com/sells-group/transition-cli/internal/stage"
	"github.com/sells-group/transition-cli/internal/validate"
)

// DefaultConcurrency bounds the per-item fan-out inside the classifier and
// scorer stages.
const DefaultConcurrency = 4

// Options tune the orchestrator; zero values fall back to defaults.
type Options struct {
	MaxRetries  int
	Concurrency int
}

// Orchestrator drives the component pipeline. One instance is safe for
// serial reuse; every Analyze call starts from a fresh PipelineRun.
type Orchestrator struct {
	stages      stage.Client
	maxRetries  int
	concurrency int
}

// New builds an Orchestrator around a stage client.
func New(stages stage.Client, opts Options) *Orchestrator {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = runner.DefaultMaxRetries
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		stages:      stages,
		maxRetries:  opts.MaxRetries,
		concurrency: opts.Concurrency,
	}
}

// Analyze runs the complete analysis for one HS code. It never returns an
// error: terminal failures are encoded in the returned run's Status and
// FailureReason, with validity pinned to false and quality to zero.
func (o *Orchestrator) Analyze(ctx context.Context, hsCode, description string) *model.PipelineRun {
	run := &model.PipelineRun{
		ID:          uuid.NewString(),
		HSCode:      hsCode,
		Description: description,
		StartedAt:   time.Now(),
	}

	zap.L().Info("pipeline: analysis started",
		zap.String("hs_code", hsCode),
		zap.String("description", description),
	)

	components, records, err := runner.Run(ctx, model.StageEnricher, o.maxRetries,
		func(c context.Context) ([]model.Component, error) {
			return o.stages.Enrich(c, hsCode, description)
		},
		func(components []model.Component) error {
			if len(components) == 0 {
				return eris.New("enricher returned no components")
			}
			return nil
		})
	run.Errors = append(run.Errors, records...)
	if err != nil {
		reason := "enricher failed - cannot identify components"
		if hasTimeout(records) {
			reason = "enricher timed out"
		}
		return o.fail(run, reason)
	}
	run.Components = components

	// Classifier and Scorer both depend only on the enrichment and run
	// concurrently; each fans out per component.
	var (
		classified  *runner.FanOutResult[model.Classification]
		scored      *runner.FanOutResult[model.Score]
		classifyErr error
		scoreErr    error
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		classified, classifyErr = runner.RunEach(gCtx, model.StageClassifier, components, o.maxRetries, o.concurrency,
			func(c context.Context, _ int, comp model.Component) (model.Classification, error) {
				return o.stages.Classify(c, comp, hsCode)
			},
			nil,
			func(model.Component) model.Classification { return model.UnknownClassification() })
		return nil
	})
	g.Go(func() error {
		scored, scoreErr = runner.RunEach(gCtx, model.StageScorer, components, o.maxRetries, o.concurrency,
			func(c context.Context, _ int, comp model.Component) (model.Score, error) {
				return o.stages.Score(c, comp, hsCode)
			},
			nil,
			func(model.Component) model.Score { return model.SentinelScore() })
		return nil
	})
	_ = g.Wait()

	run.Errors = append(run.Errors, classified.Records...)
	run.Errors = append(run.Errors, scored.Records...)
	run.Warnings = append(run.Warnings, classified.Warnings...)
	run.Warnings = append(run.Warnings, scored.Warnings...)

	if classifyErr != nil {
		return o.fail(run, criticalReason(model.StageClassifier, classifyErr))
	}
	if scoreErr != nil {
		return o.fail(run, criticalReason(model.StageScorer, scoreErr))
	}

	// Restore the positional join before validation: the validator judges
	// count mismatches on what the stages originally produced, while the
	// delivered slices are always component-aligned.
	counts := validate.CountsOf(components, classified.Values, scored.Values)
	run.Classification = padClassifications(classified.Values, len(components))
	run.Scores = padScores(scored.Values, len(components))

	run.Quality = o.validateRun(run, counts)
	run.Summary = summarize(run)
	run.Duration = time.Since(run.StartedAt)

	// Recovered retries stay in the error list but do not degrade the run;
	// only sentinel-substituted items make it partial.
	if classified.FailedCount() > 0 || scored.FailedCount() > 0 {
		run.Status = model.RunStatusPartial
	} else {
		run.Status = model.RunStatusSuccess
	}

	zap.L().Info("pipeline: analysis complete",
		zap.String("hs_code", hsCode),
		zap.String("status", string(run.Status)),
		zap.Int("overall_quality", run.Quality.OverallQuality),
		zap.Bool("valid", run.Quality.Valid),
		zap.Duration("duration", run.Duration),
	)
	return run
}

// validateRun shields the pipeline from validator defects: a panic degrades
// to an unknown-quality report instead of losing the whole analysis.
func (o *Orchestrator) validateRun(run *model.PipelineRun, counts validate.Counts) (quality *model.QualityReport) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("pipeline: validator panicked",
				zap.String("hs_code", run.HSCode),
				zap.Any("panic", r),
			)
			quality = model.UnknownQualityReport(fmt.Sprintf("validation panicked: %v", r))
		}
	}()
	return validate.Complete(run.Components, run.Classification, run.Scores, counts)
}

func (o *Orchestrator) fail(run *model.PipelineRun, reason string) *model.PipelineRun {
	run.Status = model.RunStatusFailed
	run.FailureReason = reason
	run.Quality = model.UnknownQualityReport(reason)
	run.Duration = time.Since(run.StartedAt)

	zap.L().Error("pipeline: analysis aborted",
		zap.String("hs_code", run.HSCode),
		zap.String("reason", reason),
		zap.Int("errors", len(run.Errors)),
	)
	return run
}

// criticalReason renders a stage-level total failure, distinguishing
// majority-timeout from majority-error fan-outs.
func criticalReason(stageName string, err error) string {
	var cf *runner.CriticalFailure
	if errors.As(err, &cf) && cf.MostlyTimeouts() {
		return stageName + " timed out on all components"
	}
	return stageName + " failed on all components"
}

func hasTimeout(records []model.ErrorRecord) bool {
	for _, r := range records {
		if r.ErrorType == model.ErrorTypeTimeout {
			return true
		}
	}
	return false
}

func padClassifications(values []model.Classification, n int) []model.Classification {
	for len(values) < n {
		values = append(values, model.UnknownClassification())
	}
	return values[:n]
}

func padScores(values []model.Score, n int) []model.Score {
	for len(values) < n {
		values = append(values, model.SentinelScore())
	}
	return values[:n]
}

func summarize(run *model.PipelineRun) *model.RunSummary {
	byClass := map[model.ClassLabel]int{
		model.ClassShared:  0,
		model.ClassICEOnly: 0,
		model.ClassEVOnly:  0,
		model.ClassUnknown: 0,
	}
	simTotal := 0.0
	for _, c := range run.Classification {
		byClass[c.Classification]++
		simTotal += c.SimilarityOrZero()
	}
	avgSim := 0.0
	if len(run.Classification) > 0 {
		avgSim = simTotal / float64(len(run.Classification))
	}

	timeouts := 0
	for _, e := range run.Errors {
		if e.ErrorType == model.ErrorTypeTimeout {
			timeouts++
		}
	}

	return &model.RunSummary{
		TotalComponents: len(run.Components),
		ByClass:         byClass,
		AvgSimilarity:   avgSim,
		QualityByStage: map[string]int{
			model.StageEnricher:    run.Quality.Enricher.QualityScore,
			model.StageClassifier:  run.Quality.Classifier.QualityScore,
			model.StageScorer:      run.Quality.Scorer.QualityScore,
			model.StageIntegration: run.Quality.Integration.QualityScore,
		},
		IssuesFound: len(run.Quality.AllIssues),
		ErrorsFound: len(run.Errors),
		Timeouts:    timeouts,
	}
}
