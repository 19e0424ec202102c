package model

import "time"

// RunStatus is the terminal state of one pipeline run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusPartial RunStatus = "PARTIAL"
	RunStatusFailed  RunStatus = "FAILED"
)

// ErrorType classifies a recorded stage failure.
type ErrorType string

const (
	// ErrorTypeTimeout marks a collaborator-signaled timeout. Timeouts are
	// assumed non-transient within a run and are never retried.
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypeError covers any other exception or structural validation
	// failure; retried while attempts remain.
	ErrorTypeError ErrorType = "ERROR"

	// ErrorTypeParseFailure is an ERROR for retry purposes but tagged
	// distinctly so unparseable responses are diagnosable in the logs.
	ErrorTypeParseFailure ErrorType = "PARSE_FAILURE"

	// ErrorTypeCriticalFailure means every item in a fan-out stage failed;
	// the stage degrades to no usable result, not a partial list.
	ErrorTypeCriticalFailure ErrorType = "CRITICAL_FAILURE"
)

// ErrorRecord captures one failed attempt of one stage.
type ErrorRecord struct {
	Stage     string    `json:"stage"`
	Attempt   int       `json:"attempt"`
	ErrorType ErrorType `json:"error_type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// StageNames used across the component pipeline.
const (
	StageEnricher   = "enricher"
	StageClassifier = "classifier"
	StageScorer     = "scorer"
	StageValidator  = "validator"

	// StageIntegration is the validator's cross-stage rule set, not an LLM
	// stage of its own.
	StageIntegration = "integration"
)

// PipelineRun aggregates one HS code through all stages. It is created fresh
// at the start of an analysis call, mutated only by the orchestrator during
// that call, and returned at the end; nothing persists across calls except
// what the caller writes out.
type PipelineRun struct {
	ID             string           `json:"id,omitempty"`
	HSCode         string           `json:"hs_code"`
	Description    string           `json:"description"`
	StartedAt      time.Time        `json:"started_at"`
	Duration       time.Duration    `json:"duration"`
	Components     []Component      `json:"components,omitempty"`
	Classification []Classification `json:"classifications,omitempty"`
	Scores         []Score          `json:"scores,omitempty"`
	Quality        *QualityReport   `json:"quality,omitempty"`
	Summary        *RunSummary      `json:"summary,omitempty"`
	Errors         []ErrorRecord    `json:"errors"`
	Warnings       []string         `json:"warnings"`
	Status         RunStatus        `json:"status"`

	// FailureReason is set only on terminal failure and distinguishes which
	// stage failed and how (all timeouts vs all non-timeout errors).
	FailureReason string `json:"failure_reason,omitempty"`
}

// RunSummary carries the aggregate counters reported alongside a run.
type RunSummary struct {
	TotalComponents int                `json:"total_components"`
	ByClass         map[ClassLabel]int `json:"classifications"`
	AvgSimilarity   float64            `json:"avg_similarity"`
	QualityByStage  map[string]int     `json:"quality_by_stage"`
	IssuesFound     int                `json:"issues_found"`
	ErrorsFound     int                `json:"errors_found"`
	Timeouts        int                `json:"timeouts"`
}
