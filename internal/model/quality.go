package model

// Confidence buckets a stage quality score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// ConfidenceFor maps a 0-100 quality score to a confidence bucket.
func ConfidenceFor(qualityScore int) Confidence {
	switch {
	case qualityScore >= 80:
		return ConfidenceHigh
	case qualityScore >= 60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ValidThreshold is the minimum quality score considered valid.
const ValidThreshold = 70

// StageReport is the validator's verdict for one stage.
type StageReport struct {
	Stage        string     `json:"stage"`
	QualityScore int        `json:"quality_score"`
	Issues       []string   `json:"issues"`
	Confidence   Confidence `json:"confidence"`
	Valid        bool       `json:"valid"`
}

// NewStageReport builds a StageReport, deriving confidence and validity
// from the score.
func NewStageReport(stage string, score int, issues []string) StageReport {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return StageReport{
		Stage:        stage,
		QualityScore: score,
		Issues:       issues,
		Confidence:   ConfidenceFor(score),
		Valid:        score >= ValidThreshold,
	}
}

// QualityReport combines the four per-stage reports with the overall verdict.
// Overall is the unweighted mean of the stage scores; AllIssues is the union
// of every stage's issues in stage order.
type QualityReport struct {
	Enricher    StageReport `json:"enricher"`
	Classifier  StageReport `json:"classifier"`
	Scorer      StageReport `json:"scorer"`
	Integration StageReport `json:"integration"`

	OverallQuality    int        `json:"overall_quality"`
	OverallConfidence Confidence `json:"overall_confidence"`
	Valid             bool       `json:"valid"`
	AllIssues         []string   `json:"all_issues"`
}

// UnknownQualityReport is the degraded report substituted when the validator
// itself fails; a scoring bug must never block delivery of the analysis.
func UnknownQualityReport(reason string) *QualityReport {
	return &QualityReport{
		OverallQuality:    0,
		OverallConfidence: ConfidenceLow,
		Valid:             false,
		AllIssues:         []string{"validator: " + reason},
	}
}
