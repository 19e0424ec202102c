// Package validate scores stage outputs with deterministic, rule-based
// checks. No model calls: every rule starts from 100 and subtracts a fixed
// penalty, floored at 0. The penalty amounts are the contract: downstream
// thresholds (valid >= 70, confidence buckets) assume them.
package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/transition-cli/internal/model"
)

// ExpectedComponents is the component count the enricher and scorer are held
// to.
const ExpectedComponents = 4

// genericNameParts is the denylist of placeholder-name fragments. Matched as
// case-insensitive substrings.
var genericNameParts = []string{"component", "part", "item", "product", "material"}

// Enricher validates the component list: count, required fields, name
// specificity, cost-share coherence, subsystem vocabulary, description
// quality, and descending cost order.
func Enricher(components []model.Component) model.StageReport {
	var issues []string
	score := 100

	if len(components) != ExpectedComponents {
		issues = append(issues, fmt.Sprintf("expected %d components, got %d", ExpectedComponents, len(components)))
		score -= 20
	}

	for i, comp := range components {
		var missing []string
		if comp.Name == "" {
			missing = append(missing, "name")
		}
		if comp.CostShareOrZero() == 0 {
			missing = append(missing, "cost_share")
		}
		if comp.Description == "" {
			missing = append(missing, "description")
		}
		if comp.Function == "" {
			missing = append(missing, "function")
		}
		if comp.Subsystem == "" {
			missing = append(missing, "subsystem")
		}
		if len(missing) > 0 {
			issues = append(issues, fmt.Sprintf("component %d missing: %s", i+1, strings.Join(missing, ", ")))
			score -= 10
		}
	}

	for i, comp := range components {
		name := strings.ToLower(comp.Name)
		for _, generic := range genericNameParts {
			if strings.Contains(name, generic) {
				issues = append(issues, fmt.Sprintf("component %d has generic name: %s", i+1, comp.Name))
				score -= 5
				break
			}
		}
	}

	shares := make([]float64, len(components))
	total := 0.0
	for i, comp := range components {
		shares[i] = comp.CostShareOrZero()
		total += shares[i]
	}
	if total < 0.95 || total > 1.05 {
		issues = append(issues, fmt.Sprintf("cost shares sum to %.2f, expected ~1.0", total))
		score -= 15
	}
	if len(shares) > 0 && allIdenticalFloats(shares) {
		issues = append(issues, fmt.Sprintf("all cost shares identical: %v", shares[0]))
		score -= 25
	}

	for i, comp := range components {
		if !model.IsValidSubsystem(string(comp.Subsystem)) {
			issues = append(issues, fmt.Sprintf("component %d has invalid subsystem: %s", i+1, comp.Subsystem))
			score -= 5
		}
	}

	for i, comp := range components {
		if len(comp.Description) < 10 {
			issues = append(issues, fmt.Sprintf("component %d description too short: %s", i+1, comp.Description))
			score -= 5
		}
	}

	// First violation only.
	for i := 0; i+1 < len(shares); i++ {
		if shares[i] < shares[i+1] {
			issues = append(issues, "components not ordered by cost (descending)")
			score -= 10
			break
		}
	}

	return model.NewStageReport(model.StageEnricher, score, issues)
}

// Classifier validates the classification list: label vocabulary, similarity
// ranges and variation, label/similarity soft consistency, and label spread.
// The UNKNOWN sentinel counts as an invalid label here.
func Classifier(classifications []model.Classification) model.StageReport {
	if len(classifications) == 0 {
		return model.NewStageReport(model.StageClassifier, 0, []string{"no classifications provided"})
	}

	var issues []string
	score := 100

	for i, c := range classifications {
		if !c.Classification.IsDomainLabel() {
			issues = append(issues, fmt.Sprintf("component %d invalid classification: %s", i+1, c.Classification))
			score -= 15
		}
	}

	var inRange []float64
	for i, c := range classifications {
		if c.SimilarityScore == nil || *c.SimilarityScore < 0 || *c.SimilarityScore > 1 {
			issues = append(issues, fmt.Sprintf("component %d similarity out of range: %s", i+1, similarityString(c)))
			score -= 10
			continue
		}
		inRange = append(inRange, *c.SimilarityScore)
	}
	if len(inRange) > 0 && allIdenticalFloats(inRange) {
		issues = append(issues, fmt.Sprintf("all similarities identical: %v", inRange[0]))
		score -= 25
	}

	for i, c := range classifications {
		if c.SimilarityScore == nil {
			continue
		}
		sim := *c.SimilarityScore
		label := c.Classification
		if (label == model.ClassEVOnly || label == model.ClassICEOnly) && sim > 0.7 {
			issues = append(issues, fmt.Sprintf("component %d %s but similarity high (%v)", i+1, label, sim))
			score -= 5
		}
		if label == model.ClassShared && sim < 0.5 {
			issues = append(issues, fmt.Sprintf("component %d SHARED but similarity low (%v)", i+1, sim))
			score -= 5
		}
	}

	uniform := true
	for _, c := range classifications[1:] {
		if c.Classification != classifications[0].Classification {
			uniform = false
			break
		}
	}
	if uniform {
		issues = append(issues, fmt.Sprintf("all components same classification: %s", classifications[0].Classification))
		score -= 20
	}

	return model.NewStageReport(model.StageClassifier, score, issues)
}

// Scorer validates the score list: count, dimension presence (a zero value
// reads as "the model never produced this dimension"), ranges, per-component
// flatness, per-dimension flatness across components, and an informational
// outlier flag that carries no penalty.
func Scorer(scores []model.Score) model.StageReport {
	var issues []string
	score := 100

	if len(scores) != ExpectedComponents {
		issues = append(issues, fmt.Sprintf("expected %d scores, got %d", ExpectedComponents, len(scores)))
		score -= 20
	}

	for i, s := range scores {
		if missing := missingDimensions(s); len(missing) > 0 {
			issues = append(issues, fmt.Sprintf("component %d missing dimensions: %s", i+1, strings.Join(missing, ", ")))
			score -= 10
		}
	}

	for i, s := range scores {
		for d, v := range s.Dimensions() {
			if v < 0 || v > 100 {
				issues = append(issues, fmt.Sprintf("component %d %s out of range: %d", i+1, model.ScoreDimensions[d], v))
				score -= 5
			}
		}
	}

	for i, s := range scores {
		if allIdenticalInts(s.Dimensions()) {
			issues = append(issues, fmt.Sprintf("component %d all dimensions identical: %d", i+1, s.Tech))
			score -= 15
		}
	}

	for d, dim := range model.ScoreDimensions {
		flat := len(scores) > 0
		for _, s := range scores {
			if s.Dimensions()[d] != scores[0].Dimensions()[d] {
				flat = false
				break
			}
		}
		if flat {
			issues = append(issues, fmt.Sprintf("all components same %s score: %d", dim, scores[0].Dimensions()[d]))
			score -= 10
		}
	}

	// Outliers are reported but never penalized.
	if len(scores) > 0 {
		sum, n := 0, 0
		for _, s := range scores {
			for _, v := range s.Dimensions() {
				sum += v
				n++
			}
		}
		avg := float64(sum) / float64(n)
		for i, s := range scores {
			for d, v := range s.Dimensions() {
				if v > 0 && v < 20 && avg > 70 {
					issues = append(issues, fmt.Sprintf("component %d %s unusually low: %d (avg: %.0f)", i+1, model.ScoreDimensions[d], v, avg))
				} else if v > 95 && avg < 50 {
					issues = append(issues, fmt.Sprintf("component %d %s unusually high: %d (avg: %.0f)", i+1, model.ScoreDimensions[d], v, avg))
				}
			}
		}
	}

	return model.NewStageReport(model.StageScorer, score, issues)
}

// Counts carries the stage output lengths as originally produced, before the
// orchestrator pads short classifier/scorer results with sentinels. The
// count-mismatch rule must judge what the stages actually returned, not the
// repaired slices.
type Counts struct {
	Enricher   int
	Classifier int
	Scorer     int
}

// CountsOf derives Counts from unpadded stage outputs.
func CountsOf(components []model.Component, classifications []model.Classification, scores []model.Score) Counts {
	return Counts{Enricher: len(components), Classifier: len(classifications), Scorer: len(scores)}
}

// Integration checks cross-stage consistency: the three outputs must cover
// the same components in the same positional order.
func Integration(components []model.Component, classifications []model.Classification, scores []model.Score, counts Counts) model.StageReport {
	var issues []string
	score := 100

	if counts.Enricher != counts.Classifier || counts.Enricher != counts.Scorer {
		issues = append(issues, fmt.Sprintf(
			"component count mismatch: enricher=%d, classifier=%d, scorer=%d",
			counts.Enricher, counts.Classifier, counts.Scorer))
		score -= 30
	}

	joined := min(len(classifications), len(scores))
	for i := 0; i < joined && i < len(components); i++ {
		if components[i].Name == "" {
			issues = append(issues, fmt.Sprintf("component %d name missing in enricher", i+1))
			score -= 5
		}
	}

	for i := 0; i < joined; i++ {
		if classifications[i].SimilarityScore == nil {
			issues = append(issues, fmt.Sprintf("component %d missing similarity_score", i+1))
			score -= 5
		}
		for _, dim := range missingDimensions(scores[i]) {
			issues = append(issues, fmt.Sprintf("component %d missing %s score", i+1, dim))
			score -= 5
		}
	}

	return model.NewStageReport(model.StageIntegration, score, issues)
}

// Complete runs all four rule sets and folds them into one report. The
// overall score is the unweighted mean of the four stage scores. The slices
// are the (possibly sentinel-padded) outputs the pipeline will deliver;
// counts are the pre-padding lengths.
func Complete(components []model.Component, classifications []model.Classification, scores []model.Score, counts Counts) *model.QualityReport {
	enricher := Enricher(components)
	classifier := Classifier(classifications)
	scorer := Scorer(scores)
	integration := Integration(components, classifications, scores, counts)

	overall := (enricher.QualityScore + classifier.QualityScore + scorer.QualityScore + integration.QualityScore) / 4

	var all []string
	for _, report := range []model.StageReport{enricher, classifier, scorer, integration} {
		for _, issue := range report.Issues {
			all = append(all, report.Stage+": "+issue)
		}
	}

	return &model.QualityReport{
		Enricher:          enricher,
		Classifier:        classifier,
		Scorer:            scorer,
		Integration:       integration,
		OverallQuality:    overall,
		OverallConfidence: model.ConfidenceFor(overall),
		Valid:             overall >= model.ValidThreshold,
		AllIssues:         all,
	}
}

// missingDimensions reports the dimensions a score never received. A zero
// value is indistinguishable from an omitted key after decoding, and the
// scoring rubric never legitimately produces 0, so zero reads as missing.
func missingDimensions(s model.Score) []string {
	var missing []string
	for d, v := range s.Dimensions() {
		if v == 0 {
			missing = append(missing, model.ScoreDimensions[d])
		}
	}
	return missing
}

func allIdenticalFloats(vals []float64) bool {
	first := math.Round(vals[0]*100) / 100
	for _, v := range vals[1:] {
		if math.Round(v*100)/100 != first {
			return false
		}
	}
	return true
}

func allIdenticalInts(vals [6]int) bool {
	for _, v := range vals[1:] {
		if v != vals[0] {
			return false
		}
	}
	return true
}

func similarityString(c model.Classification) string {
	if c.SimilarityScore == nil {
		return "absent"
	}
	return fmt.Sprintf("%v", *c.SimilarityScore)
}
