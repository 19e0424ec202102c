package stage

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/transition-cli/internal/model"
	"github.com/sells-group/transition-cli/internal/parse"
)

const classifyPrompt = `You are an expert in automotive engineering and powertrain transitions.

Classify whether the following vehicle component disappears with the transition from ICE to EVs, remains necessary in both, or exists only because of electric drivetrains.

Component: "%s" (HS Code %s)

Evaluate in this order:
1. Fundamentally tied to internal combustion (fuel delivery, combustion, exhaust, engine mechanics)? Then ICE_ONLY.
2. Exists solely due to electric drivetrain architecture (electric torque, high-voltage power, battery storage)? Then EV_ONLY.
3. Otherwise SHARED.

If ambiguous, default to SHARED with a lower similarity score.

Return ONLY valid JSON:
{
  "classification": "ICE_ONLY | SHARED | EV_ONLY",
  "similarity_score": 0.55,
  "reasoning": "One short sentence"
}

Rules:
- similarity_score is 0-1: how similar the ICE and EV variants of this component are (0=completely different, 1=identical).
- Base reasoning on physical necessity and drivetrain dependence only.
- Do NOT speculate about future redesigns.
- Never use similarity_score = 1.0.
- Do NOT include explanations outside JSON.`

// rawClassification tolerates the field-name drift seen across model
// versions: similarity_score, similarity, and confidence all carry the same
// number.
type rawClassification struct {
	Classification  string   `json:"classification"`
	SimilarityScore *float64 `json:"similarity_score"`
	Similarity      *float64 `json:"similarity"`
	Confidence      *float64 `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
}

// Classify labels one component. A JSON object is the primary path; a bare
// text verdict ("this is ICE only, similarity 0.2") is recovered by token
// scanning. A response with neither is a parse error the runner may retry.
func (c *LLMClient) Classify(ctx context.Context, component model.Component, hsCode string) (model.Classification, error) {
	prompt := fmt.Sprintf(classifyPrompt, component.Name, hsCode)

	text, err := c.llm.Generate(ctx, prompt, c.classify.generate())
	if err != nil {
		return model.Classification{}, eris.Wrap(err, "stage: classify")
	}

	result, err := parseClassification(text)
	if err != nil {
		zap.L().Warn("stage: classifier response unparseable",
			zap.String("component", component.Name),
			zap.Error(err),
		)
		return model.Classification{}, err
	}
	return result, nil
}

func parseClassification(text string) (model.Classification, error) {
	var raw rawClassification
	if err := parse.Object(text, &raw); err == nil {
		label := model.ParseClassLabel(raw.Classification)
		sim := firstPresent(raw.SimilarityScore, raw.Similarity, raw.Confidence)
		if label.IsDomainLabel() || sim != nil {
			if sim != nil {
				clamped := round2(clamp01(*sim))
				sim = &clamped
			}
			return model.Classification{
				Classification:  label,
				SimilarityScore: sim,
				Reasoning:       raw.Reasoning,
			}, nil
		}
	}

	// Token-scan fallback over the raw text.
	if label := model.ParseClassLabel(text); label.IsDomainLabel() {
		return model.Classification{
			Classification:  label,
			SimilarityScore: similarityFromText(text),
		}, nil
	}

	return model.Classification{}, parse.ErrUnparseable
}

func firstPresent(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var (
	fractionPattern = regexp.MustCompile(`0\.\d{1,2}`)
	percentPattern  = regexp.MustCompile(`(\d{1,3})%`)
)

// similarityFromText pulls the first 0.XX fraction or NN% percentage out of a
// free-text answer. Returns nil when neither appears, keeping the score
// absent rather than inventing one.
func similarityFromText(text string) *float64 {
	if m := fractionPattern.FindString(text); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			v = round2(clamp01(v))
			return &v
		}
	}
	if m := percentPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			f := round2(clamp01(float64(v) / 100))
			return &f
		}
	}
	return nil
}
