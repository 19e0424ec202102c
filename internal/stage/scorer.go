package stage

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/transition-cli/internal/model"
	"github.com/sells-group/transition-cli/internal/parse"
)

const scorePrompt = `You are an expert in automotive manufacturing and electrification.

Score the following vehicle component for the ICE-to-EV transition.

Component: "%s" (HS Code %s)

Return EXACTLY ONE valid JSON object. Do NOT include explanations outside JSON. Do NOT repeat yourself.

The JSON MUST have this structure and NOTHING else:
{
  "component": "%s",
  "technical_compatibility": 0-100,
  "manufacturing_feasibility": 0-100,
  "supply_chain_concentration": 0-100,
  "demand_stability": 0-100,
  "value_added": 0-100,
  "regulatory_exposure": 0-100
}

Rules:
- Scores must be integers
- Higher means easier transition on that dimension
- Output MUST start with { and end with }`

// rawScore accepts both key vocabularies seen in the wild: the long
// dimension names the prompt asks for, and the short canonical names some
// model versions echo back. Pointers keep "key missing" distinguishable from
// a genuine zero; missing dimensions surface as 0 so the validator can flag
// them.
type rawScore struct {
	Tech          *int `json:"tech"`
	Manufacturing *int `json:"manufacturing"`
	SupplyChain   *int `json:"supply_chain"`
	Demand        *int `json:"demand"`
	Value         *int `json:"value"`
	Regulatory    *int `json:"regulatory"`

	TechnicalCompatibility   *int `json:"technical_compatibility"`
	ManufacturingFeasibility *int `json:"manufacturing_feasibility"`
	SupplyChainConcentration *int `json:"supply_chain_concentration"`
	DemandStability          *int `json:"demand_stability"`
	ValueAdded               *int `json:"value_added"`
	RegulatoryExposure       *int `json:"regulatory_exposure"`
}

func (r rawScore) toScore() (model.Score, bool) {
	pick := func(short, long *int) (int, bool) {
		if short != nil {
			return *short, true
		}
		if long != nil {
			return *long, true
		}
		return 0, false
	}

	var s model.Score
	var any bool
	set := func(dst *int, short, long *int) {
		if v, ok := pick(short, long); ok {
			*dst = v
			any = true
		}
	}
	set(&s.Tech, r.Tech, r.TechnicalCompatibility)
	set(&s.Manufacturing, r.Manufacturing, r.ManufacturingFeasibility)
	set(&s.SupplyChain, r.SupplyChain, r.SupplyChainConcentration)
	set(&s.Demand, r.Demand, r.DemandStability)
	set(&s.Value, r.Value, r.ValueAdded)
	set(&s.Regulatory, r.Regulatory, r.RegulatoryExposure)
	return s, any
}

// Score rates one component on the six transition dimensions. Values are
// passed through as the model produced them; range and flatness judgments
// belong to the validator, not here.
func (c *LLMClient) Score(ctx context.Context, component model.Component, hsCode string) (model.Score, error) {
	prompt := fmt.Sprintf(scorePrompt, component.Name, hsCode, component.Name)

	text, err := c.llm.Generate(ctx, prompt, c.scorer.generate())
	if err != nil {
		return model.Score{}, eris.Wrap(err, "stage: score")
	}

	score, err := parseScore(text)
	if err != nil {
		zap.L().Warn("stage: scorer response unparseable",
			zap.String("component", component.Name),
			zap.Error(err),
		)
		return model.Score{}, err
	}
	return score, nil
}

func parseScore(text string) (model.Score, error) {
	var raw rawScore
	if err := parse.Object(text, &raw); err != nil {
		return model.Score{}, err
	}
	score, ok := raw.toScore()
	if !ok {
		return model.Score{}, parse.ErrUnparseable
	}
	return score, nil
}
