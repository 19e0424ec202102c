package stage

import (
	"context"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/transition-cli/internal/model"
	"github.com/sells-group/transition-cli/internal/parse"
)

// MaxComponents caps the enrichment result. Anything past the top four is
// noise for the downstream stages and is silently truncated.
const MaxComponents = 4

const enrichPrompt = `You are an automotive engineering expert. For HS Code %s (%s), identify the TOP %d most critical physical components by cost and importance.

Focus ONLY on tangible, manufactured vehicle components. Do NOT include tools, software, fasteners, or non-essential accessories unless they are core to the product.

Return ONLY valid JSON (no markdown, no explanations):
[
  {
    "name": "Component Name",
    "cost_share": 0.30,
    "description": "Brief description",
    "function": "Primary function",
    "subsystem": "Subsystem (Powertrain/Drivetrain/Chassis/Electronics/etc)"
  }
]

Requirements:
- Exactly %d components
- cost_share must sum to 1.0
- Rank by cost (highest first)
- Use precise and consistent engineering terminology
- Components must be physically distinct parts
- Focus on combustion-engine vehicles`

// rawComponent accepts the enricher's JSON loosely: cost_share may be absent
// or null, and the other fields default to empty strings.
type rawComponent struct {
	Name        string   `json:"name"`
	CostShare   *float64 `json:"cost_share"`
	Description string   `json:"description"`
	Function    string   `json:"function"`
	Subsystem   string   `json:"subsystem"`
}

// Enrich asks the model for the top components of an HS code. JSON is the
// primary path; a numbered/bulleted plain-text answer is recovered by the
// line heuristic with equal cost shares. Anything else is a parse error the
// runner may retry.
func (c *LLMClient) Enrich(ctx context.Context, hsCode, description string) ([]model.Component, error) {
	prompt := fmt.Sprintf(enrichPrompt, hsCode, description, MaxComponents, MaxComponents)

	text, err := c.llm.Generate(ctx, prompt, c.enricher.generate())
	if err != nil {
		return nil, eris.Wrap(err, "stage: enrich")
	}

	components, err := parseComponents(text)
	if err != nil {
		zap.L().Warn("stage: enricher response unparseable",
			zap.String("hs_code", hsCode),
			zap.Error(err),
		)
		return nil, err
	}
	return components, nil
}

func parseComponents(text string) ([]model.Component, error) {
	var raw []rawComponent
	if err := parse.Array(text, &raw); err == nil {
		var out []model.Component
		for _, rc := range raw {
			if rc.Name == "" {
				continue
			}
			if len(out) == MaxComponents {
				break
			}
			out = append(out, model.Component{
				Name:        rc.Name,
				CostShare:   rc.CostShare,
				Description: rc.Description,
				Function:    rc.Function,
				Subsystem:   model.Subsystem(rc.Subsystem),
			})
		}
		if len(out) > 0 {
			return normalizeCostShares(out), nil
		}
	}

	// Plain-text fallback: treat each enumerated line as a bare component
	// name and split the cost evenly.
	if names := parse.Lines(text); len(names) > 0 {
		if len(names) > MaxComponents {
			names = names[:MaxComponents]
		}
		share := round2(1.0 / float64(len(names)))
		out := make([]model.Component, len(names))
		for i, name := range names {
			s := share
			out[i] = model.Component{Name: name, CostShare: &s}
		}
		return out, nil
	}

	return nil, parse.ErrUnparseable
}

// normalizeCostShares rescales present shares to sum to 1.0 and nudges the
// last component to absorb rounding drift. Components with absent shares are
// left absent.
func normalizeCostShares(components []model.Component) []model.Component {
	total := 0.0
	present := 0
	last := -1
	for i, c := range components {
		if c.CostShare != nil {
			total += *c.CostShare
			present++
			last = i
		}
	}
	if present == 0 || total <= 0 {
		return components
	}

	sum := 0.0
	for i, c := range components {
		if c.CostShare == nil {
			continue
		}
		v := round2(*c.CostShare / total)
		components[i].CostShare = &v
		sum += v
	}
	if diff := 1.0 - sum; diff != 0 {
		v := round2(*components[last].CostShare + diff)
		components[last].CostShare = &v
	}
	return components
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
