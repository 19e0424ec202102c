package regional

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/transition-cli/internal/parse"
	"github.com/sells-group/transition-cli/pkg/llm"
)

// Client is the LLM boundary for the four model-backed stages. As in the
// component pipeline, implementations return an error when the output
// cannot be interpreted; degradation policy belongs to the caller.
type Client interface {
	// Companies names the three most significant automotive manufacturers
	// with real production presence in a region.
	Companies(ctx context.Context, region Region) ([]Company, error)

	// Plants lists a company's manufacturing sites within a region. An
	// empty list is a valid answer.
	Plants(ctx context.Context, company string, region Region) ([]Plant, error)

	// Components profiles a plant: whether it is a real production site
	// and up to four component categories made there.
	Components(ctx context.Context, plant Plant) (ComponentsResult, error)

	// Employment estimates a plant's workforce by size class.
	Employment(ctx context.Context, plant Plant) (EmploymentResult, error)
}

// Config carries the generation settings shared by the four stages.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func (c Config) generate() llm.GenerateConfig {
	temp := c.Temperature
	return llm.GenerateConfig{
		Model:       c.Model,
		MaxTokens:   int64(c.MaxTokens),
		Temperature: &temp,
		Timeout:     c.Timeout,
	}
}

// LLMClient implements Client against a raw text-generation backend.
type LLMClient struct {
	llm llm.Client
	cfg Config
}

// NewLLMClient wires the stage config to one backend.
func NewLLMClient(backend llm.Client, cfg Config) *LLMClient {
	return &LLMClient{llm: backend, cfg: cfg}
}

const companiesPrompt = `You are an expert in the European automotive industry.

TASK:
For the German NUTS-2 region "%s — %s", identify the 3 most
significant automotive companies that operate production or manufacturing facilities
in this region.

Include ONLY companies with real automotive manufacturing presence.

COMPANY TYPES TO INCLUDE:
- OEMs (vehicle manufacturers)
- Tier-1 suppliers (direct suppliers to OEMs)
- Tier-2 suppliers ONLY if they represent significant regional employment or strategic importance

DO NOT include:
- Sales offices
- Corporate headquarters without manufacturing
- Logistics centers
- R&D-only sites without production
- Small workshops or niche firms

FOR EACH COMPANY, PROVIDE:
- name: Official company name
- type: "OEM", "Tier-1", or "Tier-2"
- hq_in_region: true / false

RELIABILITY RULES:
- If unsure whether a company has manufacturing in this region, DO NOT include it
- Prefer well-documented, widely known facilities
- Do NOT guess or speculate

OUTPUT FORMAT:
Return ONLY valid JSON in the following structure (no markdown, no explanations):

{
  "nuts2_code": "%s",
  "nuts2_name": "%s",
  "companies": [
    {
      "name": "Company Name",
      "type": "OEM",
      "hq_in_region": true
    }
  ]
}

IMPORTANT:
- Return EXACTLY 3 companies (most significant only).`

// MaxCompaniesPerRegion caps the stage-1 answer.
const MaxCompaniesPerRegion = 3

// Companies implements stage 1 for one region.
func (c *LLMClient) Companies(ctx context.Context, region Region) ([]Company, error) {
	prompt := fmt.Sprintf(companiesPrompt, region.Code, region.Name, region.Code, region.Name)
	raw, err := c.llm.Generate(ctx, prompt, c.cfg.generate())
	if err != nil {
		return nil, eris.Wrap(err, "regional: identify companies")
	}

	var out CompaniesResult
	if err := parse.Object(raw, &out); err != nil {
		return nil, eris.Wrap(err, "regional: parse companies response")
	}

	companies := out.Companies[:0:0]
	for _, co := range out.Companies {
		co.Name = strings.TrimSpace(co.Name)
		if co.Name == "" {
			continue
		}
		companies = append(companies, co)
	}
	if len(companies) > MaxCompaniesPerRegion {
		companies = companies[:MaxCompaniesPerRegion]
	}
	return companies, nil
}

const plantsPrompt = `You are an expert on the German automotive industry.

TASK:
For the company "%s" in the German NUTS-2 region "%s — %s",
list ALL manufacturing plants or factories located in this region.

INCLUDE ONLY:
- Facilities with actual production or manufacturing
- Assembly plants
- Component manufacturing plants
- Powertrain, battery, or vehicle production sites

EXCLUDE:
- Corporate headquarters without manufacturing
- Sales offices
- Logistics centers
- Pure R&D facilities with no production

If the company has NO manufacturing plants in this region,
return an EMPTY list.

OUTPUT FORMAT (JSON ONLY, no markdown, no explanations):
{
  "company": "%s",
  "nuts2_code": "%s",
  "nuts2_name": "%s",
  "plants": [
    {
      "plant_name": "Name or identifier of the plant",
      "city": "City name",
      "primary_function": "Brief description of main production activity"
    }
  ]
}`

type rawPlant struct {
	PlantName string `json:"plant_name"`
	City      string `json:"city"`
}

// Plants implements stage 2 for one (company, region) pair.
func (c *LLMClient) Plants(ctx context.Context, company string, region Region) ([]Plant, error) {
	prompt := fmt.Sprintf(plantsPrompt, company, region.Code, region.Name, company, region.Code, region.Name)
	raw, err := c.llm.Generate(ctx, prompt, c.cfg.generate())
	if err != nil {
		return nil, eris.Wrap(err, "regional: identify plants")
	}

	var out struct {
		Plants []rawPlant `json:"plants"`
	}
	if err := parse.Object(raw, &out); err != nil {
		return nil, eris.Wrap(err, "regional: parse plants response")
	}

	plants := make([]Plant, 0, len(out.Plants))
	for _, p := range out.Plants {
		name := strings.TrimSpace(p.PlantName)
		if name == "" {
			continue
		}
		plants = append(plants, Plant{
			Company:   company,
			Name:      name,
			City:      strings.TrimSpace(p.City),
			NUTS2Code: region.Code,
		})
	}
	return plants, nil
}

const componentsPrompt = `You are an expert in automotive manufacturing and supply chains.

TASK:
Analyze the following automotive facility and determine whether it is a
REAL PRODUCTION / MANUFACTURING PLANT.

If it is NOT a production facility (e.g. R&D center, test track, office, logistics),
return:
{
  "is_production_site": false,
  "reason": "Short explanation"
}

If it IS a production facility, return:
- is_production_site = true
- AT MOST %d component categories actually produced at THIS plant

STRICT RULES:
- Only include components manufactured at THIS specific plant
- Do NOT list company-wide product portfolios
- Use ONLY the following component categories:

ALLOWED CATEGORIES:
%s

ICE / EV LABELING:
For each component, assign EXACTLY ONE of:
- ICE = combustion-dependent (engines, fuel systems, exhaust)
- EV = exists only due to electric drivetrain (batteries, e-motors, inverters)
- Shared = drivetrain-agnostic (brakes, body, interior, most electronics)

FACILITY:
Company: %s
Plant: %s
City: %s
NUTS-2: %s

OUTPUT FORMAT (JSON ONLY, no markdown, no explanations):

{
  "company": "%s",
  "plant": "%s",
  "city": "%s",
  "nuts2_code": "%s",
  "is_production_site": true,
  "components": [
    {
      "category": "ONE category from the allowed list",
      "ice_ev_type": "ICE | EV | Shared",
      "confidence": "high | medium | low"
    }
  ]
}`

// Components implements stage 3 for one plant. Components outside the
// allowed category vocabulary are dropped, drive types and confidence
// labels are normalized, and the list is capped at MaxPlantComponents.
func (c *LLMClient) Components(ctx context.Context, plant Plant) (ComponentsResult, error) {
	categories := make([]string, len(AllCategories))
	for i, cat := range AllCategories {
		categories[i] = "- " + string(cat)
	}
	prompt := fmt.Sprintf(componentsPrompt,
		MaxPlantComponents, strings.Join(categories, "\n"),
		plant.Company, plant.Name, plant.City, plant.NUTS2Code,
		plant.Company, plant.Name, plant.City, plant.NUTS2Code)

	raw, err := c.llm.Generate(ctx, prompt, c.cfg.generate())
	if err != nil {
		return ComponentsResult{}, eris.Wrap(err, "regional: profile plant components")
	}

	var out ComponentsResult
	if err := parse.Object(raw, &out); err != nil {
		return ComponentsResult{}, eris.Wrap(err, "regional: parse components response")
	}

	out.Company, out.Plant, out.City, out.NUTS2Code = plant.Company, plant.Name, plant.City, plant.NUTS2Code
	if !out.IsProductionSite {
		out.Components = nil
		return out, nil
	}

	kept := out.Components[:0:0]
	for _, comp := range out.Components {
		comp.Category = Category(strings.TrimSpace(string(comp.Category)))
		if !IsValidCategory(comp.Category) {
			continue
		}
		comp.DriveType = normalizeDriveType(comp.DriveType)
		comp.Confidence = normalizeConfidence(comp.Confidence)
		kept = append(kept, comp)
	}
	if len(kept) > MaxPlantComponents {
		kept = kept[:MaxPlantComponents]
	}
	out.Components = kept
	return out, nil
}

const employmentPrompt = `You are an expert in industrial economics and automotive manufacturing.

TASK:
Estimate the employment size of the following automotive PRODUCTION PLANT.

STRICT RULES:
- Use SIZE CLASSES primarily
- Only provide a numeric estimate if reasonably confident
- If uncertain, say so clearly
- Base estimates on known information about this specific facility

SIZE CLASSES:
- Small: <500 employees
- Medium: 500-2000 employees
- Large: 2000-5000 employees
- Very Large: >5000 employees

PLANT:
Company: %s
Plant: %s
City: %s
NUTS-2: %s

OUTPUT FORMAT (JSON ONLY, no markdown, no explanations):

{
  "company": "%s",
  "plant": "%s",
  "city": "%s",
  "nuts2_code": "%s",
  "employment": {
    "size_class": "Small | Medium | Large | Very Large",
    "estimate": null,
    "confidence": "high | medium | low",
    "basis": "news | annual_report | inference"
  }
}

Note: For "estimate", provide a number if confident, or null if uncertain.`

// Employment implements stage 4 for one plant. A result with an unknown
// size class degrades to the Medium / low-confidence fallback rather than
// failing the plant.
func (c *LLMClient) Employment(ctx context.Context, plant Plant) (EmploymentResult, error) {
	prompt := fmt.Sprintf(employmentPrompt,
		plant.Company, plant.Name, plant.City, plant.NUTS2Code,
		plant.Company, plant.Name, plant.City, plant.NUTS2Code)

	raw, err := c.llm.Generate(ctx, prompt, c.cfg.generate())
	if err != nil {
		return EmploymentResult{}, eris.Wrap(err, "regional: estimate employment")
	}

	var out EmploymentResult
	if err := parse.Object(raw, &out); err != nil {
		return EmploymentResult{}, eris.Wrap(err, "regional: parse employment response")
	}

	out.Company, out.Plant, out.City, out.NUTS2Code = plant.Company, plant.Name, plant.City, plant.NUTS2Code
	switch out.Employment.SizeClass {
	case SizeSmall, SizeMedium, SizeLarge, SizeVeryLarge, SizeUncertain:
	default:
		out.Employment = FallbackEmployment()
	}
	out.Employment.Confidence = normalizeConfidence(out.Employment.Confidence)
	return out, nil
}

// FallbackEmployment is the stage-4 degradation value: a Medium plant at
// low confidence with no numeric estimate.
func FallbackEmployment() Employment {
	return Employment{SizeClass: SizeMedium, Confidence: ConfidenceLevelLow, Basis: "inference"}
}

func normalizeDriveType(d DriveType) DriveType {
	switch strings.ToLower(strings.TrimSpace(string(d))) {
	case "ice":
		return DriveICE
	case "ev":
		return DriveEV
	default:
		return DriveShared
	}
}

func normalizeConfidence(c ConfidenceLevel) ConfidenceLevel {
	switch strings.ToLower(strings.TrimSpace(string(c))) {
	case "high":
		return ConfidenceLevelHigh
	case "low":
		return ConfidenceLevelLow
	default:
		return ConfidenceLevelMedium
	}
}
