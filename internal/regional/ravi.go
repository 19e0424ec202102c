package regional

import (
	"math"
	"sort"
)

// PlantRecord joins one plant's stage-3 component profile with its stage-4
// employment into the unit the regional rollup consumes.
type PlantRecord struct {
	Company              string           `json:"company"`
	Plant                string           `json:"plant"`
	City                 string           `json:"city"`
	NUTS2Code            string           `json:"nuts2_code"`
	NUTS2Name            string           `json:"nuts2_name"`
	Employment           int              `json:"employment"`
	SizeClass            SizeClass        `json:"size_class"`
	EmploymentConfidence ConfidenceLevel  `json:"employment_confidence"`
	Metrics              PlantMetrics     `json:"metrics"`
	Components           []PlantComponent `json:"components"`
}

// AssemblePlants joins stage-4 employment results against stage-3 component
// results on the composite key. Every employment record yields a plant; a
// plant whose components are missing falls back to the default metrics.
// Unknown size classes read as Medium, matching the stage-4 fallback.
func AssemblePlants(components map[string]ComponentsResult, employment []EmploymentResult, m Metrics) []PlantRecord {
	plants := make([]PlantRecord, 0, len(employment))
	for _, er := range employment {
		emp := er.Employment
		if _, ok := m.SizeClassMidpoints[emp.SizeClass]; !ok {
			emp.SizeClass = SizeMedium
		}
		var comps []PlantComponent
		if cr, ok := components[er.Key()]; ok {
			comps = cr.Components
		}
		plants = append(plants, PlantRecord{
			Company:              er.Company,
			Plant:                er.Plant,
			City:                 er.City,
			NUTS2Code:            er.NUTS2Code,
			NUTS2Name:            AllRegions[er.NUTS2Code],
			Employment:           m.EmploymentFor(emp),
			SizeClass:            emp.SizeClass,
			EmploymentConfidence: emp.Confidence,
			Metrics:              m.PlantFor(comps),
			Components:           comps,
		})
	}
	return plants
}

// RegionSummary is the employment-weighted aggregate of a region's plants.
type RegionSummary struct {
	NUTS2Code       string  `json:"nuts2_code"`
	NUTS2Name       string  `json:"nuts2_name"`
	PlantCount      int     `json:"plant_count"`
	TotalEmployment int     `json:"total_employment"`
	WeightedTFS     float64 `json:"weighted_tfs"`
	WeightedICEDep  float64 `json:"weighted_ice_dependency"`
	ICEPlants       int     `json:"ice_plants"`
	EVPlants        int     `json:"ev_plants"`
	MixedPlants     int     `json:"mixed_plants"`
}

// AggregateRegions rolls plants up to their NUTS-2 regions, weighting TFS
// and ICE dependency by plant employment. A region whose plants carry no
// employment gets the neutral 55 / 0.5 pair.
func AggregateRegions(plants []PlantRecord) []RegionSummary {
	type acc struct {
		summary    RegionSummary
		tfsSum     float64
		depSum     float64
		employment int
	}
	byRegion := make(map[string]*acc)
	for _, p := range plants {
		a, ok := byRegion[p.NUTS2Code]
		if !ok {
			a = &acc{summary: RegionSummary{NUTS2Code: p.NUTS2Code, NUTS2Name: AllRegions[p.NUTS2Code]}}
			byRegion[p.NUTS2Code] = a
		}
		a.summary.PlantCount++
		a.employment += p.Employment
		a.tfsSum += p.Metrics.TFS * float64(p.Employment)
		a.depSum += p.Metrics.ICEDep * float64(p.Employment)
		switch p.Metrics.DominantDrive() {
		case DriveICE:
			a.summary.ICEPlants++
		case DriveEV:
			a.summary.EVPlants++
		default:
			a.summary.MixedPlants++
		}
	}

	out := make([]RegionSummary, 0, len(byRegion))
	for _, a := range byRegion {
		s := a.summary
		s.TotalEmployment = a.employment
		if a.employment > 0 {
			s.WeightedTFS = math.Round(a.tfsSum/float64(a.employment)*10) / 10
			s.WeightedICEDep = math.Round(a.depSum/float64(a.employment)*1000) / 1000
		} else {
			s.WeightedTFS = 55
			s.WeightedICEDep = 0.5
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NUTS2Code < out[j].NUTS2Code })
	return out
}

// Vulnerability categories derived from the normalized RAVI score.
const (
	VulnerabilityHigh   = "High"
	VulnerabilityMedium = "Medium"
	VulnerabilityLow    = "Low"
)

// RegionScore is one region's full RAVI decomposition.
type RegionScore struct {
	RegionSummary

	AutoEmploymentShare float64 `json:"auto_employment_share"`
	Exposure            float64 `json:"exposure"`
	RDExpenditurePct    float64 `json:"rd_expenditure_pct"`
	InnovationPotential float64 `json:"innovation_potential"`
	FutureAssets        float64 `json:"future_assets"`
	TransitionScore     float64 `json:"transition_score"`
	IndustrialReadiness float64 `json:"industrial_readiness"`
	AdaptiveCapacity    float64 `json:"adaptive_capacity"`
	RAVIRaw             float64 `json:"ravi_raw"`
	RAVIScore           float64 `json:"ravi_score"`
	Rank                int     `json:"vulnerability_rank"`
	Category            string  `json:"vulnerability_category"`
}

// ScoreRegions computes RAVI = exposure × (1 − adaptive capacity) for every
// region, normalizes the raw values to 0-100 across the batch, then ranks
// descending (rank 1 is the most vulnerable). When every raw value is equal
// the normalized score pins to 50 for all regions.
func ScoreRegions(summaries []RegionSummary, b Benchmarks) []RegionScore {
	out := make([]RegionScore, 0, len(summaries))
	for _, s := range summaries {
		rdPct, ok := b.RDExpenditurePct[s.NUTS2Code]
		if !ok {
			rdPct = b.DefaultRDPct
		}
		mfg, ok := b.ManufacturingEmployment[s.NUTS2Code]
		if !ok {
			mfg = b.DefaultManufacturing
		}

		// Exposure: automotive share of manufacturing (capped at 60%)
		// times how ICE-bound that employment is.
		autoShare := math.Min(float64(s.TotalEmployment)/float64(mfg), 0.6)
		exposure := autoShare * s.WeightedICEDep

		// Adaptive capacity blends innovation (R&D vs the EU 3% target)
		// with industrial readiness.
		innovation := math.Min(rdPct/3.0, 1.0)
		futureAssets := 1 - s.WeightedICEDep
		transition := s.WeightedTFS / 100
		readiness := 0.6*futureAssets + 0.4*transition
		adaptive := 0.5*innovation + 0.5*readiness

		out = append(out, RegionScore{
			RegionSummary:       s,
			AutoEmploymentShare: round3(autoShare),
			Exposure:            round4(exposure),
			RDExpenditurePct:    rdPct,
			InnovationPotential: round3(innovation),
			FutureAssets:        round3(futureAssets),
			TransitionScore:     round3(transition),
			IndustrialReadiness: round3(readiness),
			AdaptiveCapacity:    round3(adaptive),
			RAVIRaw:             round4(exposure * (1 - adaptive)),
		})
	}
	if len(out) == 0 {
		return out
	}

	minRaw, maxRaw := out[0].RAVIRaw, out[0].RAVIRaw
	for _, r := range out[1:] {
		minRaw = math.Min(minRaw, r.RAVIRaw)
		maxRaw = math.Max(maxRaw, r.RAVIRaw)
	}
	for i := range out {
		if maxRaw > minRaw {
			out[i].RAVIScore = math.Round((out[i].RAVIRaw-minRaw)/(maxRaw-minRaw)*100*10) / 10
		} else {
			out[i].RAVIScore = 50.0
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].RAVIScore > out[j].RAVIScore })
	for i := range out {
		out[i].Rank = i + 1
		switch {
		case out[i].RAVIScore >= 66:
			out[i].Category = VulnerabilityHigh
		case out[i].RAVIScore >= 33:
			out[i].Category = VulnerabilityMedium
		default:
			out[i].Category = VulnerabilityLow
		}
	}
	return out
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
