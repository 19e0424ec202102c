package regional

import (
	"math"
	"sort"
)

// ValidationStatus is the stage-5 verdict on a region's estimated
// automotive employment against the Eurostat baseline.
type ValidationStatus string

const (
	StatusPass       ValidationStatus = "PASS"
	StatusWarning    ValidationStatus = "WARNING"
	StatusFlag       ValidationStatus = "FLAG"
	StatusNoBaseline ValidationStatus = "NO_BASELINE"
)

// Deviation thresholds for the stage-5 verdicts.
const (
	passDeviation    = 0.30
	warningDeviation = 0.50
)

// RegionValidation compares one region's summed plant employment against
// its Eurostat benchmark. Deviation is nil when no baseline exists.
type RegionValidation struct {
	NUTS2Code          string           `json:"nuts2_code"`
	NUTS2Name          string           `json:"nuts2_name"`
	PlantCount         int              `json:"plant_count"`
	EmploymentSum      int              `json:"llm_employment_sum"`
	EurostatEmployment *int             `json:"eurostat_employment"`
	Deviation          *float64         `json:"deviation"`
	Status             ValidationStatus `json:"validation_status"`
	UncertainPlants    int              `json:"uncertain_plants"`
}

// ValidationSummary counts the verdicts across a batch of regions.
type ValidationSummary struct {
	RegionsAnalyzed int `json:"regions_analyzed"`
	TotalPlants     int `json:"total_plants"`
	TotalEmployment int `json:"total_llm_employment"`
	PassCount       int `json:"pass_count"`
	WarningCount    int `json:"warning_count"`
	FlagCount       int `json:"flag_count"`
	NoBaselineCount int `json:"no_baseline_count"`
}

// ValidationReport is the full stage-5 output.
type ValidationReport struct {
	Summary ValidationSummary  `json:"summary"`
	Regions []RegionValidation `json:"regions"`
}

// ValidateEmployment sums each region's plant employment (substituting
// size-class midpoints for missing estimates) and checks it against the
// Eurostat benchmark: within 30% passes, within 50% warns, beyond that the
// region is flagged. Regions without a benchmark get NO_BASELINE and no
// deviation. This stage is pure arithmetic, no model call involved.
func ValidateEmployment(results []EmploymentResult, m Metrics, b Benchmarks) ValidationReport {
	type acc struct {
		plants    int
		sum       int
		uncertain int
	}
	byRegion := make(map[string]*acc)
	for _, r := range results {
		a, ok := byRegion[r.NUTS2Code]
		if !ok {
			a = &acc{}
			byRegion[r.NUTS2Code] = a
		}
		emp := r.Employment
		if emp.Estimate == nil {
			if _, ok := m.SizeClassMidpoints[emp.SizeClass]; !ok {
				emp.SizeClass = SizeMedium
				a.uncertain++
			}
		}
		a.plants++
		a.sum += m.EmploymentFor(emp)
	}

	var report ValidationReport
	for nuts2, a := range byRegion {
		rv := RegionValidation{
			NUTS2Code:       nuts2,
			NUTS2Name:       AllRegions[nuts2],
			PlantCount:      a.plants,
			EmploymentSum:   a.sum,
			UncertainPlants: a.uncertain,
		}
		if eurostat, ok := b.AutoEmployment[nuts2]; ok {
			raw := (float64(a.sum) - float64(eurostat)) / float64(eurostat)
			dev := math.Round(raw*1000) / 1000
			rv.EurostatEmployment = &eurostat
			rv.Deviation = &dev
			// The verdict compares the exact deviation; only the stored
			// value is rounded.
			switch {
			case math.Abs(raw) <= passDeviation:
				rv.Status = StatusPass
			case math.Abs(raw) <= warningDeviation:
				rv.Status = StatusWarning
			default:
				rv.Status = StatusFlag
			}
		} else {
			rv.Status = StatusNoBaseline
		}
		report.Regions = append(report.Regions, rv)

		report.Summary.TotalPlants += rv.PlantCount
		report.Summary.TotalEmployment += rv.EmploymentSum
		switch rv.Status {
		case StatusPass:
			report.Summary.PassCount++
		case StatusWarning:
			report.Summary.WarningCount++
		case StatusFlag:
			report.Summary.FlagCount++
		case StatusNoBaseline:
			report.Summary.NoBaselineCount++
		}
	}
	report.Summary.RegionsAnalyzed = len(report.Regions)

	sort.Slice(report.Regions, func(i, j int) bool {
		if report.Regions[i].EmploymentSum != report.Regions[j].EmploymentSum {
			return report.Regions[i].EmploymentSum > report.Regions[j].EmploymentSum
		}
		return report.Regions[i].NUTS2Code < report.Regions[j].NUTS2Code
	})
	return report
}
