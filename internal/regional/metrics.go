package regional

import "math"

// ComponentTFS returns the transition feasibility score for one component:
// category baseline shifted by drivetrain type, clamped to [10, 95].
func (m Metrics) ComponentTFS(c PlantComponent) float64 {
	base, ok := m.BaseTFS[c.Category]
	if !ok {
		base = m.DefaultTFS
	}
	tfs := base + m.TFSAdjust[c.DriveType]
	return math.Min(95, math.Max(10, tfs))
}

// ComponentICEDep returns the ICE dependency for one component: category
// baseline shifted by drivetrain type, clamped to [0, 1].
func (m Metrics) ComponentICEDep(c PlantComponent) float64 {
	base, ok := m.BaseICEDep[c.Category]
	if !ok {
		base = m.DefaultICEDep
	}
	dep := base + m.DepAdjust[c.DriveType]
	return math.Min(1, math.Max(0, dep))
}

// PlantMetrics aggregates a plant's components into a single TFS and ICE
// dependency, weighting each component by its confidence level. A plant
// with no components gets the defaults; unknown confidence labels weigh
// as medium.
type PlantMetrics struct {
	TFS         float64 `json:"plant_tfs"`
	ICEDep      float64 `json:"plant_ice_dependency"`
	ICECount    int     `json:"ice_count"`
	EVCount     int     `json:"ev_count"`
	SharedCount int     `json:"shared_count"`
}

// ComponentCount is the total number of components behind the metrics.
func (p PlantMetrics) ComponentCount() int {
	return p.ICECount + p.EVCount + p.SharedCount
}

// DominantDrive classifies the plant by its component mix: ICE-leaning only
// when ICE components outnumber everything else combined, EV-leaning
// symmetrically, mixed otherwise.
func (p PlantMetrics) DominantDrive() DriveType {
	switch {
	case p.ICECount > p.EVCount+p.SharedCount:
		return DriveICE
	case p.EVCount > p.ICECount+p.SharedCount:
		return DriveEV
	default:
		return DriveShared
	}
}

// PlantFor computes the confidence-weighted plant metrics.
func (m Metrics) PlantFor(components []PlantComponent) PlantMetrics {
	var out PlantMetrics
	var tfsSum, depSum, weightSum float64
	for _, c := range components {
		switch c.DriveType {
		case DriveICE:
			out.ICECount++
		case DriveEV:
			out.EVCount++
		default:
			out.SharedCount++
		}
		w, ok := m.ConfidenceWeights[c.Confidence]
		if !ok {
			w = m.ConfidenceWeights[ConfidenceLevelMedium]
		}
		tfsSum += w * m.ComponentTFS(c)
		depSum += w * m.ComponentICEDep(c)
		weightSum += w
	}
	if weightSum == 0 {
		out.TFS, out.ICEDep = m.DefaultTFS, m.DefaultICEDep
		return out
	}
	out.TFS = math.Round(tfsSum/weightSum*10) / 10
	out.ICEDep = math.Round(depSum/weightSum*1000) / 1000
	return out
}

// EmploymentFor resolves a plant's headcount: the explicit estimate when
// present, otherwise the size-class midpoint.
func (m Metrics) EmploymentFor(e Employment) int {
	if e.Estimate != nil {
		return *e.Estimate
	}
	if mid, ok := m.SizeClassMidpoints[e.SizeClass]; ok {
		return mid
	}
	return m.SizeClassMidpoints[SizeUncertain]
}
