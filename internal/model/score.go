package model

// ScoreDimensions lists the six required scoring dimensions in canonical order.
// Alternate scorer implementations using long key names (technical_compatibility
// and friends) must map into these before the validator sees them.
var ScoreDimensions = []string{"tech", "manufacturing", "supply_chain", "demand", "value", "regulatory"}

// Score holds the six-dimension transition risk profile for one component.
// All dimensions are 0-100 integers; the fixed set admits no subset or superset.
type Score struct {
	Tech          int `json:"tech"`
	Manufacturing int `json:"manufacturing"`
	SupplyChain   int `json:"supply_chain"`
	Demand        int `json:"demand"`
	Value         int `json:"value"`
	Regulatory    int `json:"regulatory"`
}

// SentinelScore returns the all-50 placeholder substituted for a failed item.
func SentinelScore() Score {
	return Score{Tech: 50, Manufacturing: 50, SupplyChain: 50, Demand: 50, Value: 50, Regulatory: 50}
}

// Dimensions returns the six values in canonical order.
func (s Score) Dimensions() [6]int {
	return [6]int{s.Tech, s.Manufacturing, s.SupplyChain, s.Demand, s.Value, s.Regulatory}
}

// TFS computes the Transition Feasibility Score: the integer average of the
// six dimensions, defined only when every dimension is present and positive.
// When undefined it returns (0, false) and is reported as 0/"Unknown"
// downstream, never a partial average.
func (s Score) TFS() (int, bool) {
	sum := 0
	for _, v := range s.Dimensions() {
		if v <= 0 {
			return 0, false
		}
		sum += v
	}
	return sum / 6, true
}

// Timeline maps a TFS score to an estimated transition window.
func Timeline(tfs int) string {
	switch {
	case tfs == 0:
		return "Unknown"
	case tfs >= 75:
		return "1-2 years"
	case tfs >= 60:
		return "2-3 years"
	case tfs >= 40:
		return "3-5 years"
	default:
		return "5+ years"
	}
}
