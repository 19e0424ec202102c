// Package model defines the records exchanged between pipeline stages.
package model

import "strings"

// Subsystem is the fixed vocabulary for vehicle subsystem assignment.
type Subsystem string

const (
	SubsystemPowertrain Subsystem = "Powertrain"
	SubsystemDrivetrain Subsystem = "Drivetrain"
	SubsystemChassis    Subsystem = "Chassis"
	SubsystemElectronic Subsystem = "Electronics"
	SubsystemBody       Subsystem = "Body"
	SubsystemExhaust    Subsystem = "Exhaust"
	SubsystemFuel       Subsystem = "Fuel"
	SubsystemSuspension Subsystem = "Suspension"
	SubsystemBrakes     Subsystem = "Brakes"
)

// ValidSubsystems lists every accepted subsystem value, in display order.
var ValidSubsystems = []Subsystem{
	SubsystemPowertrain, SubsystemDrivetrain, SubsystemChassis,
	SubsystemElectronic, SubsystemBody, SubsystemExhaust,
	SubsystemFuel, SubsystemSuspension, SubsystemBrakes,
}

// IsValidSubsystem reports whether s matches one of the fixed subsystem values.
func IsValidSubsystem(s string) bool {
	for _, v := range ValidSubsystems {
		if string(v) == s {
			return true
		}
	}
	return false
}

// Component is one physical sub-component identified by the enricher.
// CostShare is a pointer because the LLM may omit it (nil) or return an
// explicit null (also nil here, both mean "not estimable" downstream);
// a present value is always in [0,1].
type Component struct {
	Name        string    `json:"name"`
	CostShare   *float64  `json:"cost_share,omitempty"`
	Description string    `json:"description"`
	Function    string    `json:"function"`
	Subsystem   Subsystem `json:"subsystem"`
}

// CostShareOrZero returns the cost share, or 0 when absent.
func (c Component) CostShareOrZero() float64 {
	if c.CostShare == nil {
		return 0
	}
	return *c.CostShare
}

// ClassLabel is the powertrain-dependency verdict for one component.
type ClassLabel string

const (
	ClassICEOnly ClassLabel = "ICE_ONLY"
	ClassShared  ClassLabel = "SHARED"
	ClassEVOnly  ClassLabel = "EV_ONLY"

	// ClassUnknown is the sentinel substituted for a failed item. It never
	// satisfies validity checks that accept only the three domain labels.
	ClassUnknown ClassLabel = "UNKNOWN"
)

// IsDomainLabel reports whether l is one of the three genuine classifications.
// The UNKNOWN sentinel is deliberately excluded.
func (l ClassLabel) IsDomainLabel() bool {
	return l == ClassICEOnly || l == ClassShared || l == ClassEVOnly
}

// ParseClassLabel normalizes free text into a ClassLabel, tolerating the
// "ICE_ONLY | SHARED | EV_ONLY" template echoes some models produce.
func ParseClassLabel(s string) ClassLabel {
	upper := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case upper == string(ClassICEOnly) || upper == string(ClassEVOnly) || upper == string(ClassShared):
		return ClassLabel(upper)
	case strings.Contains(upper, string(ClassICEOnly)):
		return ClassICEOnly
	case strings.Contains(upper, string(ClassEVOnly)):
		return ClassEVOnly
	case strings.Contains(upper, string(ClassShared)):
		return ClassShared
	default:
		return ClassUnknown
	}
}

// Classification is the classifier stage's verdict for one component,
// joined back to the component list strictly by positional index.
// SimilarityScore is a pointer so "LLM omitted the field" (nil) stays
// distinguishable from a genuine 0.0.
type Classification struct {
	Classification  ClassLabel `json:"classification"`
	SimilarityScore *float64   `json:"similarity_score,omitempty"`
	Reasoning       string     `json:"reasoning,omitempty"`
}

// SimilarityOrZero returns the similarity score, or 0 when absent.
func (c Classification) SimilarityOrZero() float64 {
	if c.SimilarityScore == nil {
		return 0
	}
	return *c.SimilarityScore
}

// UnknownClassification returns the sentinel substituted for a failed item.
// The sentinel carries an explicit 0.0 similarity, not an absent one.
func UnknownClassification() Classification {
	zero := 0.0
	return Classification{Classification: ClassUnknown, SimilarityScore: &zero}
}
