// Package regional implements the NUTS-2 fan-out pipeline from regions to
// companies, plants, components, and employment, followed by rule-based
// benchmark validation and the RAVI vulnerability rollup. Units are
// independent throughout: one failed plant degrades that plant only.
package regional

import "strings"

// CompanyType is the supplier-tier classification of an automotive company.
type CompanyType string

const (
	CompanyOEM   CompanyType = "OEM"
	CompanyTier1 CompanyType = "Tier-1"
	CompanyTier2 CompanyType = "Tier-2"
)

// Company is one automotive manufacturer identified in a region.
type Company struct {
	Name       string      `json:"name"`
	Type       CompanyType `json:"type"`
	HQInRegion bool        `json:"hq_in_region"`
}

// CompaniesResult is the stage-1 output for one region.
type CompaniesResult struct {
	NUTS2Code string    `json:"nuts2_code"`
	NUTS2Name string    `json:"nuts2_name"`
	Companies []Company `json:"companies"`
}

// Plant is one manufacturing site of a company within a region.
type Plant struct {
	Company   string `json:"company"`
	Name      string `json:"plant"`
	City      string `json:"city"`
	NUTS2Code string `json:"nuts2_code"`
}

// PlantsResult is the stage-2 output for one (company, region) pair.
type PlantsResult struct {
	Company   string  `json:"company"`
	NUTS2Code string  `json:"nuts2_code"`
	Plants    []Plant `json:"plants"`
}

// Category is the closed component-category vocabulary for plant output.
type Category string

const (
	CategoryVehicleAssembly    Category = "Vehicle Assembly"
	CategoryPowertrain         Category = "Powertrain Components"
	CategoryElectricPowertrain Category = "Electric Powertrain Components"
	CategoryBatterySystems     Category = "Battery Systems"
	CategoryChassisSuspension  Category = "Chassis & Suspension"
	CategoryBodyStructural     Category = "Body & Structural Parts"
	CategoryInteriorSystems    Category = "Interior Systems"
	CategoryElectronics        Category = "Electronics & Control Units"
)

// AllCategories lists the eight allowed categories.
var AllCategories = []Category{
	CategoryVehicleAssembly, CategoryPowertrain, CategoryElectricPowertrain,
	CategoryBatterySystems, CategoryChassisSuspension, CategoryBodyStructural,
	CategoryInteriorSystems, CategoryElectronics,
}

// IsValidCategory reports whether c is in the closed category set.
func IsValidCategory(c Category) bool {
	for _, v := range AllCategories {
		if v == c {
			return true
		}
	}
	return false
}

// DriveType labels a plant component's drivetrain dependence.
type DriveType string

const (
	DriveICE    DriveType = "ICE"
	DriveEV     DriveType = "EV"
	DriveShared DriveType = "Shared"
)

// ConfidenceLevel is the model's self-reported certainty for one answer.
type ConfidenceLevel string

const (
	ConfidenceLevelHigh   ConfidenceLevel = "high"
	ConfidenceLevelMedium ConfidenceLevel = "medium"
	ConfidenceLevelLow    ConfidenceLevel = "low"
)

// PlantComponent is one component category produced at a plant.
type PlantComponent struct {
	Category   Category        `json:"category"`
	DriveType  DriveType       `json:"ice_ev_type"`
	Confidence ConfidenceLevel `json:"confidence"`
}

// MaxPlantComponents caps the stage-3 component list per plant.
const MaxPlantComponents = 4

// ComponentsResult is the stage-3 output for one plant.
type ComponentsResult struct {
	Company          string           `json:"company"`
	Plant            string           `json:"plant"`
	City             string           `json:"city"`
	NUTS2Code        string           `json:"nuts2_code"`
	IsProductionSite bool             `json:"is_production_site"`
	Reason           string           `json:"reason,omitempty"`
	Components       []PlantComponent `json:"components"`
}

// SizeClass buckets plant employment.
type SizeClass string

const (
	SizeSmall     SizeClass = "Small"
	SizeMedium    SizeClass = "Medium"
	SizeLarge     SizeClass = "Large"
	SizeVeryLarge SizeClass = "Very Large"
	SizeUncertain SizeClass = "Uncertain"
)

// Employment is a plant's estimated workforce. Estimate is a pointer:
// the model answers null when it is not confident in a number, and the
// size-class midpoint substitutes for it downstream.
type Employment struct {
	SizeClass  SizeClass       `json:"size_class"`
	Estimate   *int            `json:"estimate"`
	Confidence ConfidenceLevel `json:"confidence"`
	Basis      string          `json:"basis,omitempty"`
}

// EmploymentResult is the stage-4 output for one plant.
type EmploymentResult struct {
	Company    string     `json:"company"`
	Plant      string     `json:"plant"`
	City       string     `json:"city"`
	NUTS2Code  string     `json:"nuts2_code"`
	Employment Employment `json:"employment"`
}

// CompositeKey builds the join key shared by every stage file:
// company_plant_nuts2code, underscore-joined, each part trimmed of
// surrounding whitespace. Stage files are joined solely on this string, so
// it must be reproduced byte-identically everywhere.
func CompositeKey(company, plant, nuts2Code string) string {
	return strings.TrimSpace(company) + "_" + strings.TrimSpace(plant) + "_" + strings.TrimSpace(nuts2Code)
}

// Key returns the plant's composite join key.
func (p Plant) Key() string {
	return CompositeKey(p.Company, p.Name, p.NUTS2Code)
}

// Key returns the composite join key of a stage-3 result.
func (r ComponentsResult) Key() string {
	return CompositeKey(r.Company, r.Plant, r.NUTS2Code)
}

// Key returns the composite join key of a stage-4 result.
func (r EmploymentResult) Key() string {
	return CompositeKey(r.Company, r.Plant, r.NUTS2Code)
}
