package regional

// Metrics holds the calibration tables behind the plant and region rollups.
// The values are tunable calibration data, not fixed constants, so they live
// on a struct that callers may override before running stage 6.
type Metrics struct {
	// BaseTFS is the category baseline transition feasibility score (0-100).
	BaseTFS map[Category]float64
	// BaseICEDep is the category baseline ICE dependency (0-1).
	BaseICEDep map[Category]float64
	// TFSAdjust shifts the baseline TFS by drivetrain type.
	TFSAdjust map[DriveType]float64
	// DepAdjust shifts the baseline ICE dependency by drivetrain type.
	DepAdjust map[DriveType]float64
	// ConfidenceWeights weight a component's contribution to plant averages.
	ConfidenceWeights map[ConfidenceLevel]float64
	// SizeClassMidpoints substitute for a missing employment estimate.
	SizeClassMidpoints map[SizeClass]int

	// DefaultTFS and DefaultICEDep apply to unknown categories and to plants
	// with no usable components.
	DefaultTFS    float64
	DefaultICEDep float64
}

// DefaultMetrics returns the calibration used for the German analysis.
func DefaultMetrics() Metrics {
	return Metrics{
		BaseTFS: map[Category]float64{
			CategoryVehicleAssembly:    55,
			CategoryPowertrain:         30,
			CategoryElectricPowertrain: 88,
			CategoryBatterySystems:     90,
			CategoryChassisSuspension:  72,
			CategoryBodyStructural:     78,
			CategoryInteriorSystems:    80,
			CategoryElectronics:        75,
		},
		BaseICEDep: map[Category]float64{
			CategoryVehicleAssembly:    0.40,
			CategoryPowertrain:         0.90,
			CategoryElectricPowertrain: 0.00,
			CategoryBatterySystems:     0.00,
			CategoryChassisSuspension:  0.25,
			CategoryBodyStructural:     0.15,
			CategoryInteriorSystems:    0.10,
			CategoryElectronics:        0.20,
		},
		TFSAdjust: map[DriveType]float64{
			DriveICE:    -15,
			DriveEV:     +10,
			DriveShared: 0,
		},
		DepAdjust: map[DriveType]float64{
			DriveICE:    +0.30,
			DriveEV:     -0.20,
			DriveShared: 0,
		},
		ConfidenceWeights: map[ConfidenceLevel]float64{
			ConfidenceLevelHigh:   1.0,
			ConfidenceLevelMedium: 0.7,
			ConfidenceLevelLow:    0.4,
		},
		SizeClassMidpoints: map[SizeClass]int{
			SizeSmall:     250,
			SizeMedium:    1250,
			SizeLarge:     3500,
			SizeVeryLarge: 7500,
			SizeUncertain: 1250,
		},
		DefaultTFS:    55,
		DefaultICEDep: 0.50,
	}
}

// Benchmarks holds the external regional statistics used by stage 5
// validation and the RAVI exposure/adaptive terms. Like Metrics, these are
// data, replaceable when fresher Eurostat figures land.
type Benchmarks struct {
	// AutoEmployment is Eurostat automotive employment (NACE C29) per region.
	// Regions absent here have no baseline and are not validated.
	AutoEmployment map[string]int
	// RDExpenditurePct is R&D spend as a share of regional GDP.
	RDExpenditurePct map[string]float64
	// ManufacturingEmployment is total manufacturing headcount per region.
	ManufacturingEmployment map[string]int

	// DefaultRDPct and DefaultManufacturing apply to regions missing from
	// the respective table.
	DefaultRDPct         float64
	DefaultManufacturing int
}

// DefaultBenchmarks returns the Eurostat-derived tables for German NUTS-2
// regions (nama_10r_3empers and rd_e_gerdreg, approximate).
func DefaultBenchmarks() Benchmarks {
	return Benchmarks{
		AutoEmployment: map[string]int{
			"DE11": 185000, "DE12": 45000, "DE14": 35000, "DE21": 120000,
			"DE22": 45000, "DE27": 50000, "DE30": 15000, "DE71": 65000,
			"DE91": 95000, "DE92": 55000, "DEA1": 35000, "DEA2": 50000,
			"DEA5": 40000, "DEC0": 25000, "DED2": 20000,
		},
		RDExpenditurePct: map[string]float64{
			"DE11": 5.6, "DE12": 3.1, "DE13": 2.0, "DE14": 4.2,
			"DE21": 3.4, "DE22": 1.5, "DE23": 1.8, "DE24": 1.6,
			"DE25": 2.8, "DE26": 1.9, "DE27": 2.1,
			"DE30": 3.5, "DE40": 1.4, "DE50": 2.8, "DE60": 2.2,
			"DE71": 2.9, "DE72": 1.5, "DE73": 1.6,
			"DE80": 1.3,
			"DE91": 2.8, "DE92": 2.2, "DE93": 1.2, "DE94": 1.4,
			"DEA1": 1.8, "DEA2": 2.0, "DEA3": 1.3, "DEA4": 1.5, "DEA5": 1.4,
			"DEB1": 1.5, "DEB2": 1.1, "DEB3": 1.6,
			"DEC0": 1.2,
			"DED2": 2.5, "DED4": 1.8, "DED5": 2.4,
			"DEE0": 1.4, "DEF0": 1.5, "DEG0": 1.9,
		},
		ManufacturingEmployment: map[string]int{
			"DE11": 520000, "DE12": 180000, "DE13": 120000, "DE14": 130000,
			"DE21": 420000, "DE22": 110000, "DE23": 90000, "DE24": 85000,
			"DE25": 140000, "DE26": 95000, "DE27": 160000,
			"DE30": 110000, "DE40": 65000, "DE50": 55000, "DE60": 75000,
			"DE71": 280000, "DE72": 55000, "DE73": 80000,
			"DE80": 45000,
			"DE91": 200000, "DE92": 180000, "DE93": 55000, "DE94": 110000,
			"DEA1": 250000, "DEA2": 300000, "DEA3": 85000, "DEA4": 140000, "DEA5": 220000,
			"DEB1": 70000, "DEB2": 35000, "DEB3": 130000,
			"DEC0": 95000,
			"DED2": 120000, "DED4": 95000, "DED5": 75000,
			"DEE0": 85000, "DEF0": 95000, "DEG0": 110000,
		},
		DefaultRDPct:         2.0,
		DefaultManufacturing: 150000,
	}
}
