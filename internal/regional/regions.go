package regional

import (
	"fmt"
	"sort"
	"strings"
)

// AllRegions maps every German NUTS-2 code to its region name.
var AllRegions = map[string]string{
	"DE11": "Stuttgart", "DE12": "Karlsruhe", "DE13": "Freiburg", "DE14": "Tübingen",
	"DE21": "Oberbayern", "DE22": "Niederbayern", "DE23": "Oberpfalz", "DE24": "Oberfranken",
	"DE25": "Mittelfranken", "DE26": "Unterfranken", "DE27": "Schwaben",
	"DE30": "Berlin", "DE40": "Brandenburg", "DE50": "Bremen", "DE60": "Hamburg",
	"DE71": "Darmstadt", "DE72": "Gießen", "DE73": "Kassel",
	"DE80": "Mecklenburg-Vorpommern",
	"DE91": "Braunschweig", "DE92": "Hannover", "DE93": "Lüneburg", "DE94": "Weser-Ems",
	"DEA1": "Düsseldorf", "DEA2": "Köln", "DEA3": "Münster", "DEA4": "Detmold", "DEA5": "Arnsberg",
	"DEB1": "Koblenz", "DEB2": "Trier", "DEB3": "Rheinhessen-Pfalz",
	"DEC0": "Saarland",
	"DED2": "Dresden", "DED4": "Chemnitz", "DED5": "Leipzig",
	"DEE0": "Sachsen-Anhalt", "DEF0": "Schleswig-Holstein", "DEG0": "Thüringen",
}

// PriorityRegions are the regions with the heaviest automotive footprint.
var PriorityRegions = map[string]string{
	"DE11": "Stuttgart", "DE21": "Oberbayern", "DE91": "Braunschweig",
	"DE22": "Niederbayern", "DE14": "Tübingen", "DE27": "Schwaben",
	"DEA1": "Düsseldorf", "DEA2": "Köln", "DE71": "Darmstadt",
	"DEC0": "Saarland", "DE92": "Hannover", "DED2": "Dresden",
	"DE12": "Karlsruhe", "DEA5": "Arnsberg", "DE25": "Mittelfranken",
}

// TestRegions is the three-region smoke set.
var TestRegions = map[string]string{
	"DE11": "Stuttgart",
	"DE21": "Oberbayern",
	"DE91": "Braunschweig",
}

// Region pairs a NUTS-2 code with its name.
type Region struct {
	Code string
	Name string
}

// Selection modes accepted by SelectRegions.
const (
	ModeTest      = "test"
	ModePriority  = "priority"
	ModeAll       = "all"
	ModeRemaining = "remaining"
)

// SelectRegions resolves a mode string to an ordered region list. Besides
// the named modes it accepts a comma-separated list of NUTS-2 codes.
// ModeRemaining is all regions minus those in done, so an interrupted batch
// can resume without redoing finished regions.
func SelectRegions(mode string, done map[string]bool) ([]Region, error) {
	var src map[string]string
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeTest:
		src = TestRegions
	case ModePriority:
		src = PriorityRegions
	case ModeAll:
		src = AllRegions
	case ModeRemaining:
		src = make(map[string]string)
		for code, name := range AllRegions {
			if !done[code] {
				src[code] = name
			}
		}
	default:
		var out []Region
		for _, raw := range strings.Split(mode, ",") {
			code := strings.ToUpper(strings.TrimSpace(raw))
			if code == "" {
				continue
			}
			name, ok := AllRegions[code]
			if !ok {
				return nil, fmt.Errorf("regional: unknown NUTS-2 code %q", code)
			}
			out = append(out, Region{Code: code, Name: name})
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("regional: empty region selection %q", mode)
		}
		return out, nil
	}

	out := make([]Region, 0, len(src))
	for code, name := range src {
		out = append(out, Region{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
