package regional

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Store persists each stage's output as one JSON file per unit under a base
// directory, one subdirectory per stage. Later stages and resumed runs read
// only these files, never earlier stages' in-memory state, so a batch can be
// restarted at any stage boundary.
type Store struct {
	base string
}

// NewStore opens (creating if needed) a stage store rooted at dir.
func NewStore(dir string) (*Store, error) {
	for _, sub := range []string{"stage1", "stage2", "stage3", "stage4", "stage5", "stage6"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, eris.Wrap(err, "regional: create stage directory")
		}
	}
	return &Store{base: dir}, nil
}

// safeName makes a string usable inside a filename. The composite join key
// inside the files stays untouched; only the filename is sanitized.
func safeName(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "-")
	if len(s) > 30 {
		s = s[:30]
	}
	return s
}

func (s *Store) write(sub, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "regional: encode stage output")
	}
	path := filepath.Join(s.base, sub, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "regional: write stage output")
	}
	return nil
}

func (s *Store) readAll(sub string, each func(data []byte) error) error {
	dir := filepath.Join(s.base, sub)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrap(err, "regional: read stage directory")
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return eris.Wrap(err, "regional: read stage file")
		}
		if err := each(data); err != nil {
			return eris.Wrap(err, "regional: decode "+e.Name())
		}
	}
	return nil
}

// SaveCompanies writes one region's stage-1 output.
func (s *Store) SaveCompanies(r CompaniesResult) error {
	return s.write("stage1", "stage1_"+r.NUTS2Code+".json", r)
}

// LoadCompanies reads every stage-1 file.
func (s *Store) LoadCompanies() ([]CompaniesResult, error) {
	var out []CompaniesResult
	err := s.readAll("stage1", func(data []byte) error {
		var r CompaniesResult
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// CompletedRegions reports which regions already have a stage-1 file, for
// the "remaining" selection mode.
func (s *Store) CompletedRegions() (map[string]bool, error) {
	done := make(map[string]bool)
	err := s.readAll("stage1", func(data []byte) error {
		var r CompaniesResult
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		if r.NUTS2Code != "" {
			done[r.NUTS2Code] = true
		}
		return nil
	})
	return done, err
}

// SavePlants writes one (company, region) stage-2 output.
func (s *Store) SavePlants(r PlantsResult) error {
	return s.write("stage2", "stage2_"+r.NUTS2Code+"_"+safeName(r.Company)+".json", r)
}

// LoadPlants reads every stage-2 file and flattens to a plant list.
func (s *Store) LoadPlants() ([]Plant, error) {
	var out []Plant
	err := s.readAll("stage2", func(data []byte) error {
		var r PlantsResult
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		out = append(out, r.Plants...)
		return nil
	})
	return out, err
}

// SaveComponents writes one plant's stage-3 output.
func (s *Store) SaveComponents(r ComponentsResult) error {
	return s.write("stage3", "stage3_"+r.NUTS2Code+"_"+safeName(r.Plant)+".json", r)
}

// LoadComponents reads every stage-3 file, keyed by the composite join key.
func (s *Store) LoadComponents() (map[string]ComponentsResult, error) {
	out := make(map[string]ComponentsResult)
	err := s.readAll("stage3", func(data []byte) error {
		var r ComponentsResult
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		out[r.Key()] = r
		return nil
	})
	return out, err
}

// SaveEmployment writes one plant's stage-4 output.
func (s *Store) SaveEmployment(r EmploymentResult) error {
	return s.write("stage4", "stage4_"+r.NUTS2Code+"_"+safeName(r.Plant)+".json", r)
}

// LoadEmployment reads every stage-4 file.
func (s *Store) LoadEmployment() ([]EmploymentResult, error) {
	var out []EmploymentResult
	err := s.readAll("stage4", func(data []byte) error {
		var r EmploymentResult
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// SaveValidation writes the stage-5 report.
func (s *Store) SaveValidation(r ValidationReport) error {
	return s.write("stage5", "stage5_validation.json", r)
}

// RAVIReport is the persisted stage-6 output.
type RAVIReport struct {
	Plants  []PlantRecord `json:"plants"`
	Regions []RegionScore `json:"regions"`
}

// SaveRAVI writes the stage-6 report.
func (s *Store) SaveRAVI(r RAVIReport) error {
	return s.write("stage6", "stage6_ravi.json", r)
}

// LoadRAVI reads the stage-6 report back, for the report/export commands.
func (s *Store) LoadRAVI() (RAVIReport, error) {
	data, err := os.ReadFile(filepath.Join(s.base, "stage6", "stage6_ravi.json"))
	if err != nil {
		return RAVIReport{}, eris.Wrap(err, "regional: read stage6 report")
	}
	var r RAVIReport
	if err := json.Unmarshal(data, &r); err != nil {
		return RAVIReport{}, eris.Wrap(err, "regional: decode stage6 report")
	}
	return r, nil
}
