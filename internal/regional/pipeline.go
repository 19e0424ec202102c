package regional

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/transition-cli/internal/runner"
)

// Stage numbers for the --from resume flag.
const (
	StageCompanies  = 1
	StagePlants     = 2
	StageComponents = 3
	StageEmployment = 4
	StageValidation = 5
	StageRAVI       = 6
)

// Pipeline drives the six regional stages. Stages 1-4 fan out over their
// units with the shared retry policy; a unit that exhausts its retries is
// saved in its degraded form and never blocks its siblings. Stages 5 and 6
// are pure computation over the stored stage files.
type Pipeline struct {
	client      Client
	store       *Store
	metrics     Metrics
	benchmarks  Benchmarks
	maxRetries  int
	concurrency int
}

// Options tune the pipeline; zero values take the defaults.
type Options struct {
	Metrics     *Metrics
	Benchmarks  *Benchmarks
	MaxRetries  int
	Concurrency int
}

// DefaultConcurrency bounds how many units run at once within a stage.
const DefaultConcurrency = 4

// NewPipeline builds a pipeline over the given stage client and store.
func NewPipeline(client Client, store *Store, opts Options) *Pipeline {
	p := &Pipeline{
		client:      client,
		store:       store,
		metrics:     DefaultMetrics(),
		benchmarks:  DefaultBenchmarks(),
		maxRetries:  2,
		concurrency: DefaultConcurrency,
	}
	if opts.Metrics != nil {
		p.metrics = *opts.Metrics
	}
	if opts.Benchmarks != nil {
		p.benchmarks = *opts.Benchmarks
	}
	if opts.MaxRetries > 0 {
		p.maxRetries = opts.MaxRetries
	}
	if opts.Concurrency > 0 {
		p.concurrency = opts.Concurrency
	}
	return p
}

// Run executes stages from..6 for the given regions. Earlier stages are
// assumed to have their files in the store already; that is what makes an
// interrupted batch resumable at any stage boundary.
func (p *Pipeline) Run(ctx context.Context, regions []Region, from int) error {
	if from < StageCompanies || from > StageRAVI {
		return eris.Errorf("regional: stage %d out of range 1-6", from)
	}
	steps := []struct {
		stage int
		name  string
		run   func(context.Context, []Region) error
	}{
		{StageCompanies, "companies", p.runCompanies},
		{StagePlants, "plants", p.runPlants},
		{StageComponents, "components", p.runComponents},
		{StageEmployment, "employment", p.runEmployment},
		{StageValidation, "validation", p.runValidation},
		{StageRAVI, "ravi", p.runRAVI},
	}
	for _, s := range steps {
		if s.stage < from {
			continue
		}
		zap.L().Info("regional: stage starting", zap.Int("stage", s.stage), zap.String("name", s.name))
		if err := s.run(ctx, regions); err != nil {
			return eris.Wrapf(err, "regional: stage %d (%s)", s.stage, s.name)
		}
	}
	return nil
}

func (p *Pipeline) runCompanies(ctx context.Context, regions []Region) error {
	result, err := runner.RunEach(ctx, "stage1", regions, p.maxRetries, p.concurrency,
		func(ctx context.Context, _ int, r Region) ([]Company, error) {
			return p.client.Companies(ctx, r)
		},
		func(companies []Company) error {
			if len(companies) == 0 {
				return eris.New("no companies identified")
			}
			return nil
		},
		func(Region) []Company { return nil },
	)
	if err != nil {
		return err
	}
	logFanOut("stage1", result.Warnings)
	for i, r := range regions {
		out := CompaniesResult{NUTS2Code: r.Code, NUTS2Name: r.Name, Companies: result.Values[i]}
		if err := p.store.SaveCompanies(out); err != nil {
			return err
		}
	}
	return nil
}

// companyUnit is one stage-2 unit of work.
type companyUnit struct {
	Company Company
	Region  Region
}

func (p *Pipeline) runPlants(ctx context.Context, regions []Region) error {
	companies, err := p.store.LoadCompanies()
	if err != nil {
		return err
	}
	selected := make(map[string]bool, len(regions))
	for _, r := range regions {
		selected[r.Code] = true
	}
	var units []companyUnit
	for _, cr := range companies {
		if !selected[cr.NUTS2Code] {
			continue
		}
		for _, co := range cr.Companies {
			units = append(units, companyUnit{
				Company: co,
				Region:  Region{Code: cr.NUTS2Code, Name: cr.NUTS2Name},
			})
		}
	}
	if len(units) == 0 {
		return eris.New("no stage1 companies found for the selected regions")
	}

	result, err := runner.RunEach(ctx, "stage2", units, p.maxRetries, p.concurrency,
		func(ctx context.Context, _ int, u companyUnit) ([]Plant, error) {
			return p.client.Plants(ctx, u.Company.Name, u.Region)
		},
		nil, // an empty plant list is a valid answer
		func(companyUnit) []Plant { return nil },
	)
	if err != nil {
		return err
	}
	logFanOut("stage2", result.Warnings)
	for i, u := range units {
		out := PlantsResult{Company: u.Company.Name, NUTS2Code: u.Region.Code, Plants: result.Values[i]}
		if err := p.store.SavePlants(out); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runComponents(ctx context.Context, regions []Region) error {
	plants, err := p.store.LoadPlants()
	if err != nil {
		return err
	}
	plants = filterPlants(plants, regions)
	if len(plants) == 0 {
		return eris.New("no stage2 plants found for the selected regions")
	}

	result, err := runner.RunEach(ctx, "stage3", plants, p.maxRetries, p.concurrency,
		func(ctx context.Context, _ int, pl Plant) (ComponentsResult, error) {
			return p.client.Components(ctx, pl)
		},
		nil,
		func(pl Plant) ComponentsResult {
			return ComponentsResult{
				Company:   pl.Company,
				Plant:     pl.Name,
				City:      pl.City,
				NUTS2Code: pl.NUTS2Code,
				Reason:    "analysis failed",
			}
		},
	)
	if err != nil {
		return err
	}
	logFanOut("stage3", result.Warnings)
	for _, r := range result.Values {
		if err := p.store.SaveComponents(r); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runEmployment(ctx context.Context, regions []Region) error {
	components, err := p.store.LoadComponents()
	if err != nil {
		return err
	}
	var sites []Plant
	for _, cr := range components {
		if !cr.IsProductionSite || !inRegions(cr.NUTS2Code, regions) {
			continue
		}
		sites = append(sites, Plant{Company: cr.Company, Name: cr.Plant, City: cr.City, NUTS2Code: cr.NUTS2Code})
	}
	if len(sites) == 0 {
		return eris.New("no stage3 production sites found for the selected regions")
	}

	result, err := runner.RunEach(ctx, "stage4", sites, p.maxRetries, p.concurrency,
		func(ctx context.Context, _ int, pl Plant) (EmploymentResult, error) {
			return p.client.Employment(ctx, pl)
		},
		nil,
		func(pl Plant) EmploymentResult {
			return EmploymentResult{
				Company:    pl.Company,
				Plant:      pl.Name,
				City:       pl.City,
				NUTS2Code:  pl.NUTS2Code,
				Employment: FallbackEmployment(),
			}
		},
	)
	if err != nil {
		return err
	}
	logFanOut("stage4", result.Warnings)
	for _, r := range result.Values {
		if err := p.store.SaveEmployment(r); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runValidation(_ context.Context, regions []Region) error {
	employment, err := p.store.LoadEmployment()
	if err != nil {
		return err
	}
	employment = filterEmployment(employment, regions)
	report := ValidateEmployment(employment, p.metrics, p.benchmarks)
	for _, rv := range report.Regions {
		zap.L().Info("regional: employment validated",
			zap.String("nuts2", rv.NUTS2Code),
			zap.Int("plants", rv.PlantCount),
			zap.Int("employment", rv.EmploymentSum),
			zap.String("status", string(rv.Status)),
		)
	}
	return p.store.SaveValidation(report)
}

func (p *Pipeline) runRAVI(_ context.Context, regions []Region) error {
	components, err := p.store.LoadComponents()
	if err != nil {
		return err
	}
	employment, err := p.store.LoadEmployment()
	if err != nil {
		return err
	}
	employment = filterEmployment(employment, regions)
	if len(employment) == 0 {
		return eris.New("no stage4 employment results found for the selected regions")
	}

	plants := AssemblePlants(components, employment, p.metrics)
	scores := ScoreRegions(AggregateRegions(plants), p.benchmarks)
	for _, s := range scores {
		zap.L().Info("regional: region scored",
			zap.String("nuts2", s.NUTS2Code),
			zap.Float64("ravi", s.RAVIScore),
			zap.Int("rank", s.Rank),
			zap.String("category", s.Category),
		)
	}
	return p.store.SaveRAVI(RAVIReport{Plants: plants, Regions: scores})
}

func inRegions(code string, regions []Region) bool {
	for _, r := range regions {
		if r.Code == code {
			return true
		}
	}
	return false
}

func filterPlants(plants []Plant, regions []Region) []Plant {
	out := plants[:0:0]
	for _, p := range plants {
		if inRegions(p.NUTS2Code, regions) {
			out = append(out, p)
		}
	}
	return out
}

func filterEmployment(results []EmploymentResult, regions []Region) []EmploymentResult {
	out := results[:0:0]
	for _, r := range results {
		if inRegions(r.NUTS2Code, regions) {
			out = append(out, r)
		}
	}
	return out
}

func logFanOut(stage string, warnings []string) {
	for _, w := range warnings {
		zap.L().Warn(fmt.Sprintf("regional: %s", w), zap.String("stage", stage))
	}
}
