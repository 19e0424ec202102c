package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/transition-cli/internal/model"
	"github.com/sells-group/transition-cli/pkg/llm"
)

type mockStages struct {
	mock.Mock
}

func (m *mockStages) Enrich(ctx context.Context, hsCode, description string) ([]model.Component, error) {
	args := m.Called(ctx, hsCode, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Component), args.Error(1)
}

func (m *mockStages) Classify(ctx context.Context, component model.Component, hsCode string) (model.Classification, error) {
	args := m.Called(ctx, component, hsCode)
	return args.Get(0).(model.Classification), args.Error(1)
}

func (m *mockStages) Score(ctx context.Context, component model.Component, hsCode string) (model.Score, error) {
	args := m.Called(ctx, component, hsCode)
	return args.Get(0).(model.Score), args.Error(1)
}

func share(v float64) *float64 { return &v }

func brakeComponents() []model.Component {
	return []model.Component{
		{Name: "Brake Caliper", CostShare: share(0.40), Description: "Hydraulic clamp assembly", Function: "Clamps pads onto rotor", Subsystem: model.SubsystemBrakes},
		{Name: "Brake Rotor", CostShare: share(0.30), Description: "Cast iron friction disc", Function: "Provides friction surface", Subsystem: model.SubsystemBrakes},
		{Name: "Brake Pads", CostShare: share(0.20), Description: "Replaceable friction blocks", Function: "Generate braking friction", Subsystem: model.SubsystemBrakes},
		{Name: "Master Cylinder", CostShare: share(0.10), Description: "Hydraulic pressure generator", Function: "Converts pedal force to pressure", Subsystem: model.SubsystemBrakes},
	}
}

func timeoutErr() error {
	return &llm.TimeoutError{Err: errors.New("request timed out")}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	components := brakeComponents()
	sims := []float64{0.85, 0.88, 0.92, 0.20}
	scores := []model.Score{
		{Tech: 85, Manufacturing: 80, SupplyChain: 75, Demand: 78, Value: 82, Regulatory: 76},
		{Tech: 88, Manufacturing: 79, SupplyChain: 77, Demand: 75, Value: 80, Regulatory: 81},
		{Tech: 92, Manufacturing: 84, SupplyChain: 76, Demand: 79, Value: 77, Regulatory: 75},
		{Tech: 75, Manufacturing: 82, SupplyChain: 78, Demand: 77, Value: 79, Regulatory: 80},
	}

	m := new(mockStages)
	m.On("Enrich", mock.Anything, "8708.30", "Brake systems").Return(components, nil)
	for i, comp := range components {
		label := model.ClassShared
		if i == 3 {
			label = model.ClassICEOnly
		}
		m.On("Classify", mock.Anything, comp, "8708.30").
			Return(model.Classification{Classification: label, SimilarityScore: share(sims[i])}, nil)
		m.On("Score", mock.Anything, comp, "8708.30").Return(scores[i], nil)
	}

	run := New(m, Options{}).Analyze(context.Background(), "8708.30", "Brake systems")

	assert.Equal(t, model.RunStatusSuccess, run.Status)
	assert.Empty(t, run.FailureReason)
	require.Len(t, run.Components, 4)
	require.Len(t, run.Classification, 4)
	require.Len(t, run.Scores, 4)

	require.NotNil(t, run.Quality)
	assert.True(t, run.Quality.Valid)
	assert.GreaterOrEqual(t, run.Quality.OverallQuality, 70)

	require.NotNil(t, run.Summary)
	assert.Equal(t, 4, run.Summary.TotalComponents)
	assert.Equal(t, 3, run.Summary.ByClass[model.ClassShared])
	assert.Equal(t, 1, run.Summary.ByClass[model.ClassICEOnly])
	assert.InDelta(t, 0.7125, run.Summary.AvgSimilarity, 0.001)
	assert.Empty(t, run.Errors)

	tfs, ok := run.Scores[0].TFS()
	require.True(t, ok)
	assert.Equal(t, 79, tfs)
}

func TestAnalyze_EnricherEmptyAborts(t *testing.T) {
	m := new(mockStages)
	m.On("Enrich", mock.Anything, mock.Anything, mock.Anything).Return([]model.Component{}, nil)

	run := New(m, Options{MaxRetries: 2}).Analyze(context.Background(), "8708.30", "Brake systems")

	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "enricher failed - cannot identify components", run.FailureReason)
	require.NotNil(t, run.Quality)
	assert.False(t, run.Quality.Valid)
	assert.Equal(t, 0, run.Quality.OverallQuality)
	// An empty result is a validation failure, retried to exhaustion.
	assert.Len(t, run.Errors, 2)
	m.AssertNumberOfCalls(t, "Enrich", 2)
}

func TestAnalyze_EnricherTimeoutAbortsWithoutRetry(t *testing.T) {
	m := new(mockStages)
	m.On("Enrich", mock.Anything, mock.Anything, mock.Anything).Return(nil, timeoutErr())

	run := New(m, Options{MaxRetries: 3}).Analyze(context.Background(), "8708.30", "Brake systems")

	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "enricher timed out", run.FailureReason)
	require.Len(t, run.Errors, 1)
	assert.Equal(t, model.ErrorTypeTimeout, run.Errors[0].ErrorType)
	assert.Equal(t, 1, run.Errors[0].Attempt)
	m.AssertNumberOfCalls(t, "Enrich", 1)
}

func TestAnalyze_ClassifierAllTimeoutsAborts(t *testing.T) {
	components := brakeComponents()
	m := new(mockStages)
	m.On("Enrich", mock.Anything, mock.Anything, mock.Anything).Return(components, nil)
	m.On("Classify", mock.Anything, mock.Anything, mock.Anything).Return(model.Classification{}, timeoutErr())
	for i, comp := range components {
		m.On("Score", mock.Anything, comp, mock.Anything).
			Return(model.Score{Tech: 70 + i, Manufacturing: 71, SupplyChain: 72, Demand: 73, Value: 74, Regulatory: 75}, nil)
	}

	run := New(m, Options{}).Analyze(context.Background(), "8708.30", "Brake systems")

	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "classifier timed out on all components", run.FailureReason)
	assert.False(t, run.Quality.Valid)

	critical := 0
	for _, e := range run.Errors {
		if e.ErrorType == model.ErrorTypeCriticalFailure {
			critical++
		}
	}
	assert.Equal(t, 1, critical)
}

func TestAnalyze_ScorerAllErrorsAborts(t *testing.T) {
	components := brakeComponents()
	m := new(mockStages)
	m.On("Enrich", mock.Anything, mock.Anything, mock.Anything).Return(components, nil)
	for i, comp := range components {
		m.On("Classify", mock.Anything, comp, mock.Anything).
			Return(model.Classification{Classification: model.ClassShared, SimilarityScore: share(0.8 + float64(i)/100)}, nil)
	}
	m.On("Score", mock.Anything, mock.Anything, mock.Anything).Return(model.Score{}, errors.New("bad gateway"))

	run := New(m, Options{}).Analyze(context.Background(), "8708.30", "Brake systems")

	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "scorer failed on all components", run.FailureReason)
}

func TestAnalyze_SingleItemFailureDegradesToPartial(t *testing.T) {
	components := brakeComponents()
	m := new(mockStages)
	m.On("Enrich", mock.Anything, mock.Anything, mock.Anything).Return(components, nil)

	sims := []float64{0.85, 0.88, 0.92}
	for i, comp := range components[:3] {
		m.On("Classify", mock.Anything, comp, mock.Anything).
			Return(model.Classification{Classification: model.ClassShared, SimilarityScore: share(sims[i])}, nil)
	}
	// The last component never classifies.
	m.On("Classify", mock.Anything, components[3], mock.Anything).
		Return(model.Classification{}, errors.New("connection reset"))

	scores := []model.Score{
		{Tech: 85, Manufacturing: 80, SupplyChain: 75, Demand: 78, Value: 82, Regulatory: 76},
		{Tech: 88, Manufacturing: 79, SupplyChain: 77, Demand: 75, Value: 80, Regulatory: 81},
		{Tech: 92, Manufacturing: 84, SupplyChain: 76, Demand: 79, Value: 77, Regulatory: 75},
		{Tech: 75, Manufacturing: 82, SupplyChain: 78, Demand: 77, Value: 79, Regulatory: 80},
	}
	for i, comp := range components {
		m.On("Score", mock.Anything, comp, mock.Anything).Return(scores[i], nil)
	}

	run := New(m, Options{MaxRetries: 2}).Analyze(context.Background(), "8708.30", "Brake systems")

	assert.Equal(t, model.RunStatusPartial, run.Status)
	assert.Empty(t, run.FailureReason)

	// The failed item holds the sentinel at its original position.
	require.Len(t, run.Classification, 4)
	assert.Equal(t, model.ClassUnknown, run.Classification[3].Classification)
	assert.Equal(t, model.ClassShared, run.Classification[0].Classification)

	assert.NotEmpty(t, run.Warnings)
	assert.Len(t, run.Errors, 2) // two failed attempts on the one item
	require.NotNil(t, run.Quality)
	assert.Equal(t, 1, run.Summary.ByClass[model.ClassUnknown])

	// The validator sees full-length, aligned slices: no count mismatch.
	assert.Equal(t, 100, run.Quality.Integration.QualityScore)
}

func TestAnalyze_RecoveredRetryStaysSuccess(t *testing.T) {
	components := brakeComponents()
	m := new(mockStages)
	m.On("Enrich", mock.Anything, mock.Anything, mock.Anything).Return(components, nil)

	sims := []float64{0.85, 0.88, 0.92, 0.90}
	// The first component fails once, then classifies on the retry.
	m.On("Classify", mock.Anything, components[0], mock.Anything).
		Return(model.Classification{}, errors.New("connection reset")).Once()
	for i, comp := range components {
		m.On("Classify", mock.Anything, comp, mock.Anything).
			Return(model.Classification{Classification: model.ClassShared, SimilarityScore: share(sims[i])}, nil)
	}
	for _, comp := range components {
		m.On("Score", mock.Anything, comp, mock.Anything).
			Return(model.Score{Tech: 85, Manufacturing: 80, SupplyChain: 75, Demand: 78, Value: 82, Regulatory: 76}, nil)
	}

	run := New(m, Options{MaxRetries: 2}).Analyze(context.Background(), "8708.30", "Brake systems")

	// Every item ultimately delivered a real value, so the run is a success;
	// the failed first attempt stays visible in the error list.
	assert.Equal(t, model.RunStatusSuccess, run.Status)
	require.Len(t, run.Classification, 4)
	assert.Equal(t, model.ClassShared, run.Classification[0].Classification)
	assert.Len(t, run.Errors, 1)
	assert.Equal(t, 0, run.Summary.ByClass[model.ClassUnknown])
}

func TestAnalyze_ValidatorAlwaysRunsOnDegradedData(t *testing.T) {
	components := brakeComponents()
	m := new(mockStages)
	m.On("Enrich", mock.Anything, mock.Anything, mock.Anything).Return(components, nil)

	// Classifier succeeds on exactly one item; scorer succeeds on all.
	m.On("Classify", mock.Anything, components[0], mock.Anything).
		Return(model.Classification{Classification: model.ClassICEOnly, SimilarityScore: share(0.2)}, nil)
	for _, comp := range components[1:] {
		m.On("Classify", mock.Anything, comp, mock.Anything).
			Return(model.Classification{}, errors.New("boom"))
	}
	for i, comp := range components {
		m.On("Score", mock.Anything, comp, mock.Anything).
			Return(model.Score{Tech: 60 + i, Manufacturing: 65, SupplyChain: 70, Demand: 72, Value: 68, Regulatory: 66}, nil)
	}

	run := New(m, Options{MaxRetries: 1}).Analyze(context.Background(), "8708.30", "Brake systems")

	// Three of four failed, but not all: pipeline proceeds to validation.
	assert.Equal(t, model.RunStatusPartial, run.Status)
	require.NotNil(t, run.Quality)
	// Three UNKNOWN labels cost the classifier dearly.
	assert.Less(t, run.Quality.Classifier.QualityScore, 70)
}
