package regional

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/transition-cli/pkg/llm"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, cfg llm.GenerateConfig) (string, error) {
	args := m.Called(ctx, prompt, cfg)
	return args.String(0), args.Error(1)
}

func newTestClient(response string) (*LLMClient, *mockLLM) {
	backend := &mockLLM{}
	backend.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(response, nil)
	return NewLLMClient(backend, Config{Model: "test-model", MaxTokens: 2000, Timeout: time.Minute}), backend
}

var stuttgart = Region{Code: "DE11", Name: "Stuttgart"}

func TestCompaniesParsesAndCaps(t *testing.T) {
	client, _ := newTestClient(`{
		"nuts2_code": "DE11",
		"nuts2_name": "Stuttgart",
		"companies": [
			{"name": "Mercedes-Benz Group AG", "type": "OEM", "hq_in_region": true},
			{"name": "Robert Bosch GmbH", "type": "Tier-1", "hq_in_region": true},
			{"name": "  ", "type": "Tier-2", "hq_in_region": false},
			{"name": "Mahle GmbH", "type": "Tier-1", "hq_in_region": true},
			{"name": "ZF Friedrichshafen AG", "type": "Tier-1", "hq_in_region": false}
		]
	}`)

	got, err := client.Companies(context.Background(), stuttgart)
	require.NoError(t, err)
	require.Len(t, got, MaxCompaniesPerRegion)
	assert.Equal(t, "Mercedes-Benz Group AG", got[0].Name)
	assert.Equal(t, CompanyOEM, got[0].Type)
	assert.True(t, got[0].HQInRegion)
	// The blank name was skipped before the cap was applied.
	assert.Equal(t, "Mahle GmbH", got[2].Name)
}

func TestCompaniesDecodesObjectEmbeddedInProse(t *testing.T) {
	client, _ := newTestClient(`Here are the companies I identified:
{
	"nuts2_code": "DE11",
	"nuts2_name": "Stuttgart",
	"companies": [
		{"name": "Porsche AG", "type": "OEM", "hq_in_region": true}
	]
}
Let me know if you need more detail.`)

	got, err := client.Companies(context.Background(), stuttgart)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Porsche AG", got[0].Name)
	assert.Equal(t, CompanyOEM, got[0].Type)
}

func TestCompaniesRejectsProse(t *testing.T) {
	client, _ := newTestClient("I could not find reliable information about this region.")
	_, err := client.Companies(context.Background(), stuttgart)
	assert.Error(t, err)
}

func TestPlantsStripsFencesAndFillsIdentity(t *testing.T) {
	client, _ := newTestClient("```json\n" + `{
		"company": "Robert Bosch GmbH",
		"nuts2_code": "DE11",
		"plants": [
			{"plant_name": "Werk Feuerbach", "city": "Stuttgart", "primary_function": "Injection systems"},
			{"plant_name": "", "city": "nowhere"}
		]
	}` + "\n```")

	got, err := client.Plants(context.Background(), "Robert Bosch GmbH", stuttgart)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Plant{
		Company:   "Robert Bosch GmbH",
		Name:      "Werk Feuerbach",
		City:      "Stuttgart",
		NUTS2Code: "DE11",
	}, got[0])
}

func TestPlantsEmptyListIsValid(t *testing.T) {
	client, _ := newTestClient(`{"company": "Acme", "nuts2_code": "DE11", "plants": []}`)
	got, err := client.Plants(context.Background(), "Acme", stuttgart)
	require.NoError(t, err)
	assert.Empty(t, got)
}

var feuerbach = Plant{Company: "Robert Bosch GmbH", Name: "Werk Feuerbach", City: "Stuttgart", NUTS2Code: "DE11"}

func TestComponentsFiltersVocabularyAndCaps(t *testing.T) {
	client, _ := newTestClient(`{
		"company": "x", "plant": "x", "city": "x", "nuts2_code": "x",
		"is_production_site": true,
		"components": [
			{"category": "Powertrain Components", "ice_ev_type": "ICE", "confidence": "high"},
			{"category": "Tyres", "ice_ev_type": "Shared", "confidence": "high"},
			{"category": "Electronics & Control Units", "ice_ev_type": "shared", "confidence": "certain"},
			{"category": "Battery Systems", "ice_ev_type": "EV", "confidence": "low"},
			{"category": "Chassis & Suspension", "ice_ev_type": "Shared", "confidence": "medium"},
			{"category": "Interior Systems", "ice_ev_type": "Shared", "confidence": "medium"}
		]
	}`)

	got, err := client.Components(context.Background(), feuerbach)
	require.NoError(t, err)

	// Identity comes from the request, not from the model echo.
	assert.Equal(t, "Robert Bosch GmbH", got.Company)
	assert.Equal(t, "Werk Feuerbach", got.Plant)
	assert.True(t, got.IsProductionSite)

	// "Tyres" dropped, then capped at four.
	require.Len(t, got.Components, MaxPlantComponents)
	assert.Equal(t, CategoryPowertrain, got.Components[0].Category)
	// Unknown labels normalize to Shared / medium.
	assert.Equal(t, DriveShared, got.Components[1].DriveType)
	assert.Equal(t, ConfidenceLevelMedium, got.Components[1].Confidence)
}

func TestComponentsNonProductionSite(t *testing.T) {
	client, _ := newTestClient(`{
		"is_production_site": false,
		"reason": "R&D campus only",
		"components": [{"category": "Battery Systems", "ice_ev_type": "EV", "confidence": "high"}]
	}`)

	got, err := client.Components(context.Background(), feuerbach)
	require.NoError(t, err)
	assert.False(t, got.IsProductionSite)
	assert.Equal(t, "R&D campus only", got.Reason)
	assert.Empty(t, got.Components)
}

func TestEmploymentParsesNullEstimate(t *testing.T) {
	client, _ := newTestClient(`{
		"employment": {"size_class": "Very Large", "estimate": null, "confidence": "medium", "basis": "inference"}
	}`)

	got, err := client.Employment(context.Background(), feuerbach)
	require.NoError(t, err)
	assert.Equal(t, SizeVeryLarge, got.Employment.SizeClass)
	assert.Nil(t, got.Employment.Estimate)
	assert.Equal(t, ConfidenceLevelMedium, got.Employment.Confidence)
	assert.Equal(t, "Werk Feuerbach", got.Plant)
}

func TestEmploymentUnknownSizeClassDegrades(t *testing.T) {
	client, _ := newTestClient(`{
		"employment": {"size_class": "Enormous", "estimate": 99999, "confidence": "high"}
	}`)

	got, err := client.Employment(context.Background(), feuerbach)
	require.NoError(t, err)
	assert.Equal(t, FallbackEmployment(), got.Employment)
}

func TestStagesPropagateBackendErrors(t *testing.T) {
	backend := &mockLLM{}
	backend.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return("", &llm.TimeoutError{})
	client := NewLLMClient(backend, Config{Model: "test-model"})

	_, err := client.Companies(context.Background(), stuttgart)
	require.Error(t, err)
	assert.True(t, llm.IsTimeout(err))
}
