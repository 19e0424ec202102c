package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/transition-cli/internal/parse"
	"github.com/sells-group/transition-cli/pkg/llm"
)

func newTestClient(backend llm.Client) *LLMClient {
	cfg := Config{Model: "claude-haiku-4-5", MaxTokens: 1024}
	return NewLLMClient(backend, cfg, cfg, cfg)
}

func TestEnrich_ParsesJSONArray(t *testing.T) {
	m := new(mockLLM)
	m.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(`[
		{"name": "Brake Caliper", "cost_share": 0.4, "description": "Hydraulic clamp assembly", "function": "Clamps pads onto rotor", "subsystem": "Brakes"},
		{"name": "Brake Rotor", "cost_share": 0.3, "description": "Cast iron friction disc", "function": "Friction surface", "subsystem": "Brakes"},
		{"name": "Brake Pads", "cost_share": 0.2, "description": "Friction material blocks", "function": "Generate braking friction", "subsystem": "Brakes"},
		{"name": "Master Cylinder", "cost_share": 0.1, "description": "Hydraulic pressure source", "function": "Converts pedal force", "subsystem": "Brakes"}
	]`, nil)

	components, err := newTestClient(m).Enrich(context.Background(), "870830", "Brakes and servo-brakes")
	require.NoError(t, err)
	require.Len(t, components, 4)
	assert.Equal(t, "Brake Caliper", components[0].Name)
	assert.InDelta(t, 0.4, components[0].CostShareOrZero(), 0.001)
}

func TestEnrich_StripsFencesAndProse(t *testing.T) {
	m := new(mockLLM)
	m.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(
		"Here are the components:\n```json\n[{\"name\": \"Clutch Disc\", \"cost_share\": 1.0}]\n```", nil)

	components, err := newTestClient(m).Enrich(context.Background(), "870893", "Clutches")
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, "Clutch Disc", components[0].Name)
}

func TestEnrich_TruncatesToFour(t *testing.T) {
	m := new(mockLLM)
	m.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(`[
		{"name": "A", "cost_share": 0.2}, {"name": "B", "cost_share": 0.2},
		{"name": "C", "cost_share": 0.2}, {"name": "D", "cost_share": 0.2},
		{"name": "E", "cost_share": 0.2}, {"name": "F", "cost_share": 0.2}
	]`, nil)

	components, err := newTestClient(m).Enrich(context.Background(), "870829", "Parts")
	require.NoError(t, err)
	assert.Len(t, components, MaxComponents)
}

func TestEnrich_NormalizesCostShares(t *testing.T) {
	m := new(mockLLM)
	m.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(`[
		{"name": "A", "cost_share": 0.6},
		{"name": "B", "cost_share": 0.6},
		{"name": "C", "cost_share": 0.6},
		{"name": "D", "cost_share": 0.6}
	]`, nil)

	components, err := newTestClient(m).Enrich(context.Background(), "870840", "Suspension")
	require.NoError(t, err)
	require.Len(t, components, 4)

	sum := 0.0
	for _, c := range components {
		sum += c.CostShareOrZero()
	}
	assert.InDelta(t, 1.0, sum, 0.001)
}

func TestEnrich_AbsentCostShareStaysAbsent(t *testing.T) {
	m := new(mockLLM)
	m.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(`[
		{"name": "A", "cost_share": 0.7},
		{"name": "B"}
	]`, nil)

	components, err := newTestClient(m).Enrich(context.Background(), "870850", "Axles")
	require.NoError(t, err)
	require.Len(t, components, 2)
	assert.Nil(t, components[1].CostShare)
	// The only present share absorbs the whole normalization.
	assert.InDelta(t, 1.0, components[0].CostShareOrZero(), 0.001)
}

func TestEnrich_LineHeuristicFallback(t *testing.T) {
	m := new(mockLLM)
	m.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(
		"1. Fuel Injector\n2. Fuel Rail\n3. Fuel Pump\n4. Pressure Regulator", nil)

	components, err := newTestClient(m).Enrich(context.Background(), "870899", "Fuel systems")
	require.NoError(t, err)
	require.Len(t, components, 4)
	assert.Equal(t, "Fuel Injector", components[0].Name)
	assert.InDelta(t, 0.25, components[0].CostShareOrZero(), 0.001)
}

func TestEnrich_UnparseableIsError(t *testing.T) {
	m := new(mockLLM)
	m.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("??", nil)

	_, err := newTestClient(m).Enrich(context.Background(), "870830", "Brakes")
	require.Error(t, err)
	assert.ErrorIs(t, err, parse.ErrUnparseable)
}

func TestEnrich_SkipsNamelessEntries(t *testing.T) {
	m := new(mockLLM)
	m.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(`[
		{"cost_share": 0.5},
		{"name": "Drive Shaft", "cost_share": 0.5}
	]`, nil)

	components, err := newTestClient(m).Enrich(context.Background(), "870850", "Drive-axles")
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, "Drive Shaft", components[0].Name)
}
