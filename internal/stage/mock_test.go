package stage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/transition-cli/pkg/llm"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, cfg llm.GenerateConfig) (string, error) {
	args := m.Called(ctx, prompt, cfg)
	return args.String(0), args.Error(1)
}
