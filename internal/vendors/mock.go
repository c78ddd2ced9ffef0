package vendors

import (
	"context"
	"strings"

	"github.com/baalimago/charadex/internal/models"
)

// Mock is a capability which echoes the prompt back. When Err is set every
// call fails with it.
type Mock struct {
	Err error
}

func (m *Mock) Generate(ctx context.Context, prompt string, history []models.Message) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return prompt, nil
}

// GenerateStreaming streams the prompt back, one word per chunk.
func (m *Mock) GenerateStreaming(ctx context.Context, prompt string, history []models.Message) (*models.Stream, error) {
	if m.Err != nil {
		err := m.Err
		return models.NewStream(ctx, func(ctx context.Context, emit func(models.CompletionEvent) bool) {
			emit(err)
		}), nil
	}
	return models.StreamOf(ctx, strings.SplitAfter(prompt, " ")...), nil
}
