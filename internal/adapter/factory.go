package adapter

import (
	"fmt"
	"strings"

	"github.com/formalhaus/formalis/internal/model"
)

// New creates an adapter from configuration. The choice happens exactly
// once, at construction; callers hold the interface and never branch on
// the implementation again. An empty or "none" identifier disables
// adapter assistance entirely and every stage runs its fallback.
func New(id string, config Config) (Adapter, error) {
	switch strings.ToLower(id) {
	case "mock":
		return NewMockAdapter(), nil
	case "openai":
		return NewOpenAIAdapter(config)
	case "none", "":
		return nil, nil
	default:
		return nil, &model.ConfigError{
			Field:  "adapter",
			Reason: fmt.Sprintf("unknown adapter %q (supported: mock, openai, none)", id),
		}
	}
}
