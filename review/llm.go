package review

import "context"

// LLMClient abstracts the hosted text-generation capability so the loop can be
// driven by a fake in tests.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings carries the base configuration for concrete implementations.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
