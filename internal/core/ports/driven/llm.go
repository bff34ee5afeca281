package driven

import "context"

// LLMService provides grounded text generation.
//
// Implementations may include:
//   - Gemini (generateContent API)
//   - OpenAI-compatible chat completion APIs
type LLMService interface {
	// Generate produces a completion for the prompt. No retry policy is
	// applied here; a failed call fails the whole query.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// TopP is the nucleus sampling threshold.
	TopP float64
}
