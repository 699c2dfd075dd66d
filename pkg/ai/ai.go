package ai

import (
	"context"
)

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
	MaxTokens     int      // Upper bound on generated tokens, 0 for provider default
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens returns a GenerateOption that caps the number of generated
// tokens.
func WithMaxTokens(maxTokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = maxTokens
	}
}

// ModelMetrics accumulates token usage from AI model operations.
type ModelMetrics struct {
	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	TotalTokens  int   `json:"total_tokens"`
	DurationMs   int64 `json:"duration_ms"`
}

// Delta returns the usage accrued since an earlier snapshot of the same
// counters. Callers sharing one client attribute per-request usage this way
// instead of resetting the shared counters.
func (m ModelMetrics) Delta(since ModelMetrics) ModelMetrics {
	return ModelMetrics{
		InputTokens:  m.InputTokens - since.InputTokens,
		OutputTokens: m.OutputTokens - since.OutputTokens,
		TotalTokens:  m.TotalTokens - since.TotalTokens,
		DurationMs:   m.DurationMs - since.DurationMs,
	}
}

// GraphAIClient defines the AI operations used in graph construction and
// querying: free-form completion, schema-constrained completion, and text
// embedding. Implementations are network clients; every method honors the
// passed context for cancellation and timeouts.
type GraphAIClient interface {
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}
