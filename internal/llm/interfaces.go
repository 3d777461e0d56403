package llm

import "context"

// GenerateRequest carries one completion request to the language model.
type GenerateRequest struct {
	// Model overrides the client's configured model when non-empty.
	Model string

	// System is the composed personality prompt.
	System string

	// Prompt is the raw user message.
	Prompt string

	// Temperature is the sampling temperature selected by the emotion table.
	Temperature float64
}

// GenerateResponse is the model's reply.
type GenerateResponse struct {
	Text      string
	Model     string
	EvalCount int
}

// Generator is the interface for LLM text completion. The chat dispatcher
// makes exactly one attempt per turn; any error is recovered by the caller
// via the fallback reply table, never retried.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	GetModel() string
}
