package llm

import (
	"context"
	"encoding/json"
)

// Client abstracts LLM providers for fraud document analysis. Implementations
// return the provider's raw JSON payload; schema validation happens upstream.
type Client interface {
	AnalyzeDocument(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
}

// AnalyzeInput captures the inputs needed for a fraud analysis call.
type AnalyzeInput struct {
	DocumentText string
}
