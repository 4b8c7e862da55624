package llm

import "context"

// CompletionRequest is a single-turn chat completion request
type CompletionRequest struct {
	Provider    string
	Model       string
	System      string
	Prompt      string
	Temperature *float32
	MaxTokens   int
	// JSONMode asks the provider for a JSON-object response where supported
	JSONMode bool
}

// CompletionResponse carries the model output
type CompletionResponse struct {
	Content      string
	Model        string
	TokensIn     int
	TokensOut    int
}

// CompletionProvider abstracts the LLM backend used for prompt targets
// and judge calls. Implementations must be safe for concurrent use.
type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
