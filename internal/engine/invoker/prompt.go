package invoker

import (
	"context"
	"time"

	"github.com/promptproof-ai/promptproof-be/internal/llm"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

// PromptInvoker renders the prompt template with a case's inputs and
// sends it to the completion provider
type PromptInvoker struct {
	target   *promptproof.PromptTarget
	provider llm.CompletionProvider
}

func (p *PromptInvoker) Invoke(ctx context.Context, testCase *promptproof.TestCase, override *promptproof.ModelOverride) (*Invocation, error) {
	prompt := renderTemplate(p.target.Template, testCase.Inputs)

	req := llm.CompletionRequest{
		Provider:    p.target.Provider,
		Model:       p.target.Model,
		System:      p.target.System,
		Prompt:      prompt,
		Temperature: p.target.Temperature,
		MaxTokens:   p.target.MaxTokens,
	}
	if override != nil {
		if override.Provider != "" {
			req.Provider = override.Provider
		}
		if override.Model != "" {
			req.Model = override.Model
		}
	}

	start := time.Now()
	resp, err := p.provider.Complete(ctx, req)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return nil, &Error{Reason: "prompt target invocation failed", ResponseTimeMS: elapsed, Err: err}
	}

	return &Invocation{Output: resp.Content, ResponseTimeMS: elapsed}, nil
}
