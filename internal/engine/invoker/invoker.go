// Package invoker runs one test case's inputs through the configured
// target: a prompt template sent to an LLM provider, or an HTTP
// endpoint. Invocations are opaque to the orchestrator, possibly slow,
// and never retried within a single iteration.
package invoker

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptproof-ai/promptproof-be/internal/llm"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

// Invocation is a successful target call
type Invocation struct {
	Output         string
	ResponseTimeMS int64
}

// Error marks a failed target invocation (timeout, non-2xx, network
// failure, provider error). It is recorded on the test result, not
// surfaced as a run-level failure.
type Error struct {
	Reason         string
	ResponseTimeMS int64
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// Invoker executes one test case against a target. override may swap
// the provider/model for prompt targets; HTTP targets ignore it.
type Invoker interface {
	Invoke(ctx context.Context, testCase *promptproof.TestCase, override *promptproof.ModelOverride) (*Invocation, error)
}

// New builds an Invoker from a suite's target configuration. A target
// that cannot be built at all is an orchestration-level fault.
func New(target promptproof.TargetConfig, provider llm.CompletionProvider) (Invoker, error) {
	switch target.Type {
	case promptproof.TargetPrompt:
		if target.Prompt == nil {
			return nil, fmt.Errorf("prompt target configuration is missing")
		}
		if target.Prompt.Template == "" {
			return nil, fmt.Errorf("prompt target has an empty template")
		}
		if provider == nil {
			return nil, fmt.Errorf("no LLM provider is configured")
		}
		return &PromptInvoker{target: target.Prompt, provider: provider}, nil
	case promptproof.TargetHTTP:
		if target.HTTP == nil {
			return nil, fmt.Errorf("http target configuration is missing")
		}
		if target.HTTP.URL == "" {
			return nil, fmt.Errorf("http target has an empty URL")
		}
		return NewHTTPInvoker(target.HTTP), nil
	default:
		return nil, fmt.Errorf("unknown target type %q", target.Type)
	}
}

// renderTemplate substitutes {{name}} placeholders with input values.
// Unknown placeholders are left in place so the failure is visible in
// the recorded output rather than silently dropped.
func renderTemplate(template string, inputs map[string]string) string {
	rendered := template
	for name, value := range inputs {
		rendered = strings.ReplaceAll(rendered, "{{"+name+"}}", value)
	}
	return rendered
}
