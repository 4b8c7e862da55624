package invoker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptproof-ai/promptproof-be/internal/llm"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

func TestNew_ConfigValidation(t *testing.T) {
	provider := llm.NewMockProvider("hi")

	tests := []struct {
		name    string
		target  promptproof.TargetConfig
		wantErr bool
	}{
		{
			name: "valid prompt target",
			target: promptproof.TargetConfig{
				Type:   promptproof.TargetPrompt,
				Prompt: &promptproof.PromptTarget{Model: "gpt-4o-mini", Template: "Say {{word}}"},
			},
		},
		{
			name:    "prompt target without config",
			target:  promptproof.TargetConfig{Type: promptproof.TargetPrompt},
			wantErr: true,
		},
		{
			name: "prompt target with empty template",
			target: promptproof.TargetConfig{
				Type:   promptproof.TargetPrompt,
				Prompt: &promptproof.PromptTarget{Model: "gpt-4o-mini"},
			},
			wantErr: true,
		},
		{
			name: "valid http target",
			target: promptproof.TargetConfig{
				Type: promptproof.TargetHTTP,
				HTTP: &promptproof.HTTPTarget{URL: "https://example.com/chat"},
			},
		},
		{
			name:    "http target without URL",
			target:  promptproof.TargetConfig{Type: promptproof.TargetHTTP, HTTP: &promptproof.HTTPTarget{}},
			wantErr: true,
		},
		{
			name:    "unknown target type",
			target:  promptproof.TargetConfig{Type: "grpc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.target, provider)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_PromptTargetRequiresProvider(t *testing.T) {
	_, err := New(promptproof.TargetConfig{
		Type:   promptproof.TargetPrompt,
		Prompt: &promptproof.PromptTarget{Template: "x"},
	}, nil)
	assert.Error(t, err)
}

func TestPromptInvoker_RendersTemplateAndOverride(t *testing.T) {
	provider := llm.NewMockProvider("bonjour")
	inv, err := New(promptproof.TargetConfig{
		Type: promptproof.TargetPrompt,
		Prompt: &promptproof.PromptTarget{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Template: "Translate {{word}} to {{language}}",
		},
	}, provider)
	require.NoError(t, err)

	tc := &promptproof.TestCase{Inputs: map[string]string{"word": "hello", "language": "French"}}
	result, err := inv.Invoke(context.Background(), tc, &promptproof.ModelOverride{Model: "gpt-4o"})
	require.NoError(t, err)

	assert.Equal(t, "bonjour", result.Output)
	require.Len(t, provider.Calls, 1)
	assert.Equal(t, "Translate hello to French", provider.Calls[0].Prompt)
	assert.Equal(t, "gpt-4o", provider.Calls[0].Model)
}

func TestPromptInvoker_ProviderFailureIsInvocationError(t *testing.T) {
	provider := llm.NewMockProvider("")
	provider.Err = errors.New("connection reset")

	inv, err := New(promptproof.TargetConfig{
		Type:   promptproof.TargetPrompt,
		Prompt: &promptproof.PromptTarget{Model: "m", Template: "x"},
	}, provider)
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), &promptproof.TestCase{}, nil)

	var invErr *Error
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, invErr.Error(), "connection reset")
}

func TestHTTPInvoker_ExtractsResponseField(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer": "42", "model": "test"}`))
	}))
	defer server.Close()

	inv := NewHTTPInvoker(&promptproof.HTTPTarget{
		URL:           server.URL,
		BodyTemplate:  `{"question": "{{q}}"}`,
		ResponseField: "answer",
	})

	tc := &promptproof.TestCase{Inputs: map[string]string{"q": `what is "life"?`}}
	result, err := inv.Invoke(context.Background(), tc, nil)
	require.NoError(t, err)

	assert.Equal(t, "42", result.Output)
	// input was escaped into valid JSON
	assert.Equal(t, `{"question": "what is \"life\"?"}`, gotBody)
	assert.GreaterOrEqual(t, result.ResponseTimeMS, int64(0))
}

func TestHTTPInvoker_RawBodyWhenNoResponseField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text answer"))
	}))
	defer server.Close()

	inv := NewHTTPInvoker(&promptproof.HTTPTarget{URL: server.URL, Method: http.MethodGet})
	result, err := inv.Invoke(context.Background(), &promptproof.TestCase{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text answer", result.Output)
}

func TestHTTPInvoker_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	inv := NewHTTPInvoker(&promptproof.HTTPTarget{URL: server.URL})
	_, err := inv.Invoke(context.Background(), &promptproof.TestCase{}, nil)

	var invErr *Error
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, invErr.Reason, "502")
}

func TestHTTPInvoker_URLTemplateSubstitution(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	inv := NewHTTPInvoker(&promptproof.HTTPTarget{URL: server.URL + "/items/{{id}}", Method: http.MethodGet})
	_, err := inv.Invoke(context.Background(), &promptproof.TestCase{Inputs: map[string]string{"id": "abc"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/items/abc", gotPath)
}

func TestRenderTemplate_UnknownPlaceholderLeftInPlace(t *testing.T) {
	out := renderTemplate("hello {{name}}, {{unknown}}", map[string]string{"name": "world"})
	assert.Equal(t, "hello world, {{unknown}}", out)
}
