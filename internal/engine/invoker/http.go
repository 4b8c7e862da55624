package invoker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPInvoker substitutes a case's inputs into the URL and body
// templates and performs the call
type HTTPInvoker struct {
	target *promptproof.HTTPTarget
	client *http.Client
}

func NewHTTPInvoker(target *promptproof.HTTPTarget) *HTTPInvoker {
	timeout := defaultHTTPTimeout
	if target.TimeoutMS > 0 {
		timeout = time.Duration(target.TimeoutMS) * time.Millisecond
	}
	return &HTTPInvoker{
		target: target,
		client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPInvoker) Invoke(ctx context.Context, testCase *promptproof.TestCase, _ *promptproof.ModelOverride) (*Invocation, error) {
	url := renderTemplate(h.target.URL, testCase.Inputs)

	method := h.target.Method
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if h.target.BodyTemplate != "" {
		body = strings.NewReader(renderJSONTemplate(h.target.BodyTemplate, testCase.Inputs))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &Error{Reason: "invalid http target request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for name, value := range h.target.Headers {
		req.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return nil, &Error{Reason: "http target unreachable", ResponseTimeMS: elapsed, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Reason: "failed to read http target response", ResponseTimeMS: elapsed, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Reason:         fmt.Sprintf("http target returned %s", resp.Status),
			ResponseTimeMS: elapsed,
		}
	}

	output := string(raw)
	if h.target.ResponseField != "" {
		output = extractField(raw, h.target.ResponseField)
	}

	return &Invocation{Output: output, ResponseTimeMS: elapsed}, nil
}

// renderJSONTemplate substitutes inputs into a JSON body template,
// escaping values so they stay valid inside JSON strings
func renderJSONTemplate(template string, inputs map[string]string) string {
	rendered := template
	for name, value := range inputs {
		escaped, _ := json.Marshal(value)
		// strip the surrounding quotes added by Marshal
		rendered = strings.ReplaceAll(rendered, "{{"+name+"}}", string(escaped[1:len(escaped)-1]))
	}
	return rendered
}

// extractField pulls a top-level field out of a JSON response body.
// Falls back to the raw body when the field is missing or the body is
// not a JSON object.
func extractField(raw []byte, field string) string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return string(raw)
	}
	value, ok := doc[field]
	if !ok {
		return string(raw)
	}

	var asString string
	if err := json.Unmarshal(value, &asString); err == nil {
		return asString
	}
	return string(value)
}
