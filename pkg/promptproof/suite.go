package promptproof

// TargetType selects how a suite's test cases are executed
type TargetType string

const (
	TargetPrompt TargetType = "prompt"
	TargetHTTP   TargetType = "http"
)

// TargetConfig describes the target a suite runs its cases against:
// either a versioned prompt template or an HTTP endpoint.
type TargetConfig struct {
	Type   TargetType    `json:"type"`
	Prompt *PromptTarget `json:"prompt,omitempty"`
	HTTP   *HTTPTarget   `json:"http,omitempty"`
}

// PromptTarget renders the template with a case's inputs and sends it
// to an LLM provider
type PromptTarget struct {
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	System      string   `json:"system,omitempty"`
	Template    string   `json:"template"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// HTTPTarget substitutes a case's inputs into the URL and body templates
// and performs the call. ResponseField optionally names a top-level JSON
// field to extract as the output; empty means the raw response body.
type HTTPTarget struct {
	URL           string            `json:"url"`
	Method        string            `json:"method,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	BodyTemplate  string            `json:"body_template,omitempty"`
	ResponseField string            `json:"response_field,omitempty"`
	TimeoutMS     int               `json:"timeout_ms,omitempty"`
}

// RuleType identifies a deterministic validation rule
type RuleType string

const (
	RuleContains        RuleType = "contains"
	RuleExcludes        RuleType = "excludes"
	RuleMinLength       RuleType = "minLength"
	RuleMaxLength       RuleType = "maxLength"
	RuleRegex           RuleType = "regex"
	RuleJSONSchema      RuleType = "jsonSchema"
	RuleMaxResponseTime RuleType = "maxResponseTime"
)

// Severity controls whether an unsatisfied rule fails the test case
// or is merely reported
type Severity string

const (
	SeverityFail    Severity = "fail"
	SeverityWarning Severity = "warning"
)

// ValidationRule is a deterministic check applied to a case's output.
// Value is a string for contains/excludes/regex/jsonSchema and a number
// for minLength/maxLength/maxResponseTime.
type ValidationRule struct {
	Type     RuleType    `json:"type"`
	Value    interface{} `json:"value"`
	Severity Severity    `json:"severity"`
}

// Operator compares a judge criterion score against a threshold
type Operator string

const (
	OpGTE Operator = "gte"
	OpLTE Operator = "lte"
	OpEQ  Operator = "eq"
)

// ScoringCriterion is one axis of the judge's rubric. Weights need not
// sum to 1; the engine normalizes.
type ScoringCriterion struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight"`
}

// JudgeValidationRule gates pass/fail on a criterion's weighted 0-1 score
type JudgeValidationRule struct {
	Criteria  string   `json:"criteria"`
	Operator  Operator `json:"operator"`
	Threshold float64  `json:"threshold"`
	Severity  Severity `json:"severity"`
}

// JudgeConfig enables LLM-based scoring of outputs against a rubric
type JudgeConfig struct {
	Enabled  bool                  `json:"enabled"`
	Provider string                `json:"provider,omitempty"`
	Model    string                `json:"model,omitempty"`
	Criteria []ScoringCriterion    `json:"criteria"`
	Rules    []JudgeValidationRule `json:"rules,omitempty"`
}

// TestCase is one fixed set of input values plus optional expected output.
// Enabled is a tri-state pointer so that suites authored without the field
// default to enabled.
type TestCase struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Inputs         map[string]string `json:"inputs"`
	ExpectedOutput string            `json:"expected_output,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Enabled        *bool             `json:"enabled,omitempty"`
}

// IsEnabled reports whether the case participates in runs
func (tc *TestCase) IsEnabled() bool {
	return tc.Enabled == nil || *tc.Enabled
}

// TestSuite is the full suite definition: target, cases, deterministic
// rules and optional judge configuration
type TestSuite struct {
	SuiteID     string           `json:"suite_id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Target      TargetConfig     `json:"target"`
	Cases       []TestCase       `json:"cases"`
	Rules       []ValidationRule `json:"rules,omitempty"`
	Judge       *JudgeConfig     `json:"judge,omitempty"`
}
