package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

func rule(t promptproof.RuleType, value interface{}, severity promptproof.Severity) promptproof.ValidationRule {
	return promptproof.ValidationRule{Type: t, Value: value, Severity: severity}
}

func TestEvaluate_RuleTypes(t *testing.T) {
	tests := []struct {
		name       string
		rule       promptproof.ValidationRule
		output     string
		responseMS int64
		wantOK     bool
	}{
		{"contains match", rule(promptproof.RuleContains, "hello", promptproof.SeverityFail), "hello world", 0, true},
		{"contains miss", rule(promptproof.RuleContains, "hello", promptproof.SeverityFail), "goodbye", 0, false},
		{"contains is case sensitive", rule(promptproof.RuleContains, "Hello", promptproof.SeverityFail), "hello world", 0, false},
		{"excludes clean", rule(promptproof.RuleExcludes, "error", promptproof.SeverityFail), "all good", 0, true},
		{"excludes hit", rule(promptproof.RuleExcludes, "error", promptproof.SeverityFail), "an error occurred", 0, false},
		{"minLength ok", rule(promptproof.RuleMinLength, float64(5), promptproof.SeverityFail), "hello world", 0, true},
		{"minLength short", rule(promptproof.RuleMinLength, float64(5), promptproof.SeverityFail), "ok", 0, false},
		{"maxLength ok", rule(promptproof.RuleMaxLength, float64(5), promptproof.SeverityFail), "ok", 0, true},
		{"maxLength long", rule(promptproof.RuleMaxLength, float64(5), promptproof.SeverityFail), "hello world", 0, false},
		{"regex match", rule(promptproof.RuleRegex, `\d{3}-\d{4}`, promptproof.SeverityFail), "call 555-1234 now", 0, true},
		{"regex miss", rule(promptproof.RuleRegex, `\d{3}-\d{4}`, promptproof.SeverityFail), "no phone here", 0, false},
		{"invalid regex is unsatisfied", rule(promptproof.RuleRegex, `[unclosed`, promptproof.SeverityFail), "anything", 0, false},
		{"schema valid", rule(promptproof.RuleJSONSchema, `{"type":"object","required":["name"]}`, promptproof.SeverityFail), `{"name":"a"}`, 0, true},
		{"schema violation", rule(promptproof.RuleJSONSchema, `{"type":"object","required":["name"]}`, promptproof.SeverityFail), `{"age":3}`, 0, false},
		{"schema against non-JSON output", rule(promptproof.RuleJSONSchema, `{"type":"object"}`, promptproof.SeverityFail), "plain text", 0, false},
		{"invalid schema is unsatisfied", rule(promptproof.RuleJSONSchema, `{"type": 42}`, promptproof.SeverityFail), `{}`, 0, false},
		{"maxResponseTime under", rule(promptproof.RuleMaxResponseTime, float64(1000), promptproof.SeverityFail), "", 500, true},
		{"maxResponseTime over", rule(promptproof.RuleMaxResponseTime, float64(1000), promptproof.SeverityFail), "", 1500, false},
		{"maxResponseTime at limit", rule(promptproof.RuleMaxResponseTime, float64(1000), promptproof.SeverityFail), "", 1000, true},
		{"unknown type is unsatisfied", rule("fancy", "x", promptproof.SeverityFail), "x", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate([]promptproof.ValidationRule{tt.rule}, tt.output, tt.responseMS)
			assert.Equal(t, tt.wantOK, result.Passed)
			if tt.wantOK {
				assert.Empty(t, result.Errors)
			} else {
				assert.NotEmpty(t, result.Errors)
			}
		})
	}
}

func TestEvaluate_WarningsNeverFail(t *testing.T) {
	ruleset := []promptproof.ValidationRule{
		rule(promptproof.RuleContains, "missing", promptproof.SeverityWarning),
		rule(promptproof.RuleMinLength, float64(3), promptproof.SeverityFail),
	}

	result := Evaluate(ruleset, "hello", 0)

	assert.True(t, result.Passed)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "missing")
}

func TestEvaluate_MixedSeverities(t *testing.T) {
	ruleset := []promptproof.ValidationRule{
		rule(promptproof.RuleContains, "absent", promptproof.SeverityFail),
		rule(promptproof.RuleExcludes, "hello", promptproof.SeverityWarning),
	}

	result := Evaluate(ruleset, "hello world", 0)

	assert.False(t, result.Passed)
	assert.Len(t, result.Errors, 1)
	assert.Len(t, result.Warnings, 1)
}

func TestEvaluate_Idempotent(t *testing.T) {
	ruleset := []promptproof.ValidationRule{
		rule(promptproof.RuleRegex, `^ok`, promptproof.SeverityFail),
		rule(promptproof.RuleMaxResponseTime, float64(100), promptproof.SeverityWarning),
	}

	first := Evaluate(ruleset, "ok then", 150)
	for i := 0; i < 5; i++ {
		again := Evaluate(ruleset, "ok then", 150)
		assert.Equal(t, first, again)
	}
}

func TestEvaluate_CharacterCountIsRunes(t *testing.T) {
	// 5 runes, more than 5 bytes
	result := Evaluate([]promptproof.ValidationRule{
		rule(promptproof.RuleMaxLength, float64(5), promptproof.SeverityFail),
	}, "héllo", 0)

	assert.True(t, result.Passed)
}

func TestEvaluate_NumericStringValue(t *testing.T) {
	result := Evaluate([]promptproof.ValidationRule{
		rule(promptproof.RuleMinLength, "5", promptproof.SeverityFail),
	}, "hello world", 0)

	assert.True(t, result.Passed)
}

func TestEvaluate_EmptyRuleset(t *testing.T) {
	result := Evaluate(nil, "anything", 0)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}
