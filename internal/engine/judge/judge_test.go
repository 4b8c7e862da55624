package judge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptproof-ai/promptproof-be/internal/llm"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

func judgeConfig(rules ...promptproof.JudgeValidationRule) *promptproof.JudgeConfig {
	return &promptproof.JudgeConfig{
		Enabled: true,
		Model:   "gpt-4o-mini",
		Criteria: []promptproof.ScoringCriterion{
			{Name: "accuracy", Description: "factually correct", Weight: 2},
			{Name: "tone", Description: "matches brand voice", Weight: 1},
		},
		Rules: rules,
	}
}

func TestEvaluate_WeightedScore(t *testing.T) {
	provider := llm.NewMockProvider(`{
		"scores": {
			"accuracy": {"score": 8, "reason": "mostly right"},
			"tone": {"score": 5, "reason": "a bit dry"}
		},
		"overall_reasoning": "solid but dry"
	}`)

	outcome, err := NewEvaluator(provider).Evaluate(context.Background(), judgeConfig(), nil, "output")
	require.NoError(t, err)

	// (0.8*2 + 0.5*1) / 3
	assert.InDelta(t, 0.7, outcome.Score, 1e-9)
	assert.InDelta(t, 0.8, outcome.Scores["accuracy"], 1e-9)
	assert.InDelta(t, 0.5, outcome.Scores["tone"], 1e-9)
	assert.Equal(t, "solid but dry", outcome.Reasoning)
	assert.True(t, outcome.ValidationPassed)
}

func TestEvaluate_WeightsNeedNotSumToOne(t *testing.T) {
	provider := llm.NewMockProvider(`{"scores": {"accuracy": {"score": 10}, "tone": {"score": 10}}, "overall_reasoning": "x"}`)

	outcome, err := NewEvaluator(provider).Evaluate(context.Background(), judgeConfig(), nil, "output")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, outcome.Score, 1e-9)
}

func TestEvaluate_MissingCriterionExcludedFromAggregation(t *testing.T) {
	provider := llm.NewMockProvider(`{"scores": {"accuracy": {"score": 6}}, "overall_reasoning": "x"}`)

	outcome, err := NewEvaluator(provider).Evaluate(context.Background(), judgeConfig(), nil, "output")
	require.NoError(t, err)

	assert.InDelta(t, 0.6, outcome.Score, 1e-9)
	_, scored := outcome.Scores["tone"]
	assert.False(t, scored)
}

func TestEvaluate_ParseError(t *testing.T) {
	provider := llm.NewMockProvider("I would rate this an 8 out of 10.")

	_, err := NewEvaluator(provider).Evaluate(context.Background(), judgeConfig(), nil, "output")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Raw, "8 out of 10")
}

func TestEvaluate_CodeFencedReplyStillParses(t *testing.T) {
	provider := llm.NewMockProvider("```json\n{\"scores\": {\"accuracy\": {\"score\": 9}}, \"overall_reasoning\": \"fine\"}\n```")

	outcome, err := NewEvaluator(provider).Evaluate(context.Background(), judgeConfig(), nil, "output")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, outcome.Score, 1e-9)
}

func TestEvaluate_ProviderFailure(t *testing.T) {
	provider := llm.NewMockProvider("")
	provider.Err = errors.New("rate limited")

	_, err := NewEvaluator(provider).Evaluate(context.Background(), judgeConfig(), nil, "output")
	require.Error(t, err)

	var parseErr *ParseError
	assert.False(t, errors.As(err, &parseErr))
}

func TestEvaluate_JudgeRules(t *testing.T) {
	reply := `{"scores": {"accuracy": {"score": 6}, "tone": {"score": 9}}, "overall_reasoning": "x"}`

	tests := []struct {
		name         string
		rule         promptproof.JudgeValidationRule
		wantPassed   bool
		wantWarnings int
	}{
		{
			name:       "gte fail-severity unmet",
			rule:       promptproof.JudgeValidationRule{Criteria: "accuracy", Operator: promptproof.OpGTE, Threshold: 0.8, Severity: promptproof.SeverityFail},
			wantPassed: false,
		},
		{
			name:       "gte met",
			rule:       promptproof.JudgeValidationRule{Criteria: "tone", Operator: promptproof.OpGTE, Threshold: 0.8, Severity: promptproof.SeverityFail},
			wantPassed: true,
		},
		{
			name:       "lte unmet",
			rule:       promptproof.JudgeValidationRule{Criteria: "tone", Operator: promptproof.OpLTE, Threshold: 0.5, Severity: promptproof.SeverityFail},
			wantPassed: false,
		},
		{
			name:       "eq met against weighted score",
			rule:       promptproof.JudgeValidationRule{Criteria: "accuracy", Operator: promptproof.OpEQ, Threshold: 0.6, Severity: promptproof.SeverityFail},
			wantPassed: true,
		},
		{
			name:         "warning severity never fails",
			rule:         promptproof.JudgeValidationRule{Criteria: "accuracy", Operator: promptproof.OpGTE, Threshold: 0.99, Severity: promptproof.SeverityWarning},
			wantPassed:   true,
			wantWarnings: 1,
		},
		{
			name:       "unscored criterion cannot hold",
			rule:       promptproof.JudgeValidationRule{Criteria: "brevity", Operator: promptproof.OpGTE, Threshold: 0.1, Severity: promptproof.SeverityFail},
			wantPassed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := llm.NewMockProvider(reply)
			outcome, err := NewEvaluator(provider).Evaluate(context.Background(), judgeConfig(tt.rule), nil, "output")
			require.NoError(t, err)
			assert.Equal(t, tt.wantPassed, outcome.ValidationPassed)
			assert.Len(t, outcome.Warnings, tt.wantWarnings)
		})
	}
}

func TestEvaluate_RubricPromptEmbedsCriteriaAndOutput(t *testing.T) {
	provider := llm.NewMockProvider(`{"scores": {"accuracy": {"score": 5}}, "overall_reasoning": "x"}`)

	tc := &promptproof.TestCase{
		Inputs:         map[string]string{"question": "what is 2+2"},
		ExpectedOutput: "4",
	}
	_, err := NewEvaluator(provider).Evaluate(context.Background(), judgeConfig(), tc, "the answer is 4")
	require.NoError(t, err)

	require.Len(t, provider.Calls, 1)
	prompt := provider.Calls[0].Prompt
	assert.Contains(t, prompt, "accuracy")
	assert.Contains(t, prompt, "matches brand voice")
	assert.Contains(t, prompt, "the answer is 4")
	assert.Contains(t, prompt, "what is 2+2")
	assert.True(t, provider.Calls[0].JSONMode)
}
