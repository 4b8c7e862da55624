// Package judge scores a test-case output with an LLM against a
// weighted rubric and applies judge-level pass/fail rules to the
// resulting per-criterion scores.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/promptproof-ai/promptproof-be/internal/llm"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

// ParseError means the judge model replied with something that is not
// the expected JSON shape. The raw reply is kept for debugging.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("judge response is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Outcome is the judge's verdict for one output
type Outcome struct {
	// Score is the weighted overall score in [0,1]
	Score float64
	// Scores holds the weighted per-criterion scores in [0,1]
	Scores map[string]float64
	// Reasoning is the judge's overall explanation
	Reasoning string
	// ValidationPassed is false iff a fail-severity judge rule is unmet
	ValidationPassed bool
	Errors           []string
	Warnings         []string
}

// judgeReply mirrors the JSON shape requested from the judge model
type judgeReply struct {
	Scores           map[string]criterionScore `json:"scores"`
	OverallReasoning string                    `json:"overall_reasoning"`
}

type criterionScore struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// Evaluator drives judge calls through a completion provider
type Evaluator struct {
	provider llm.CompletionProvider
}

func NewEvaluator(provider llm.CompletionProvider) *Evaluator {
	return &Evaluator{provider: provider}
}

// Evaluate scores output against the rubric in config. The returned
// error is a *ParseError when the model's reply could not be decoded.
func (e *Evaluator) Evaluate(ctx context.Context, config *promptproof.JudgeConfig, testCase *promptproof.TestCase, output string) (*Outcome, error) {
	if config == nil || !config.Enabled {
		return nil, fmt.Errorf("judge is not enabled")
	}
	if len(config.Criteria) == 0 {
		return nil, fmt.Errorf("judge config has no scoring criteria")
	}

	prompt := buildRubricPrompt(config, testCase, output)

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Provider: config.Provider,
		Model:    config.Model,
		System:   judgeSystemPrompt,
		Prompt:   prompt,
		JSONMode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("judge call failed: %w", err)
	}

	reply, err := parseReply(resp.Content)
	if err != nil {
		return nil, err
	}

	outcome := scoreReply(config, reply)
	applyJudgeRules(config, outcome)
	return outcome, nil
}

const judgeSystemPrompt = "You are a strict evaluator of AI-generated responses. " +
	"Score each criterion from 0 to 10 and respond with JSON only."

func buildRubricPrompt(config *promptproof.JudgeConfig, testCase *promptproof.TestCase, output string) string {
	var b strings.Builder

	b.WriteString("Evaluate the candidate response against each criterion below.\n\nCriteria:\n")
	for _, c := range config.Criteria {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}

	if testCase != nil {
		if len(testCase.Inputs) > 0 {
			b.WriteString("\nTest inputs:\n")
			inputs, _ := json.Marshal(testCase.Inputs)
			b.Write(inputs)
			b.WriteString("\n")
		}
		if testCase.ExpectedOutput != "" {
			b.WriteString("\nExpected output (reference):\n")
			b.WriteString(testCase.ExpectedOutput)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nCandidate response:\n")
	b.WriteString(output)

	b.WriteString("\n\nRespond with JSON of this exact shape:\n")
	b.WriteString(`{"scores": {`)
	for i, c := range config.Criteria {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: {\"score\": 0-10, \"reason\": \"...\"}", c.Name)
	}
	b.WriteString(`}, "overall_reasoning": "..."}`)

	return b.String()
}

func parseReply(content string) (*judgeReply, error) {
	// Models occasionally wrap JSON in a code fence despite instructions
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var reply judgeReply
	if err := json.Unmarshal([]byte(trimmed), &reply); err != nil {
		return nil, &ParseError{Raw: content, Err: err}
	}
	if len(reply.Scores) == 0 {
		return nil, &ParseError{Raw: content, Err: fmt.Errorf("missing scores object")}
	}
	return &reply, nil
}

// scoreReply converts raw 0-10 scores into weighted 0-1 per-criterion
// scores and the weighted overall score. Criteria absent from the reply
// are excluded from aggregation.
func scoreReply(config *promptproof.JudgeConfig, reply *judgeReply) *Outcome {
	outcome := &Outcome{
		Scores:           make(map[string]float64),
		Reasoning:        reply.OverallReasoning,
		ValidationPassed: true,
	}

	var weightedSum, weightSum float64
	for _, criterion := range config.Criteria {
		raw, ok := reply.Scores[criterion.Name]
		if !ok {
			continue
		}
		normalized := clamp01(raw.Score / 10.0)
		outcome.Scores[criterion.Name] = normalized

		weight := criterion.Weight
		if weight <= 0 {
			weight = 1
		}
		weightedSum += normalized * weight
		weightSum += weight
	}

	if weightSum > 0 {
		outcome.Score = weightedSum / weightSum
	}
	return outcome
}

func applyJudgeRules(config *promptproof.JudgeConfig, outcome *Outcome) {
	for _, rule := range config.Rules {
		score, ok := outcome.Scores[rule.Criteria]
		if !ok {
			// criterion never scored; the rule cannot hold
			recordUnmet(outcome, rule, fmt.Sprintf("criterion %q was not scored by the judge", rule.Criteria))
			continue
		}

		var met bool
		switch rule.Operator {
		case promptproof.OpGTE:
			met = score >= rule.Threshold
		case promptproof.OpLTE:
			met = score <= rule.Threshold
		case promptproof.OpEQ:
			met = math.Abs(score-rule.Threshold) < 1e-9
		}

		if !met {
			recordUnmet(outcome, rule, fmt.Sprintf("criterion %q score %.2f does not satisfy %s %.2f",
				rule.Criteria, score, rule.Operator, rule.Threshold))
		}
	}
}

func recordUnmet(outcome *Outcome, rule promptproof.JudgeValidationRule, msg string) {
	if rule.Severity == promptproof.SeverityWarning {
		outcome.Warnings = append(outcome.Warnings, msg)
		return
	}
	outcome.ValidationPassed = false
	outcome.Errors = append(outcome.Errors, msg)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
