// Package rules applies deterministic validation rules to a single
// test-case output. Rule evaluation never aborts a run: a rule that
// cannot be evaluated at all (bad regex, bad schema, non-JSON output
// for a schema rule) counts as not satisfied.
package rules

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

// Result is the outcome of evaluating a rule set against one output
type Result struct {
	Passed   bool
	Errors   []string
	Warnings []string
}

// Evaluate runs every rule against the output. Passed is true iff no
// fail-severity rule is unsatisfied; warning-severity rules only ever
// contribute to Warnings.
func Evaluate(ruleset []promptproof.ValidationRule, output string, responseTimeMS int64) Result {
	result := Result{Passed: true}

	for _, rule := range ruleset {
		ok, msg := evalRule(rule, output, responseTimeMS)
		if ok {
			continue
		}
		switch rule.Severity {
		case promptproof.SeverityWarning:
			result.Warnings = append(result.Warnings, msg)
		default:
			result.Passed = false
			result.Errors = append(result.Errors, msg)
		}
	}

	return result
}

// evalRule dispatches on the closed rule-type set. Returns satisfied
// plus a human-readable message for the unsatisfied case.
func evalRule(rule promptproof.ValidationRule, output string, responseTimeMS int64) (bool, string) {
	switch rule.Type {
	case promptproof.RuleContains:
		return evalContains(rule, output)
	case promptproof.RuleExcludes:
		return evalExcludes(rule, output)
	case promptproof.RuleMinLength:
		return evalMinLength(rule, output)
	case promptproof.RuleMaxLength:
		return evalMaxLength(rule, output)
	case promptproof.RuleRegex:
		return evalRegex(rule, output)
	case promptproof.RuleJSONSchema:
		return evalJSONSchema(rule, output)
	case promptproof.RuleMaxResponseTime:
		return evalMaxResponseTime(rule, responseTimeMS)
	default:
		return false, fmt.Sprintf("unknown rule type %q", rule.Type)
	}
}

func evalContains(rule promptproof.ValidationRule, output string) (bool, string) {
	want, ok := stringValue(rule.Value)
	if !ok {
		return false, fmt.Sprintf("contains rule has non-string value %v", rule.Value)
	}
	if strings.Contains(output, want) {
		return true, ""
	}
	return false, fmt.Sprintf("output does not contain %q", want)
}

func evalExcludes(rule promptproof.ValidationRule, output string) (bool, string) {
	unwanted, ok := stringValue(rule.Value)
	if !ok {
		return false, fmt.Sprintf("excludes rule has non-string value %v", rule.Value)
	}
	if !strings.Contains(output, unwanted) {
		return true, ""
	}
	return false, fmt.Sprintf("output contains excluded string %q", unwanted)
}

func evalMinLength(rule promptproof.ValidationRule, output string) (bool, string) {
	min, ok := intValue(rule.Value)
	if !ok {
		return false, fmt.Sprintf("minLength rule has non-numeric value %v", rule.Value)
	}
	length := len([]rune(output))
	if length >= min {
		return true, ""
	}
	return false, fmt.Sprintf("output length %d is below minimum %d", length, min)
}

func evalMaxLength(rule promptproof.ValidationRule, output string) (bool, string) {
	max, ok := intValue(rule.Value)
	if !ok {
		return false, fmt.Sprintf("maxLength rule has non-numeric value %v", rule.Value)
	}
	length := len([]rune(output))
	if length <= max {
		return true, ""
	}
	return false, fmt.Sprintf("output length %d exceeds maximum %d", length, max)
}

func evalRegex(rule promptproof.ValidationRule, output string) (bool, string) {
	pattern, ok := stringValue(rule.Value)
	if !ok {
		return false, fmt.Sprintf("regex rule has non-string value %v", rule.Value)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		log.Printf("Invalid regex in validation rule %q: %v", pattern, err)
		return false, fmt.Sprintf("invalid regex pattern %q", pattern)
	}
	if re.MatchString(output) {
		return true, ""
	}
	return false, fmt.Sprintf("output does not match pattern %q", pattern)
}

func evalJSONSchema(rule promptproof.ValidationRule, output string) (bool, string) {
	schemaDoc, ok := stringValue(rule.Value)
	if !ok {
		return false, fmt.Sprintf("jsonSchema rule has non-string value %v", rule.Value)
	}

	if !json.Valid([]byte(output)) {
		return false, "output is not valid JSON"
	}

	schemaLoader := gojsonschema.NewStringLoader(schemaDoc)
	docLoader := gojsonschema.NewStringLoader(output)

	validation, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		log.Printf("Invalid JSON schema in validation rule: %v", err)
		return false, "invalid JSON schema in rule"
	}

	if validation.Valid() {
		return true, ""
	}

	var reasons []string
	for _, desc := range validation.Errors() {
		reasons = append(reasons, desc.String())
	}
	return false, "output does not match schema: " + strings.Join(reasons, "; ")
}

func evalMaxResponseTime(rule promptproof.ValidationRule, responseTimeMS int64) (bool, string) {
	max, ok := intValue(rule.Value)
	if !ok {
		return false, fmt.Sprintf("maxResponseTime rule has non-numeric value %v", rule.Value)
	}
	if responseTimeMS <= int64(max) {
		return true, ""
	}
	return false, fmt.Sprintf("response time %dms exceeds maximum %dms", responseTimeMS, max)
}

// Rule values arrive from JSON configuration, so numbers decode as
// float64 and may also be authored as numeric strings.
func intValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err != nil {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}

func stringValue(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
