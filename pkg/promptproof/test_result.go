package promptproof

import "time"

// RunStatus is the terminal-state machine for a test run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ModelOverride swaps the suite target's provider/model for one run
type ModelOverride struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// TestResult is the outcome of one (test case, iteration) pair
type TestResult struct {
	TestCaseID              string            `json:"test_case_id"`
	TestCaseName            string            `json:"test_case_name"`
	Iteration               int               `json:"iteration"`
	Inputs                  map[string]string `json:"inputs,omitempty"`
	Output                  string            `json:"output,omitempty"`
	Error                   string            `json:"error,omitempty"`
	ValidationPassed        bool              `json:"validation_passed"`
	ValidationErrors        []string          `json:"validation_errors,omitempty"`
	ValidationWarnings      []string          `json:"validation_warnings,omitempty"`
	JudgeScore              *float64          `json:"judge_score,omitempty"`
	JudgeScores             map[string]float64 `json:"judge_scores,omitempty"`
	JudgeReasoning          string            `json:"judge_reasoning,omitempty"`
	JudgeValidationPassed   *bool             `json:"judge_validation_passed,omitempty"`
	JudgeValidationErrors   []string          `json:"judge_validation_errors,omitempty"`
	JudgeValidationWarnings []string          `json:"judge_validation_warnings,omitempty"`
	ResponseTimeMS          int64             `json:"response_time_ms"`
}

// Passed reports the overall verdict for the result: deterministic rules
// must hold and, when the judge produced a verdict, its fail-severity
// rules must hold too.
func (r *TestResult) Passed() bool {
	if !r.ValidationPassed {
		return false
	}
	if r.JudgeValidationPassed != nil && !*r.JudgeValidationPassed {
		return false
	}
	return true
}

// RunSummary aggregates a run's results. Derived only; never stored
// independently of the results it summarizes.
type RunSummary struct {
	Total             int      `json:"total"`
	Passed            int      `json:"passed"`
	Failed            int      `json:"failed"`
	AvgScore          *float64 `json:"avg_score,omitempty"`
	AvgResponseTimeMS float64  `json:"avg_response_time_ms"`
}

// TestRun is one execution of a suite. Append-only once completed; only
// Note is mutable after the fact.
type TestRun struct {
	RunID         string         `json:"run_id"`
	SuiteID       string         `json:"suite_id"`
	RunAt         time.Time      `json:"run_at"`
	Status        RunStatus      `json:"status"`
	Note          string         `json:"note,omitempty"`
	Iterations    int            `json:"iterations"`
	TagFilter     []string       `json:"tag_filter,omitempty"`
	ModelOverride *ModelOverride `json:"model_override,omitempty"`
	Results       []TestResult   `json:"results"`
	Summary       RunSummary     `json:"summary"`
}

// Summarize recomputes the run's summary from its results
func (tr *TestRun) Summarize() {
	s := RunSummary{Total: len(tr.Results)}
	var scoreSum float64
	var scoreCount int
	var latencySum int64
	for i := range tr.Results {
		r := &tr.Results[i]
		if r.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
		if r.JudgeScore != nil {
			scoreSum += *r.JudgeScore
			scoreCount++
		}
		latencySum += r.ResponseTimeMS
	}
	if scoreCount > 0 {
		avg := scoreSum / float64(scoreCount)
		s.AvgScore = &avg
	}
	if s.Total > 0 {
		s.AvgResponseTimeMS = float64(latencySum) / float64(s.Total)
	}
	tr.Summary = s
}
