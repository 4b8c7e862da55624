package promptproof

// CaseStatus classifies a test case's run-over-run change
type CaseStatus string

const (
	CaseRegressed CaseStatus = "regressed"
	CaseImproved  CaseStatus = "improved"
	CaseNew       CaseStatus = "new"
	CaseUnchanged CaseStatus = "unchanged"
	CaseRemoved   CaseStatus = "removed"
)

// CaseComparison is the per-case row of a run comparison
type CaseComparison struct {
	TestCaseID          string     `json:"test_case_id"`
	TestCaseName        string     `json:"test_case_name"`
	Status              CaseStatus `json:"status"`
	BaselinePassed      *bool      `json:"baseline_passed,omitempty"`
	CandidatePassed     *bool      `json:"candidate_passed,omitempty"`
	BaselineScore       *float64   `json:"baseline_score,omitempty"`
	CandidateScore      *float64   `json:"candidate_score,omitempty"`
	ScoreDelta          *float64   `json:"score_delta,omitempty"`
	ResponseTimeDeltaMS int64      `json:"response_time_delta_ms"`
}

// ComparisonResult compares a candidate run against a baseline run.
// Cases are ordered for display: regressed, improved, new, unchanged,
// removed.
type ComparisonResult struct {
	BaselineRunID          string           `json:"baseline_run_id"`
	CandidateRunID         string           `json:"candidate_run_id"`
	Cases                  []CaseComparison `json:"cases"`
	Regressed              int              `json:"regressed"`
	Improved               int              `json:"improved"`
	New                    int              `json:"new"`
	Unchanged              int              `json:"unchanged"`
	Removed                int              `json:"removed"`
	PassRateDelta          float64          `json:"pass_rate_delta"`
	AvgScoreDelta          *float64         `json:"avg_score_delta,omitempty"`
	AvgResponseTimeDeltaMS float64          `json:"avg_response_time_delta_ms"`
}

// HasRegression reports whether any case regressed
func (c *ComparisonResult) HasRegression() bool {
	return c.Regressed > 0
}
