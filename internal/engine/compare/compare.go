// Package compare classifies run-over-run changes between two completed
// run records. It reads immutable records only and never runs during
// execution.
package compare

import (
	"math"

	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

// scoreDeltaThreshold is the band inside which a score change is noise
const scoreDeltaThreshold = 0.05

// Compare classifies every test case present in either run and computes
// aggregate deltas of the candidate against the baseline.
func Compare(baseline, candidate *promptproof.TestRun) *promptproof.ComparisonResult {
	baseResults := indexByCase(baseline)
	candResults := indexByCase(candidate)

	result := &promptproof.ComparisonResult{
		BaselineRunID:  baseline.RunID,
		CandidateRunID: candidate.RunID,
	}

	var buckets [5][]promptproof.CaseComparison

	seen := make(map[string]bool)
	order := caseOrder(candidate, baseline)
	for _, caseID := range order {
		if seen[caseID] {
			continue
		}
		seen[caseID] = true

		row := compareCase(caseID, baseResults[caseID], candResults[caseID])
		switch row.Status {
		case promptproof.CaseRegressed:
			result.Regressed++
			buckets[0] = append(buckets[0], row)
		case promptproof.CaseImproved:
			result.Improved++
			buckets[1] = append(buckets[1], row)
		case promptproof.CaseNew:
			result.New++
			buckets[2] = append(buckets[2], row)
		case promptproof.CaseUnchanged:
			result.Unchanged++
			buckets[3] = append(buckets[3], row)
		case promptproof.CaseRemoved:
			result.Removed++
			buckets[4] = append(buckets[4], row)
		}
	}

	// display order: regressed, improved, new, unchanged, removed
	for _, bucket := range buckets {
		result.Cases = append(result.Cases, bucket...)
	}

	result.PassRateDelta = round1(passRate(candidate)-passRate(baseline))
	result.AvgScoreDelta = avgScoreDelta(baseline, candidate)
	result.AvgResponseTimeDeltaMS = candidate.Summary.AvgResponseTimeMS - baseline.Summary.AvgResponseTimeMS

	return result
}

// compareCase classifies one test case. Precedence: pass/fail
// transitions always win; otherwise the score delta decides when it
// clears the noise band; otherwise unchanged.
func compareCase(caseID string, base, cand *promptproof.TestResult) promptproof.CaseComparison {
	row := promptproof.CaseComparison{TestCaseID: caseID}

	switch {
	case base == nil:
		row.TestCaseName = cand.TestCaseName
		row.Status = promptproof.CaseNew
		passed := cand.Passed()
		row.CandidatePassed = &passed
		row.CandidateScore = cand.JudgeScore
		return row
	case cand == nil:
		row.TestCaseName = base.TestCaseName
		row.Status = promptproof.CaseRemoved
		passed := base.Passed()
		row.BaselinePassed = &passed
		row.BaselineScore = base.JudgeScore
		return row
	}

	row.TestCaseName = cand.TestCaseName
	basePassed := base.Passed()
	candPassed := cand.Passed()
	row.BaselinePassed = &basePassed
	row.CandidatePassed = &candPassed
	row.BaselineScore = base.JudgeScore
	row.CandidateScore = cand.JudgeScore
	row.ResponseTimeDeltaMS = cand.ResponseTimeMS - base.ResponseTimeMS

	var scoreDelta *float64
	if base.JudgeScore != nil && cand.JudgeScore != nil {
		d := *cand.JudgeScore - *base.JudgeScore
		scoreDelta = &d
	}
	row.ScoreDelta = scoreDelta

	switch {
	case basePassed && !candPassed:
		row.Status = promptproof.CaseRegressed
	case !basePassed && candPassed:
		row.Status = promptproof.CaseImproved
	case scoreDelta != nil && math.Abs(*scoreDelta) > scoreDeltaThreshold:
		if *scoreDelta > 0 {
			row.Status = promptproof.CaseImproved
		} else {
			row.Status = promptproof.CaseRegressed
		}
	default:
		row.Status = promptproof.CaseUnchanged
	}

	return row
}

// indexByCase maps testCaseId to its first result in canonical order;
// with multiple iterations the first iteration represents the case.
func indexByCase(run *promptproof.TestRun) map[string]*promptproof.TestResult {
	index := make(map[string]*promptproof.TestResult, len(run.Results))
	for i := range run.Results {
		r := &run.Results[i]
		if _, ok := index[r.TestCaseID]; !ok {
			index[r.TestCaseID] = r
		}
	}
	return index
}

// caseOrder lists case IDs candidate-first so new cases slot in where
// the candidate run placed them, then baseline-only cases.
func caseOrder(candidate, baseline *promptproof.TestRun) []string {
	var order []string
	seen := make(map[string]bool)
	for i := range candidate.Results {
		id := candidate.Results[i].TestCaseID
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	for i := range baseline.Results {
		id := baseline.Results[i].TestCaseID
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	return order
}

// passRate returns the run's pass rate in percentage points
func passRate(run *promptproof.TestRun) float64 {
	if run.Summary.Total == 0 {
		return 0
	}
	return float64(run.Summary.Passed) / float64(run.Summary.Total) * 100
}

// avgScoreDelta is in percentage points, nil when either run has no
// judge scores at all
func avgScoreDelta(baseline, candidate *promptproof.TestRun) *float64 {
	if baseline.Summary.AvgScore == nil || candidate.Summary.AvgScore == nil {
		return nil
	}
	d := (*candidate.Summary.AvgScore - *baseline.Summary.AvgScore) * 100
	return &d
}

// round1 rounds to one decimal place
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
