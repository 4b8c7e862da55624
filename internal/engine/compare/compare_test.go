package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

func result(caseID string, passed bool, score *float64, responseMS int64) promptproof.TestResult {
	r := promptproof.TestResult{
		TestCaseID:       caseID,
		TestCaseName:     "case " + caseID,
		ValidationPassed: passed,
		JudgeScore:       score,
		ResponseTimeMS:   responseMS,
	}
	return r
}

func run(id string, results ...promptproof.TestResult) *promptproof.TestRun {
	tr := &promptproof.TestRun{
		RunID:   id,
		Status:  promptproof.RunStatusCompleted,
		Results: results,
	}
	tr.Summarize()
	return tr
}

func score(v float64) *float64 { return &v }

func TestCompare_ScoreDeltaClassification(t *testing.T) {
	tests := []struct {
		name       string
		baseline   promptproof.TestResult
		candidate  promptproof.TestResult
		wantStatus promptproof.CaseStatus
		wantDelta  float64
	}{
		{
			name:       "delta above threshold improves",
			baseline:   result("a", true, score(0.70), 100),
			candidate:  result("a", true, score(0.80), 100),
			wantStatus: promptproof.CaseImproved,
			wantDelta:  0.10,
		},
		{
			name:       "delta inside noise band is unchanged",
			baseline:   result("a", true, score(0.70), 100),
			candidate:  result("a", true, score(0.72), 100),
			wantStatus: promptproof.CaseUnchanged,
			wantDelta:  0.02,
		},
		{
			name:       "negative delta regresses",
			baseline:   result("a", true, score(0.80), 100),
			candidate:  result("a", true, score(0.60), 100),
			wantStatus: promptproof.CaseRegressed,
			wantDelta:  -0.20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp := Compare(run("base", tt.baseline), run("cand", tt.candidate))
			require.Len(t, cmp.Cases, 1)
			assert.Equal(t, tt.wantStatus, cmp.Cases[0].Status)
			require.NotNil(t, cmp.Cases[0].ScoreDelta)
			assert.InDelta(t, tt.wantDelta, *cmp.Cases[0].ScoreDelta, 1e-9)
		})
	}
}

func TestCompare_PassTransitionWinsOverScore(t *testing.T) {
	// fail -> pass improves even though the score dropped sharply
	cmp := Compare(
		run("base", result("a", false, score(0.9), 100)),
		run("cand", result("a", true, score(0.5), 100)),
	)
	require.Len(t, cmp.Cases, 1)
	assert.Equal(t, promptproof.CaseImproved, cmp.Cases[0].Status)

	// pass -> fail regresses even though the score rose
	cmp = Compare(
		run("base", result("a", true, score(0.5), 100)),
		run("cand", result("a", false, score(0.9), 100)),
	)
	assert.Equal(t, promptproof.CaseRegressed, cmp.Cases[0].Status)
}

func TestCompare_NewAndRemovedCases(t *testing.T) {
	cmp := Compare(
		run("base", result("a", true, nil, 100), result("gone", true, nil, 100)),
		run("cand", result("a", true, nil, 100), result("fresh", false, nil, 100)),
	)

	assert.Equal(t, 1, cmp.New)
	assert.Equal(t, 1, cmp.Removed)
	assert.Equal(t, 1, cmp.Unchanged)

	statuses := map[string]promptproof.CaseStatus{}
	for _, row := range cmp.Cases {
		statuses[row.TestCaseID] = row.Status
	}
	assert.Equal(t, promptproof.CaseNew, statuses["fresh"])
	assert.Equal(t, promptproof.CaseRemoved, statuses["gone"])
}

func TestCompare_DisplayOrdering(t *testing.T) {
	cmp := Compare(
		run("base",
			result("unchanged", true, nil, 100),
			result("regressed", true, nil, 100),
			result("improved", false, nil, 100),
			result("removed", true, nil, 100),
		),
		run("cand",
			result("unchanged", true, nil, 100),
			result("regressed", false, nil, 100),
			result("improved", true, nil, 100),
			result("new", true, nil, 100),
		),
	)

	var got []promptproof.CaseStatus
	for _, row := range cmp.Cases {
		got = append(got, row.Status)
	}
	assert.Equal(t, []promptproof.CaseStatus{
		promptproof.CaseRegressed,
		promptproof.CaseImproved,
		promptproof.CaseNew,
		promptproof.CaseUnchanged,
		promptproof.CaseRemoved,
	}, got)
}

func TestCompare_AggregateDeltas(t *testing.T) {
	baseline := run("base",
		result("a", true, score(0.6), 100),
		result("b", true, score(0.8), 200),
		result("c", false, score(0.4), 300),
	)
	candidate := run("cand",
		result("a", true, score(0.7), 150),
		result("b", false, score(0.8), 250),
		result("c", false, score(0.4), 350),
	)

	cmp := Compare(baseline, candidate)

	// pass rate 66.7% -> 33.3%
	assert.InDelta(t, -33.3, cmp.PassRateDelta, 0.05)
	require.NotNil(t, cmp.AvgScoreDelta)
	// avg 0.6 -> 0.6333... => +3.33 points
	assert.InDelta(t, 3.33, *cmp.AvgScoreDelta, 0.01)
	assert.InDelta(t, 50, cmp.AvgResponseTimeDeltaMS, 1e-9)
}

func TestCompare_NoScoresMeansNilAvgScoreDelta(t *testing.T) {
	cmp := Compare(
		run("base", result("a", true, nil, 100)),
		run("cand", result("a", true, nil, 100)),
	)
	assert.Nil(t, cmp.AvgScoreDelta)
}

func TestCompare_MultipleIterationsUseFirstResult(t *testing.T) {
	first := result("a", true, score(0.9), 100)
	second := result("a", false, score(0.1), 100)
	second.Iteration = 1

	cmp := Compare(
		run("base", first, second),
		run("cand", first, second),
	)

	require.Len(t, cmp.Cases, 1)
	assert.Equal(t, promptproof.CaseUnchanged, cmp.Cases[0].Status)
}

func TestCompare_HasRegression(t *testing.T) {
	cmp := Compare(
		run("base", result("a", true, nil, 100)),
		run("cand", result("a", false, nil, 100)),
	)
	assert.True(t, cmp.HasRegression())
}
