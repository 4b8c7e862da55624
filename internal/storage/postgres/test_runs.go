// SPDX-License-Identifier: LicenseRef-PromptProof-Proprietary

package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"github.com/promptproof-ai/promptproof-be/internal/storage"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

type TestRunRepository struct {
	db *bun.DB
}

func NewTestRunRepository(db *bun.DB) *TestRunRepository {
	return &TestRunRepository{db: db}
}

func (r *TestRunRepository) Create(ctx context.Context, projectID string, run *promptproof.TestRun) error {
	resultsData, err := json.Marshal(run.Results)
	if err != nil {
		return err
	}

	dbRun := &DBTestRun{
		ProjectID:         projectID,
		SuiteID:           run.SuiteID,
		RunID:             run.RunID,
		RunAt:             run.RunAt,
		Status:            string(run.Status),
		Note:              run.Note,
		Iterations:        run.Iterations,
		TagFilter:         run.TagFilter,
		TotalCases:        run.Summary.Total,
		PassedCases:       run.Summary.Passed,
		FailedCases:       run.Summary.Failed,
		AvgScore:          run.Summary.AvgScore,
		AvgResponseTimeMS: run.Summary.AvgResponseTimeMS,
		Results:           resultsData,
	}

	if run.ModelOverride != nil {
		overrideData, err := json.Marshal(run.ModelOverride)
		if err != nil {
			return err
		}
		dbRun.ModelOverride = overrideData
	}

	if run.Status == "" {
		dbRun.Status = string(promptproof.RunStatusCompleted)
	}

	_, err = r.db.NewInsert().Model(dbRun).Exec(ctx)
	return err
}

func (r *TestRunRepository) Get(ctx context.Context, projectID, runID string) (*promptproof.TestRun, error) {
	var dbRun DBTestRun
	err := r.db.NewSelect().
		Model(&dbRun).
		Where("project_id = ?", projectID).
		Where("run_id = ?", runID).
		Scan(ctx)

	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return r.toTestRun(&dbRun)
}

func (r *TestRunRepository) ListBySuite(ctx context.Context, projectID, suiteID string, limit, offset int) ([]*promptproof.TestRun, error) {
	var dbRuns []DBTestRun
	err := r.db.NewSelect().
		Model(&dbRuns).
		Where("project_id = ?", projectID).
		Where("suite_id = ?", suiteID).
		Order("run_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	runs := make([]*promptproof.TestRun, len(dbRuns))
	for i := range dbRuns {
		run, err := r.toTestRun(&dbRuns[i])
		if err != nil {
			return nil, err
		}
		runs[i] = run
	}

	return runs, nil
}

func (r *TestRunRepository) UpdateNote(ctx context.Context, projectID, runID, note string) error {
	res, err := r.db.NewUpdate().
		Model((*DBTestRun)(nil)).
		Set("note = ?", note).
		Where("project_id = ?", projectID).
		Where("run_id = ?", runID).
		Exec(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// LatestCompletedBefore returns the most recent completed run of the
// suite started strictly before runAt. Used as the baseline for
// run-over-run regression checks.
func (r *TestRunRepository) LatestCompletedBefore(ctx context.Context, projectID, suiteID string, runAt time.Time) (*promptproof.TestRun, error) {
	var dbRun DBTestRun
	err := r.db.NewSelect().
		Model(&dbRun).
		Where("project_id = ?", projectID).
		Where("suite_id = ?", suiteID).
		Where("status = ?", string(promptproof.RunStatusCompleted)).
		Where("run_at < ?", runAt).
		Order("run_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return r.toTestRun(&dbRun)
}

func (r *TestRunRepository) toTestRun(dbRun *DBTestRun) (*promptproof.TestRun, error) {
	run := &promptproof.TestRun{
		RunID:      dbRun.RunID,
		SuiteID:    dbRun.SuiteID,
		RunAt:      dbRun.RunAt,
		Status:     promptproof.RunStatus(dbRun.Status),
		Note:       dbRun.Note,
		Iterations: dbRun.Iterations,
		TagFilter:  dbRun.TagFilter,
		Summary: promptproof.RunSummary{
			Total:             dbRun.TotalCases,
			Passed:            dbRun.PassedCases,
			Failed:            dbRun.FailedCases,
			AvgScore:          dbRun.AvgScore,
			AvgResponseTimeMS: dbRun.AvgResponseTimeMS,
		},
	}

	if err := decodeJSONField(dbRun.Results, &run.Results); err != nil {
		return nil, err
	}
	if len(dbRun.ModelOverride) > 0 {
		if err := decodeJSONField(dbRun.ModelOverride, &run.ModelOverride); err != nil {
			return nil, err
		}
	}

	return run, nil
}
