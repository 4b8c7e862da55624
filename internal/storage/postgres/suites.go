package postgres

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/uptrace/bun"

	"github.com/promptproof-ai/promptproof-be/internal/storage"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

type SuiteRepository struct {
	db *bun.DB
}

func NewSuiteRepository(db *bun.DB) *SuiteRepository {
	return &SuiteRepository{db: db}
}

func (r *SuiteRepository) Create(ctx context.Context, projectID string, suite *promptproof.TestSuite) error {
	dbSuite, err := toDBSuite(projectID, suite)
	if err != nil {
		return err
	}

	_, err = r.db.NewInsert().Model(dbSuite).Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "SQLSTATE=23505") {
			return storage.ErrAlreadyExists
		}
		return err
	}

	return nil
}

func (r *SuiteRepository) Get(ctx context.Context, projectID, suiteID string) (*promptproof.TestSuite, error) {
	var dbSuite DBSuite
	err := r.db.NewSelect().
		Model(&dbSuite).
		Where("project_id = ?", projectID).
		Where("suite_id = ?", suiteID).
		Where("deleted_at IS NULL").
		Scan(ctx)

	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return toTestSuite(&dbSuite)
}

func (r *SuiteRepository) List(ctx context.Context, projectID string, limit, offset int) ([]*promptproof.TestSuite, error) {
	var dbSuites []DBSuite
	err := r.db.NewSelect().
		Model(&dbSuites).
		Where("project_id = ?", projectID).
		Where("deleted_at IS NULL").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	suites := make([]*promptproof.TestSuite, len(dbSuites))
	for i := range dbSuites {
		suite, err := toTestSuite(&dbSuites[i])
		if err != nil {
			return nil, err
		}
		suites[i] = suite
	}

	return suites, nil
}

func (r *SuiteRepository) Update(ctx context.Context, projectID string, suite *promptproof.TestSuite) error {
	dbSuite, err := toDBSuite(projectID, suite)
	if err != nil {
		return err
	}

	res, err := r.db.NewUpdate().
		Model(dbSuite).
		Set("name = ?", dbSuite.Name).
		Set("description = ?", dbSuite.Description).
		Set("target = ?", dbSuite.Target).
		Set("cases = ?", dbSuite.Cases).
		Set("rules = ?", dbSuite.Rules).
		Set("judge = ?", dbSuite.Judge).
		Set("updated_at = now()").
		Where("project_id = ?", projectID).
		Where("suite_id = ?", suite.SuiteID).
		Where("deleted_at IS NULL").
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

func (r *SuiteRepository) Delete(ctx context.Context, projectID, suiteID string) error {
	res, err := r.db.NewUpdate().
		Model((*DBSuite)(nil)).
		Set("deleted_at = now()").
		Where("project_id = ?", projectID).
		Where("suite_id = ?", suiteID).
		Where("deleted_at IS NULL").
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

func toDBSuite(projectID string, suite *promptproof.TestSuite) (*DBSuite, error) {
	targetData, err := json.Marshal(suite.Target)
	if err != nil {
		return nil, err
	}
	casesData, err := json.Marshal(suite.Cases)
	if err != nil {
		return nil, err
	}

	dbSuite := &DBSuite{
		ProjectID:   projectID,
		SuiteID:     suite.SuiteID,
		Name:        suite.Name,
		Description: suite.Description,
		Target:      targetData,
		Cases:       casesData,
	}

	if len(suite.Rules) > 0 {
		rulesData, err := json.Marshal(suite.Rules)
		if err != nil {
			return nil, err
		}
		dbSuite.Rules = rulesData
	}
	if suite.Judge != nil {
		judgeData, err := json.Marshal(suite.Judge)
		if err != nil {
			return nil, err
		}
		dbSuite.Judge = judgeData
	}

	return dbSuite, nil
}

func toTestSuite(dbSuite *DBSuite) (*promptproof.TestSuite, error) {
	suite := &promptproof.TestSuite{
		SuiteID:     dbSuite.SuiteID,
		Name:        dbSuite.Name,
		Description: dbSuite.Description,
	}

	if err := decodeJSONField(dbSuite.Target, &suite.Target); err != nil {
		return nil, err
	}
	if err := decodeJSONField(dbSuite.Cases, &suite.Cases); err != nil {
		return nil, err
	}
	if len(dbSuite.Rules) > 0 {
		if err := decodeJSONField(dbSuite.Rules, &suite.Rules); err != nil {
			return nil, err
		}
	}
	if len(dbSuite.Judge) > 0 {
		if err := decodeJSONField(dbSuite.Judge, &suite.Judge); err != nil {
			return nil, err
		}
	}

	return suite, nil
}
