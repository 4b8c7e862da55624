// SPDX-License-Identifier: LicenseRef-PromptProof-Proprietary

package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/promptproof-ai/promptproof-be/internal/storage"
)

type OrganizationRepository struct {
	db *bun.DB
}

func NewOrganizationRepository(db *bun.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *storage.Organization) error {
	dbOrg := &DBOrganization{
		Name:               org.Name,
		Slug:               org.Slug,
		Tier:               org.Tier,
		MaxConcurrentTests: org.MaxConcurrentTests,
		MonthlyRunLimit:    org.MonthlyRunLimit,
		UsageResetAt:       firstOfNextMonth(time.Now().UTC()),
	}

	_, err := r.db.NewInsert().Model(dbOrg).Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "SQLSTATE=23505") {
			return storage.ErrAlreadyExists
		}
		return err
	}

	org.ID = dbOrg.ID
	org.UsageResetAt = dbOrg.UsageResetAt
	return nil
}

func (r *OrganizationRepository) Get(ctx context.Context, id string) (*storage.Organization, error) {
	var dbOrg DBOrganization
	err := r.db.NewSelect().
		Model(&dbOrg).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Scan(ctx)

	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return toOrganization(&dbOrg), nil
}

func (r *OrganizationRepository) UpdateExecutionSettings(ctx context.Context, id string, maxConcurrentTests int) error {
	res, err := r.db.NewUpdate().
		Model((*DBOrganization)(nil)).
		Set("max_concurrent_tests = ?", maxConcurrentTests).
		Set("updated_at = now()").
		Where("id = ?", id).
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

// IncrementRunCount bumps the monthly usage counter and returns the
// updated organization so callers can enforce the limit atomically.
func (r *OrganizationRepository) IncrementRunCount(ctx context.Context, id string) (*storage.Organization, error) {
	var dbOrg DBOrganization
	err := r.db.NewUpdate().
		Model(&dbOrg).
		Set("monthly_run_count = monthly_run_count + 1").
		Set("updated_at = now()").
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Returning("*").
		Scan(ctx)

	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return toOrganization(&dbOrg), nil
}

func (r *OrganizationRepository) ResetMonthlyUsage(ctx context.Context, id string) error {
	_, err := r.db.NewUpdate().
		Model((*DBOrganization)(nil)).
		Set("monthly_run_count = 0").
		Set("usage_reset_at = ?", firstOfNextMonth(time.Now().UTC())).
		Set("updated_at = now()").
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	return err
}

func toOrganization(dbOrg *DBOrganization) *storage.Organization {
	return &storage.Organization{
		ID:                 dbOrg.ID,
		Name:               dbOrg.Name,
		Slug:               dbOrg.Slug,
		Tier:               dbOrg.Tier,
		MaxConcurrentTests: dbOrg.MaxConcurrentTests,
		MonthlyRunLimit:    dbOrg.MonthlyRunLimit,
		MonthlyRunCount:    dbOrg.MonthlyRunCount,
		UsageResetAt:       dbOrg.UsageResetAt,
		CreatedAt:          dbOrg.CreatedAt,
		UpdatedAt:          dbOrg.UpdatedAt,
	}
}

func firstOfNextMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
