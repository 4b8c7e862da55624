package postgres

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/promptproof-ai/promptproof-be/internal/storage"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

type WebhookRepository struct {
	db *bun.DB
}

func NewWebhookRepository(db *bun.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(ctx context.Context, orgID string, webhook *promptproof.Webhook) error {
	dbWebhook := toDBWebhook(orgID, webhook)

	_, err := r.db.NewInsert().Model(dbWebhook).Exec(ctx)
	if err != nil {
		return err
	}

	webhook.ID = dbWebhook.ID
	return nil
}

func (r *WebhookRepository) Get(ctx context.Context, orgID, webhookID string) (*promptproof.Webhook, error) {
	var dbWebhook DBWebhook
	err := r.db.NewSelect().
		Model(&dbWebhook).
		Where("organization_id = ?", orgID).
		Where("id = ?", webhookID).
		Where("deleted_at IS NULL").
		Scan(ctx)

	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return toWebhook(&dbWebhook), nil
}

func (r *WebhookRepository) ListByOrganization(ctx context.Context, orgID string) ([]*promptproof.Webhook, error) {
	var dbWebhooks []DBWebhook
	err := r.db.NewSelect().
		Model(&dbWebhooks).
		Where("organization_id = ?", orgID).
		Where("deleted_at IS NULL").
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	webhooks := make([]*promptproof.Webhook, len(dbWebhooks))
	for i := range dbWebhooks {
		webhooks[i] = toWebhook(&dbWebhooks[i])
	}

	return webhooks, nil
}

func (r *WebhookRepository) Update(ctx context.Context, orgID string, webhook *promptproof.Webhook) error {
	dbWebhook := toDBWebhook(orgID, webhook)

	res, err := r.db.NewUpdate().
		Model(dbWebhook).
		Set("url = ?", dbWebhook.URL).
		Set("events = ?", pgdialect.Array(dbWebhook.Events)).
		Set("suite_ids = ?", pgdialect.Array(dbWebhook.SuiteIDs)).
		Set("only_on_failure = ?", dbWebhook.OnlyOnFailure).
		Set("only_on_regression = ?", dbWebhook.OnlyOnRegression).
		Set("retry_count = ?", dbWebhook.RetryCount).
		Set("retry_delay_ms = ?", dbWebhook.RetryDelayMS).
		Set("status = ?", dbWebhook.Status).
		Set("updated_at = now()").
		Where("organization_id = ?", orgID).
		Where("id = ?", webhook.ID).
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

func (r *WebhookRepository) Delete(ctx context.Context, orgID, webhookID string) error {
	res, err := r.db.NewUpdate().
		Model((*DBWebhook)(nil)).
		Set("deleted_at = now()").
		Where("organization_id = ?", orgID).
		Where("id = ?", webhookID).
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

// RecordDelivery updates the delivery bookkeeping after an attempt
// sequence finishes. Success resets the consecutive-failure counter;
// failure increments it.
func (r *WebhookRepository) RecordDelivery(ctx context.Context, webhookID string, success bool, at time.Time) error {
	q := r.db.NewUpdate().
		Model((*DBWebhook)(nil)).
		Set("last_delivery = ?", at).
		Where("id = ?", webhookID).
		Where("deleted_at IS NULL")

	if success {
		q = q.
			Set("last_success = ?", at).
			Set("consecutive_failures = 0")
	} else {
		q = q.
			Set("last_failure = ?", at).
			Set("consecutive_failures = consecutive_failures + 1")
	}

	_, err := q.Exec(ctx)
	return err
}

func toDBWebhook(orgID string, webhook *promptproof.Webhook) *DBWebhook {
	events := make([]string, len(webhook.Events))
	for i, e := range webhook.Events {
		events[i] = string(e)
	}

	status := string(webhook.Status)
	if status == "" {
		status = string(promptproof.WebhookActive)
	}

	return &DBWebhook{
		ID:               webhook.ID,
		OrganizationID:   orgID,
		URL:              webhook.URL,
		Secret:           webhook.Secret,
		Events:           events,
		SuiteIDs:         webhook.SuiteIDs,
		OnlyOnFailure:    webhook.OnlyOnFailure,
		OnlyOnRegression: webhook.OnlyOnRegression,
		RetryCount:       webhook.RetryCount,
		RetryDelayMS:     webhook.RetryDelayMS,
		Status:           status,
	}
}

func toWebhook(dbWebhook *DBWebhook) *promptproof.Webhook {
	events := make([]promptproof.WebhookEvent, len(dbWebhook.Events))
	for i, e := range dbWebhook.Events {
		events[i] = promptproof.WebhookEvent(e)
	}

	return &promptproof.Webhook{
		ID:                  dbWebhook.ID,
		URL:                 dbWebhook.URL,
		Secret:              dbWebhook.Secret,
		Events:              events,
		SuiteIDs:            dbWebhook.SuiteIDs,
		OnlyOnFailure:       dbWebhook.OnlyOnFailure,
		OnlyOnRegression:    dbWebhook.OnlyOnRegression,
		RetryCount:          dbWebhook.RetryCount,
		RetryDelayMS:        dbWebhook.RetryDelayMS,
		Status:              promptproof.WebhookStatus(dbWebhook.Status),
		ConsecutiveFailures: dbWebhook.ConsecutiveFailures,
		LastDelivery:        dbWebhook.LastDelivery,
		LastSuccess:         dbWebhook.LastSuccess,
		LastFailure:         dbWebhook.LastFailure,
	}
}
