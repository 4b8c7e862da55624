package storage

import (
	"context"
	"errors"
	"time"

	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// APIKey represents an API key in the database
type APIKey struct {
	ID             string
	OrganizationID string
	KeyHash        string
	KeyPrefix      string
	Name           string
	Tier           string
	RateLimitRPM   int
	LastUsedAt     *time.Time
	ExpiresAt      *time.Time
	CreatedAt      time.Time
	RevokedAt      *time.Time
}

// APIKeyRepository handles API key operations
type APIKeyRepository interface {
	GetByHash(ctx context.Context, keyHash string) (*APIKey, error)
	Create(ctx context.Context, apiKey *APIKey) error
	ListByOrganization(ctx context.Context, orgID string) ([]*APIKey, error)
	UpdateLastUsed(ctx context.Context, id string) error
	Revoke(ctx context.Context, id string) error
}

// Organization represents an organization. MaxConcurrentTests bounds the
// per-run worker pool; it is read here and passed into the orchestrator
// explicitly.
type Organization struct {
	ID                 string
	Name               string
	Slug               string
	Tier               string
	MaxConcurrentTests int
	MonthlyRunLimit    int64
	MonthlyRunCount    int64
	UsageResetAt       time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OrganizationRepository handles organization operations
type OrganizationRepository interface {
	Create(ctx context.Context, org *Organization) error
	Get(ctx context.Context, id string) (*Organization, error)
	UpdateExecutionSettings(ctx context.Context, id string, maxConcurrentTests int) error
	IncrementRunCount(ctx context.Context, id string) (*Organization, error)
	ResetMonthlyUsage(ctx context.Context, id string) error
}

// Project represents a project
type Project struct {
	ID             string
	OrganizationID string
	Name           string
	Slug           string
}

// ProjectRepository handles project operations
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*Project, error)
}

// SuiteRepository stores test suite definitions
type SuiteRepository interface {
	Create(ctx context.Context, projectID string, suite *promptproof.TestSuite) error
	Get(ctx context.Context, projectID, suiteID string) (*promptproof.TestSuite, error)
	List(ctx context.Context, projectID string, limit, offset int) ([]*promptproof.TestSuite, error)
	Update(ctx context.Context, projectID string, suite *promptproof.TestSuite) error
	Delete(ctx context.Context, projectID, suiteID string) error
}

// TestRunRepository stores run records. Records are append-only once
// completed; only the note is mutable.
type TestRunRepository interface {
	Create(ctx context.Context, projectID string, run *promptproof.TestRun) error
	Get(ctx context.Context, projectID, runID string) (*promptproof.TestRun, error)
	ListBySuite(ctx context.Context, projectID, suiteID string, limit, offset int) ([]*promptproof.TestRun, error)
	UpdateNote(ctx context.Context, projectID, runID, note string) error
	// LatestCompletedBefore returns the most recent completed run of the
	// suite that started before runAt, for run-over-run regression checks.
	LatestCompletedBefore(ctx context.Context, projectID, suiteID string, runAt time.Time) (*promptproof.TestRun, error)
}

// WebhookRepository stores webhook subscriptions and their delivery
// bookkeeping
type WebhookRepository interface {
	Create(ctx context.Context, orgID string, webhook *promptproof.Webhook) error
	Get(ctx context.Context, orgID, webhookID string) (*promptproof.Webhook, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*promptproof.Webhook, error)
	Update(ctx context.Context, orgID string, webhook *promptproof.Webhook) error
	Delete(ctx context.Context, orgID, webhookID string) error
	// RecordDelivery updates lastDelivery plus lastSuccess/lastFailure and
	// the consecutive-failure counter after a delivery attempt sequence.
	RecordDelivery(ctx context.Context, webhookID string, success bool, at time.Time) error
}

// ArtifactStore archives completed run records as JSON objects
type ArtifactStore interface {
	PutJSON(ctx context.Context, key string, data []byte) error
	GetPresignedURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
