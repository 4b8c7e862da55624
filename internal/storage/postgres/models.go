// SPDX-License-Identifier: LicenseRef-PromptProof-Proprietary

package postgres

import (
	"time"

	"github.com/uptrace/bun"
)

// DBAPIKey represents an API key in the database
type DBAPIKey struct {
	bun.BaseModel `bun:"table:api_keys,alias:ak"`

	ID             string     `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	OrganizationID string     `bun:"organization_id,type:uuid,notnull"`
	KeyHash        string     `bun:"key_hash,notnull,unique"`
	KeyPrefix      string     `bun:"key_prefix,notnull"`
	Name           string     `bun:"name"`
	Tier           string     `bun:"tier,notnull"`
	RateLimitRPM   int        `bun:"rate_limit_rpm,notnull"`
	LastUsedAt     *time.Time `bun:"last_used_at"`
	ExpiresAt      *time.Time `bun:"expires_at"`
	CreatedAt      time.Time  `bun:"created_at,notnull,default:now()"`
	RevokedAt      *time.Time `bun:"revoked_at"`
}

// DBOrganization represents an organization in the database
type DBOrganization struct {
	bun.BaseModel `bun:"table:organizations,alias:o"`

	ID                 string     `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name               string     `bun:"name,notnull"`
	Slug               string     `bun:"slug,notnull,unique"`
	Tier               string     `bun:"tier,notnull"`
	MaxConcurrentTests int        `bun:"max_concurrent_tests,notnull,default:3"`
	MonthlyRunLimit    int64      `bun:"monthly_run_limit,notnull,default:1000"`
	MonthlyRunCount    int64      `bun:"monthly_run_count,notnull,default:0"`
	UsageResetAt       time.Time  `bun:"usage_reset_at,notnull"`
	CreatedAt          time.Time  `bun:"created_at,notnull,default:now()"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull,default:now()"`
	DeletedAt          *time.Time `bun:"deleted_at,soft_delete"`
}

// DBProject represents a project in the database
type DBProject struct {
	bun.BaseModel `bun:"table:projects,alias:p"`

	ID             string     `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	OrganizationID string     `bun:"organization_id,type:uuid,notnull"`
	Name           string     `bun:"name,notnull"`
	Slug           string     `bun:"slug,notnull"`
	CreatedAt      time.Time  `bun:"created_at,notnull,default:now()"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull,default:now()"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete"`
}

// DBSuite represents a test suite definition in the database. Target,
// cases, rules and judge config are stored as JSONB documents since the
// engine consumes them whole.
type DBSuite struct {
	bun.BaseModel `bun:"table:suites,alias:s"`

	ID          string     `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	ProjectID   string     `bun:"project_id,type:uuid,notnull"`
	SuiteID     string     `bun:"suite_id,notnull"`
	Name        string     `bun:"name,notnull"`
	Description string     `bun:"description"`
	Target      []byte     `bun:"target,type:jsonb,notnull"`
	Cases       []byte     `bun:"cases,type:jsonb,notnull"`
	Rules       []byte     `bun:"rules,type:jsonb"`
	Judge       []byte     `bun:"judge,type:jsonb"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:now()"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:now()"`
	DeletedAt   *time.Time `bun:"deleted_at,soft_delete"`
}

// DBTestRun represents a completed test run in the database
type DBTestRun struct {
	bun.BaseModel `bun:"table:test_runs,alias:tr"`

	ID                string     `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	ProjectID         string     `bun:"project_id,type:uuid,notnull"`
	SuiteID           string     `bun:"suite_id,notnull"`
	RunID             string     `bun:"run_id,notnull"`
	RunAt             time.Time  `bun:"run_at,notnull"`
	Status            string     `bun:"status,notnull"`
	Note              string     `bun:"note"`
	Iterations        int        `bun:"iterations,notnull,default:1"`
	TagFilter         []string   `bun:"tag_filter,array"`
	ModelOverride     []byte     `bun:"model_override,type:jsonb"`
	TotalCases        int        `bun:"total_cases,notnull"`
	PassedCases       int        `bun:"passed_cases,notnull"`
	FailedCases       int        `bun:"failed_cases,notnull"`
	AvgScore          *float64   `bun:"avg_score"`
	AvgResponseTimeMS float64    `bun:"avg_response_time_ms,notnull,default:0"`
	Results           []byte     `bun:"results,type:jsonb,notnull"`
	CreatedAt         time.Time  `bun:"created_at,notnull,default:now()"`
	DeletedAt         *time.Time `bun:"deleted_at,soft_delete"`
}

// DBWebhook represents a webhook subscription in the database
type DBWebhook struct {
	bun.BaseModel `bun:"table:webhooks,alias:wh"`

	ID                  string     `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	OrganizationID      string     `bun:"organization_id,type:uuid,notnull"`
	URL                 string     `bun:"url,notnull"`
	Secret              string     `bun:"secret,notnull"`
	Events              []string   `bun:"events,array,notnull"`
	SuiteIDs            []string   `bun:"suite_ids,array"`
	OnlyOnFailure       bool       `bun:"only_on_failure,notnull,default:false"`
	OnlyOnRegression    bool       `bun:"only_on_regression,notnull,default:false"`
	RetryCount          int        `bun:"retry_count,notnull,default:3"`
	RetryDelayMS        int        `bun:"retry_delay_ms,notnull,default:5000"`
	Status              string     `bun:"status,notnull,default:'active'"`
	ConsecutiveFailures int        `bun:"consecutive_failures,notnull,default:0"`
	LastDelivery        *time.Time `bun:"last_delivery"`
	LastSuccess         *time.Time `bun:"last_success"`
	LastFailure         *time.Time `bun:"last_failure"`
	CreatedAt           time.Time  `bun:"created_at,notnull,default:now()"`
	UpdatedAt           time.Time  `bun:"updated_at,notnull,default:now()"`
	DeletedAt           *time.Time `bun:"deleted_at,soft_delete"`
}
