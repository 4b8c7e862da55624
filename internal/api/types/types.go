package types

import (
	"time"

	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

// Error represents an API error response
type Error struct {
	Code    string `json:"code" example:"INVALID_REQUEST"`
	Message string `json:"message" example:"Invalid request parameters"`
}

// ErrorResponse wraps an error
type ErrorResponse struct {
	Error Error `json:"error"`
}

// CreateOrganizationRequest represents a request to create an organization
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required" example:"My Company"`
	Slug string `json:"slug" binding:"required" example:"my-company"`
	Tier string `json:"tier" binding:"required,oneof=starter team enterprise" example:"starter"`
}

// Organization represents an organization
type Organization struct {
	ID                 string    `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Name               string    `json:"name" example:"My Company"`
	Slug               string    `json:"slug" example:"my-company"`
	Tier               string    `json:"tier" example:"starter"`
	MaxConcurrentTests int       `json:"max_concurrent_tests" example:"3"`
	MonthlyRunLimit    int64     `json:"monthly_run_limit" example:"1000"`
	MonthlyRunCount    int64     `json:"monthly_run_count" example:"42"`
	UsageResetAt       time.Time `json:"usage_reset_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UpdateExecutionSettingsRequest changes how runs for the organization
// are executed
type UpdateExecutionSettingsRequest struct {
	MaxConcurrentTests int `json:"max_concurrent_tests" binding:"required,min=1,max=20" example:"5"`
}

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	OrganizationID string `json:"organization_id,omitempty"`
	Name           string `json:"name" binding:"required" example:"Chatbot"`
	Slug           string `json:"slug" binding:"required" example:"chatbot"`
}

// CreateAPIKeyRequest represents a request to create an API key
type CreateAPIKeyRequest struct {
	Name      string     `json:"name" binding:"required" example:"CI key"`
	Tier      string     `json:"tier" binding:"required" example:"starter"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// APIKeyResponse represents an API key response
type APIKeyResponse struct {
	ID           string     `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Name         string     `json:"name" example:"CI key"`
	KeyPrefix    string     `json:"key_prefix" example:"pp_live_abc123"`
	Tier         string     `json:"tier" example:"starter"`
	RateLimitRPM int        `json:"rate_limit_rpm" example:"60"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

// CreateAPIKeyResponse includes the secret (only returned once)
type CreateAPIKeyResponse struct {
	APIKey APIKeyResponse `json:"api_key"`
	Secret string         `json:"secret" example:"pp_live_abcdefghijklmnopqrstuvwxyz123456"`
}

// StartRunRequest configures a test run. Zero values fall back to the
// suite's defaults.
type StartRunRequest struct {
	Iterations    int                        `json:"iterations,omitempty" example:"1"`
	Tags          []string                   `json:"tags,omitempty"`
	Concurrency   int                        `json:"concurrency,omitempty" example:"3"`
	ModelOverride *promptproof.ModelOverride `json:"model_override,omitempty"`
	Note          string                     `json:"note,omitempty" example:"nightly"`
}

// UpdateRunNoteRequest changes the free-form note on a completed run
type UpdateRunNoteRequest struct {
	Note string `json:"note" binding:"required" example:"baseline before prompt change"`
}

// CreateWebhookRequest registers a webhook endpoint
type CreateWebhookRequest struct {
	URL              string   `json:"url" binding:"required,url"`
	Secret           string   `json:"secret" binding:"required,min=16"`
	Events           []string `json:"events" binding:"required,min=1"`
	SuiteIDs         []string `json:"suite_ids,omitempty"`
	OnlyOnFailure    bool     `json:"only_on_failure,omitempty"`
	OnlyOnRegression bool     `json:"only_on_regression,omitempty"`
	RetryCount       *int     `json:"retry_count,omitempty"`
	RetryDelayMS     *int     `json:"retry_delay_ms,omitempty"`
}

// UpdateWebhookRequest updates a webhook registration. Secret rotation
// goes through the same endpoint; an empty secret keeps the old one.
type UpdateWebhookRequest struct {
	URL              string   `json:"url" binding:"required,url"`
	Secret           string   `json:"secret,omitempty"`
	Events           []string `json:"events" binding:"required,min=1"`
	SuiteIDs         []string `json:"suite_ids,omitempty"`
	OnlyOnFailure    bool     `json:"only_on_failure,omitempty"`
	OnlyOnRegression bool     `json:"only_on_regression,omitempty"`
	RetryCount       *int     `json:"retry_count,omitempty"`
	RetryDelayMS     *int     `json:"retry_delay_ms,omitempty"`
	Status           string   `json:"status,omitempty" binding:"omitempty,oneof=active inactive"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}
