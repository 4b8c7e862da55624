package promptproof

import "time"

// WebhookEvent names an event type a webhook can subscribe to
type WebhookEvent string

const (
	EventRunCompleted       WebhookEvent = "test.run.completed"
	EventRunFailed          WebhookEvent = "test.run.failed"
	EventRegressionDetected WebhookEvent = "test.regression.detected"
	EventPing               WebhookEvent = "test.ping"
)

// WebhookStatus marks a webhook as deliverable or paused
type WebhookStatus string

const (
	WebhookActive   WebhookStatus = "active"
	WebhookInactive WebhookStatus = "inactive"
)

// Webhook is a delivery subscription. Payloads are signed with an
// HMAC-SHA256 over the raw JSON body using Secret; consumers must verify
// the signature before trusting the payload.
type Webhook struct {
	ID                  string         `json:"id"`
	URL                 string         `json:"url"`
	Secret              string         `json:"-"`
	Events              []WebhookEvent `json:"events"`
	SuiteIDs            []string       `json:"suite_ids,omitempty"`
	OnlyOnFailure       bool           `json:"only_on_failure,omitempty"`
	OnlyOnRegression    bool           `json:"only_on_regression,omitempty"`
	RetryCount          int            `json:"retry_count"`
	RetryDelayMS        int            `json:"retry_delay_ms"`
	Status              WebhookStatus  `json:"status"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	LastDelivery        *time.Time     `json:"last_delivery,omitempty"`
	LastSuccess         *time.Time     `json:"last_success,omitempty"`
	LastFailure         *time.Time     `json:"last_failure,omitempty"`
}

// SubscribedTo reports whether the webhook wants the given event for the
// given suite. An empty suite scope matches every suite.
func (w *Webhook) SubscribedTo(event WebhookEvent, suiteID string) bool {
	subscribed := false
	for _, e := range w.Events {
		if e == event {
			subscribed = true
			break
		}
	}
	if !subscribed {
		return false
	}
	if len(w.SuiteIDs) == 0 || suiteID == "" {
		return true
	}
	for _, id := range w.SuiteIDs {
		if id == suiteID {
			return true
		}
	}
	return false
}

// RegressionSummary rides along on regression payloads
type RegressionSummary struct {
	BaselineRunID string  `json:"baseline_run_id"`
	Regressed     int     `json:"regressed"`
	Improved      int     `json:"improved"`
	PassRateDelta float64 `json:"pass_rate_delta"`
}

// WebhookPayload is the JSON body delivered to webhook endpoints
type WebhookPayload struct {
	Event       WebhookEvent       `json:"event"`
	RunID       string             `json:"run_id,omitempty"`
	SuiteID     string             `json:"suite_id,omitempty"`
	ProjectID   string             `json:"project_id,omitempty"`
	Status      RunStatus          `json:"status,omitempty"`
	Summary     *RunSummary        `json:"summary,omitempty"`
	Regression  *RegressionSummary `json:"regression,omitempty"`
	TriggeredAt time.Time          `json:"triggered_at"`
}
