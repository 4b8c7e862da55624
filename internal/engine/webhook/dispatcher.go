// Package webhook delivers signed run notifications to subscribed
// endpoints with bounded, fixed-delay retry. Delivery is fire-and-forget
// relative to the run itself and only ever reads completed, immutable
// run records.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/promptproof-ai/promptproof-be/internal/engine/compare"
	"github.com/promptproof-ai/promptproof-be/internal/storage"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

const (
	signatureHeader = "X-PromptProof-Signature"
	eventHeader     = "X-PromptProof-Event"
	deliveryHeader  = "X-PromptProof-Delivery"

	defaultRetryDelay = 5 * time.Second
	deliveryTimeout   = 10 * time.Second
)

// Clock abstracts time for deterministic retry tests
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now().UTC() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Dispatcher filters, signs and delivers webhook notifications
type Dispatcher struct {
	webhookRepo storage.WebhookRepository
	testRunRepo storage.TestRunRepository
	projectRepo storage.ProjectRepository
	client      *http.Client
	clock       Clock
}

func NewDispatcher(webhookRepo storage.WebhookRepository, testRunRepo storage.TestRunRepository, projectRepo storage.ProjectRepository) *Dispatcher {
	return &Dispatcher{
		webhookRepo: webhookRepo,
		testRunRepo: testRunRepo,
		projectRepo: projectRepo,
		client:      &http.Client{Timeout: deliveryTimeout},
		clock:       realClock{},
	}
}

// WithClock swaps the clock; tests use this to avoid real sleeps
func (d *Dispatcher) WithClock(clock Clock) *Dispatcher {
	d.clock = clock
	return d
}

// NotifyRunFinished implements runner.Notifier. It resolves the run's
// organization, determines which events fired, and delivers to every
// matching active webhook concurrently.
func (d *Dispatcher) NotifyRunFinished(ctx context.Context, projectID string, suite *promptproof.TestSuite, run *promptproof.TestRun) {
	project, err := d.projectRepo.Get(ctx, projectID)
	if err != nil {
		log.Printf("Webhook dispatch skipped: failed to resolve project %s: %v", projectID, err)
		return
	}

	webhooks, err := d.webhookRepo.ListByOrganization(ctx, project.OrganizationID)
	if err != nil {
		log.Printf("Webhook dispatch skipped: failed to list webhooks for org %s: %v", project.OrganizationID, err)
		return
	}
	if len(webhooks) == 0 {
		return
	}

	event := promptproof.EventRunCompleted
	if run.Status == promptproof.RunStatusFailed {
		event = promptproof.EventRunFailed
	}

	regression := d.detectRegression(ctx, projectID, run)

	payload := &promptproof.WebhookPayload{
		Event:       event,
		RunID:       run.RunID,
		SuiteID:     run.SuiteID,
		ProjectID:   projectID,
		Status:      run.Status,
		Summary:     &run.Summary,
		Regression:  regression,
		TriggeredAt: d.clock.Now(),
	}

	var wg sync.WaitGroup
	for _, hook := range webhooks {
		if hook.Status != promptproof.WebhookActive {
			continue
		}

		if hook.SubscribedTo(event, run.SuiteID) && passesFilters(hook, run, regression) {
			wg.Add(1)
			go func(hook *promptproof.Webhook) {
				defer wg.Done()
				d.Deliver(ctx, hook, payload)
			}(hook)
		}

		if regression != nil && hook.SubscribedTo(promptproof.EventRegressionDetected, run.SuiteID) {
			regressionPayload := *payload
			regressionPayload.Event = promptproof.EventRegressionDetected
			wg.Add(1)
			go func(hook *promptproof.Webhook) {
				defer wg.Done()
				d.Deliver(ctx, hook, &regressionPayload)
			}(hook)
		}
	}
	wg.Wait()
}

// SendTest fires a signed test.ping payload through the normal delivery
// path so consumers can verify their endpoint and secret.
func (d *Dispatcher) SendTest(ctx context.Context, hook *promptproof.Webhook) bool {
	return d.Deliver(ctx, hook, &promptproof.WebhookPayload{
		Event:       promptproof.EventPing,
		TriggeredAt: d.clock.Now(),
	})
}

// detectRegression compares the run against the immediately previous
// completed run of the same suite. Failed runs are never compared.
func (d *Dispatcher) detectRegression(ctx context.Context, projectID string, run *promptproof.TestRun) *promptproof.RegressionSummary {
	if run.Status != promptproof.RunStatusCompleted {
		return nil
	}

	baseline, err := d.testRunRepo.LatestCompletedBefore(ctx, projectID, run.SuiteID, run.RunAt)
	if err != nil {
		if err != storage.ErrNotFound {
			log.Printf("Regression check failed for run %s: %v", run.RunID, err)
		}
		return nil
	}

	comparison := compare.Compare(baseline, run)
	if !comparison.HasRegression() {
		return nil
	}

	return &promptproof.RegressionSummary{
		BaselineRunID: baseline.RunID,
		Regressed:     comparison.Regressed,
		Improved:      comparison.Improved,
		PassRateDelta: comparison.PassRateDelta,
	}
}

func passesFilters(hook *promptproof.Webhook, run *promptproof.TestRun, regression *promptproof.RegressionSummary) bool {
	if hook.OnlyOnFailure && run.Status != promptproof.RunStatusFailed && run.Summary.Failed == 0 {
		return false
	}
	if hook.OnlyOnRegression && regression == nil {
		return false
	}
	return true
}

// Deliver signs and posts the payload, retrying up to retryCount extra
// attempts with fixed retryDelayMs spacing, then records the final
// outcome on the webhook. Returns whether any attempt succeeded.
func (d *Dispatcher) Deliver(ctx context.Context, hook *promptproof.Webhook, payload *promptproof.WebhookPayload) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Webhook %s: failed to marshal payload: %v", hook.ID, err)
		return false
	}

	signature := Sign(hook.Secret, body)
	// One delivery ID spans all retry attempts of this payload so
	// consumers can deduplicate.
	deliveryID := uuid.NewString()
	attempts := 1 + hook.RetryCount
	delay := time.Duration(hook.RetryDelayMS) * time.Millisecond
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				d.record(hook, false)
				return false
			case <-d.clock.After(delay):
			}
		}

		lastErr = d.attempt(ctx, hook, payload.Event, deliveryID, body, signature)
		if lastErr == nil {
			d.record(hook, true)
			return true
		}
	}

	log.Printf("Webhook %s: delivery failed after %d attempts: %v", hook.ID, attempts, lastErr)
	d.record(hook, false)
	return false
}

func (d *Dispatcher) attempt(ctx context.Context, hook *promptproof.Webhook, event promptproof.WebhookEvent, deliveryID string, body []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signatureHeader, signature)
	req.Header.Set(eventHeader, string(event))
	req.Header.Set(deliveryHeader, deliveryID)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned %s", resp.Status)
	}
	return nil
}

func (d *Dispatcher) record(hook *promptproof.Webhook, success bool) {
	// bookkeeping runs on a fresh context: the run that triggered the
	// delivery may be long gone
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.webhookRepo.RecordDelivery(ctx, hook.ID, success, d.clock.Now()); err != nil {
		log.Printf("Webhook %s: failed to record delivery result: %v", hook.ID, err)
	}
}

// Sign computes the hex HMAC-SHA256 of body with the webhook secret.
// Consumers recompute it over the raw request body and compare.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
