package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptproof-ai/promptproof-be/internal/storage"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

// fakeClock never sleeps and records every requested delay
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	delays []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

type deliveryRecord struct {
	webhookID string
	success   bool
}

type fakeWebhookRepo struct {
	mu         sync.Mutex
	hooks      []*promptproof.Webhook
	deliveries []deliveryRecord
}

func (f *fakeWebhookRepo) Create(context.Context, string, *promptproof.Webhook) error { return nil }
func (f *fakeWebhookRepo) Get(context.Context, string, string) (*promptproof.Webhook, error) {
	return nil, storage.ErrNotFound
}
func (f *fakeWebhookRepo) ListByOrganization(context.Context, string) ([]*promptproof.Webhook, error) {
	return f.hooks, nil
}
func (f *fakeWebhookRepo) Update(context.Context, string, *promptproof.Webhook) error { return nil }
func (f *fakeWebhookRepo) Delete(context.Context, string, string) error               { return nil }
func (f *fakeWebhookRepo) RecordDelivery(_ context.Context, webhookID string, success bool, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, deliveryRecord{webhookID, success})
	return nil
}

func (f *fakeWebhookRepo) recorded() []deliveryRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]deliveryRecord(nil), f.deliveries...)
}

type fakeRunRepo struct {
	baseline *promptproof.TestRun
}

func (f *fakeRunRepo) Create(context.Context, string, *promptproof.TestRun) error { return nil }
func (f *fakeRunRepo) Get(context.Context, string, string) (*promptproof.TestRun, error) {
	return nil, storage.ErrNotFound
}
func (f *fakeRunRepo) ListBySuite(context.Context, string, string, int, int) ([]*promptproof.TestRun, error) {
	return nil, nil
}
func (f *fakeRunRepo) UpdateNote(context.Context, string, string, string) error { return nil }
func (f *fakeRunRepo) LatestCompletedBefore(context.Context, string, string, time.Time) (*promptproof.TestRun, error) {
	if f.baseline == nil {
		return nil, storage.ErrNotFound
	}
	return f.baseline, nil
}

type fakeProjectRepo struct{}

func (fakeProjectRepo) Create(context.Context, *storage.Project) error { return nil }
func (fakeProjectRepo) Get(_ context.Context, id string) (*storage.Project, error) {
	return &storage.Project{ID: id, OrganizationID: "org-1"}, nil
}
func (fakeProjectRepo) ListByOrganization(context.Context, string) ([]*storage.Project, error) {
	return nil, nil
}

func newDispatcher(hooks *fakeWebhookRepo, runs *fakeRunRepo) (*Dispatcher, *fakeClock) {
	clock := newFakeClock()
	d := NewDispatcher(hooks, runs, fakeProjectRepo{}).WithClock(clock)
	return d, clock
}

func hook(url string) *promptproof.Webhook {
	return &promptproof.Webhook{
		ID:           "wh-1",
		URL:          url,
		Secret:       "topsecret",
		Events:       []promptproof.WebhookEvent{promptproof.EventRunCompleted, promptproof.EventRunFailed},
		RetryCount:   3,
		RetryDelayMS: 250,
		Status:       promptproof.WebhookActive,
	}
}

func completedRun(failed int) *promptproof.TestRun {
	run := &promptproof.TestRun{
		RunID:   "run-1",
		SuiteID: "suite-1",
		RunAt:   time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
		Status:  promptproof.RunStatusCompleted,
	}
	for i := 0; i < 3; i++ {
		run.Results = append(run.Results, promptproof.TestResult{
			TestCaseID:       string(rune('a' + i)),
			ValidationPassed: i >= failed,
		})
	}
	run.Summarize()
	return run
}

func TestDeliver_SignsPayload(t *testing.T) {
	var gotSignature, gotEvent string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-PromptProof-Signature")
		gotEvent = r.Header.Get("X-PromptProof-Event")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	repo := &fakeWebhookRepo{}
	d, _ := newDispatcher(repo, &fakeRunRepo{})

	ok := d.Deliver(context.Background(), hook(server.URL), &promptproof.WebhookPayload{
		Event: promptproof.EventRunCompleted,
		RunID: "run-1",
	})
	require.True(t, ok)

	// consumer-side verification: recompute HMAC over the raw body
	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(gotBody)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), gotSignature)
	assert.Equal(t, "test.run.completed", gotEvent)
	assert.True(t, strings.Contains(string(gotBody), `"run_id":"run-1"`))
}

func TestDeliver_UniqueDeliveryID(t *testing.T) {
	var ids []string
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		ids = append(ids, r.Header.Get("X-PromptProof-Delivery"))
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer server.Close()

	d, _ := newDispatcher(&fakeWebhookRepo{}, &fakeRunRepo{})
	payload := &promptproof.WebhookPayload{Event: promptproof.EventRunCompleted}

	require.True(t, d.Deliver(context.Background(), hook(server.URL), payload))
	require.True(t, d.Deliver(context.Background(), hook(server.URL), payload))

	require.Len(t, ids, 3)
	// a retry reuses its delivery's ID so consumers can deduplicate
	assert.Equal(t, ids[0], ids[1])
	assert.NotEqual(t, ids[0], ids[2])
	for _, id := range ids {
		_, err := uuid.Parse(id)
		assert.NoError(t, err, "delivery ID %q is not a uuid", id)
	}
}

func TestDeliver_RetryBound(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := &fakeWebhookRepo{}
	d, clock := newDispatcher(repo, &fakeRunRepo{})

	ok := d.Deliver(context.Background(), hook(server.URL), &promptproof.WebhookPayload{Event: promptproof.EventRunCompleted})

	assert.False(t, ok)
	// retryCount=3 means at most 4 attempts total
	assert.Equal(t, 4, attempts)
	// each retry spaced by the configured fixed delay
	require.Len(t, clock.delays, 3)
	for _, delay := range clock.delays {
		assert.Equal(t, 250*time.Millisecond, delay)
	}

	records := repo.recorded()
	require.Len(t, records, 1)
	assert.False(t, records[0].success)
}

func TestDeliver_EventualSuccess(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
	}))
	defer server.Close()

	repo := &fakeWebhookRepo{}
	d, _ := newDispatcher(repo, &fakeRunRepo{})

	ok := d.Deliver(context.Background(), hook(server.URL), &promptproof.WebhookPayload{Event: promptproof.EventRunCompleted})

	assert.True(t, ok)
	assert.Equal(t, 3, attempts)

	records := repo.recorded()
	require.Len(t, records, 1)
	assert.True(t, records[0].success)
}

func TestDeliver_NetworkFailure(t *testing.T) {
	repo := &fakeWebhookRepo{}
	d, _ := newDispatcher(repo, &fakeRunRepo{})

	h := hook("http://127.0.0.1:1/unreachable")
	h.RetryCount = 1

	ok := d.Deliver(context.Background(), h, &promptproof.WebhookPayload{Event: promptproof.EventRunCompleted})
	assert.False(t, ok)

	records := repo.recorded()
	require.Len(t, records, 1)
	assert.False(t, records[0].success)
}

func TestNotifyRunFinished_EventAndFilterMatrix(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(h *promptproof.Webhook)
		run         *promptproof.TestRun
		wantDeliver bool
	}{
		{
			name:        "completed run delivers",
			mutate:      func(h *promptproof.Webhook) {},
			run:         completedRun(0),
			wantDeliver: true,
		},
		{
			name:        "inactive webhook is skipped",
			mutate:      func(h *promptproof.Webhook) { h.Status = promptproof.WebhookInactive },
			run:         completedRun(0),
			wantDeliver: false,
		},
		{
			name:        "unsubscribed event is skipped",
			mutate:      func(h *promptproof.Webhook) { h.Events = []promptproof.WebhookEvent{promptproof.EventRunFailed} },
			run:         completedRun(0),
			wantDeliver: false,
		},
		{
			name:        "suite scope mismatch is skipped",
			mutate:      func(h *promptproof.Webhook) { h.SuiteIDs = []string{"another-suite"} },
			run:         completedRun(0),
			wantDeliver: false,
		},
		{
			name:        "suite scope match delivers",
			mutate:      func(h *promptproof.Webhook) { h.SuiteIDs = []string{"suite-1"} },
			run:         completedRun(0),
			wantDeliver: true,
		},
		{
			name:        "onlyOnFailure suppresses clean run",
			mutate:      func(h *promptproof.Webhook) { h.OnlyOnFailure = true },
			run:         completedRun(0),
			wantDeliver: false,
		},
		{
			name:        "onlyOnFailure lets failing cases through",
			mutate:      func(h *promptproof.Webhook) { h.OnlyOnFailure = true },
			run:         completedRun(1),
			wantDeliver: true,
		},
		{
			name:        "onlyOnRegression suppresses without baseline",
			mutate:      func(h *promptproof.Webhook) { h.OnlyOnRegression = true },
			run:         completedRun(1),
			wantDeliver: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var delivered int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				delivered++
			}))
			defer server.Close()

			h := hook(server.URL)
			tt.mutate(h)

			repo := &fakeWebhookRepo{hooks: []*promptproof.Webhook{h}}
			d, _ := newDispatcher(repo, &fakeRunRepo{})

			d.NotifyRunFinished(context.Background(), "proj-1", nil, tt.run)

			if tt.wantDeliver {
				assert.Equal(t, 1, delivered)
			} else {
				assert.Zero(t, delivered)
			}
		})
	}
}

func TestNotifyRunFinished_RegressionAgainstPreviousRun(t *testing.T) {
	var events []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		events = append(events, r.Header.Get("X-PromptProof-Event"))
		mu.Unlock()
	}))
	defer server.Close()

	h := hook(server.URL)
	h.Events = append(h.Events, promptproof.EventRegressionDetected)

	// baseline passed everything; candidate fails one case
	baseline := completedRun(0)
	baseline.RunID = "run-0"
	candidate := completedRun(1)

	repo := &fakeWebhookRepo{hooks: []*promptproof.Webhook{h}}
	d, _ := newDispatcher(repo, &fakeRunRepo{baseline: baseline})

	d.NotifyRunFinished(context.Background(), "proj-1", nil, candidate)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"test.run.completed", "test.regression.detected"}, events)
}

func TestNotifyRunFinished_FailedRunEvent(t *testing.T) {
	var gotEvent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = r.Header.Get("X-PromptProof-Event")
	}))
	defer server.Close()

	repo := &fakeWebhookRepo{hooks: []*promptproof.Webhook{hook(server.URL)}}
	d, _ := newDispatcher(repo, &fakeRunRepo{})

	run := completedRun(0)
	run.Status = promptproof.RunStatusFailed

	d.NotifyRunFinished(context.Background(), "proj-1", nil, run)
	assert.Equal(t, "test.run.failed", gotEvent)
}

func TestSendTest_DeliversPing(t *testing.T) {
	var gotEvent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = r.Header.Get("X-PromptProof-Event")
	}))
	defer server.Close()

	repo := &fakeWebhookRepo{}
	d, _ := newDispatcher(repo, &fakeRunRepo{})

	ok := d.SendTest(context.Background(), hook(server.URL))
	assert.True(t, ok)
	assert.Equal(t, "test.ping", gotEvent)
}
