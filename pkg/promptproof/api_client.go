package promptproof

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const DefaultAPIURL = "https://api.promptproof.dev"

// Client is the HTTP client for the PromptProof API
type Client struct {
	baseURL   string
	apiKey    string
	projectID string
	client    *http.Client
}

// NewClient creates a new PromptProof API client
func NewClient(apiKey, projectID string) *Client {
	return &Client{
		baseURL:   DefaultAPIURL,
		apiKey:    apiKey,
		projectID: projectID,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL points the client at a non-default API host
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// CreateSuite uploads a suite definition
func (c *Client) CreateSuite(ctx context.Context, suite TestSuite) error {
	url := fmt.Sprintf("%s/v1/projects/%s/suites", c.baseURL, c.projectID)
	return c.post(ctx, url, suite, nil)
}

// GetTestRun retrieves a persisted run record
func (c *Client) GetTestRun(ctx context.Context, suiteID, runID string) (*TestRun, error) {
	url := fmt.Sprintf("%s/v1/projects/%s/suites/%s/runs/%s", c.baseURL, c.projectID, suiteID, runID)
	var run TestRun
	err := c.get(ctx, url, &run)
	return &run, err
}

// CompareRuns compares a candidate run against a baseline run
func (c *Client) CompareRuns(ctx context.Context, suiteID, candidateRunID, baselineRunID string) (*ComparisonResult, error) {
	url := fmt.Sprintf("%s/v1/projects/%s/suites/%s/runs/%s/compare/%s",
		c.baseURL, c.projectID, suiteID, candidateRunID, baselineRunID)
	var result ComparisonResult
	err := c.get(ctx, url, &result)
	return &result, err
}

// Helper methods
func (c *Client) post(ctx context.Context, url string, payload interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error: %s", resp.Status)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
