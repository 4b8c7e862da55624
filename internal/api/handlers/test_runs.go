// SPDX-License-Identifier: LicenseRef-PromptProof-Proprietary

package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptproof-ai/promptproof-be/internal/engine/compare"
	"github.com/promptproof-ai/promptproof-be/internal/engine/runner"
	"github.com/promptproof-ai/promptproof-be/internal/settings"
	"github.com/promptproof-ai/promptproof-be/internal/storage"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

const (
	heartbeatInterval = 15 * time.Second
	persistTimeout    = 10 * time.Second
	artifactURLExpiry = 15 * time.Minute
)

type TestRunHandler struct {
	suiteRepo   storage.SuiteRepository
	testRunRepo storage.TestRunRepository
	runner      *runner.Runner
	settings    *settings.Service
	artifacts   storage.ArtifactStore
}

func NewTestRunHandler(suiteRepo storage.SuiteRepository, testRunRepo storage.TestRunRepository, r *runner.Runner, settingsService *settings.Service, artifacts storage.ArtifactStore) *TestRunHandler {
	return &TestRunHandler{
		suiteRepo:   suiteRepo,
		testRunRepo: testRunRepo,
		runner:      r,
		settings:    settingsService,
		artifacts:   artifacts,
	}
}

// StartRun executes a suite and streams progress as Server-Sent Events.
// The stream carries connected, progress, result and heartbeat events
// and always ends with a single complete or error event. Disconnecting
// cancels dispatch of new test cases; in-flight cases finish and the
// run record is persisted regardless.
// @Summary Start a test run
// @Description Execute a suite and stream progress as SSE. The run record is persisted when the stream ends.
// @Tags runs
// @Accept json
// @Produce text/event-stream
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Param suiteID path string true "Suite ID"
// @Param request body types.StartRunRequest false "Run options"
// @Success 200 {string} string "SSE stream"
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /projects/{projectID}/suites/{suiteID}/runs [post]
func (h *TestRunHandler) StartRun(c *gin.Context) {
	projectID := c.Param("projectID")
	suiteID := c.Param("suiteID")

	var req struct {
		Iterations    int                        `json:"iterations"`
		Tags          []string                   `json:"tags"`
		Concurrency   int                        `json:"concurrency"`
		ModelOverride *promptproof.ModelOverride `json:"model_override"`
		Note          string                     `json:"note"`
	}

	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid run options",
			},
		})
		return
	}

	suite, err := h.suiteRepo.Get(c.Request.Context(), projectID, suiteID)
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Suite not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch suite",
			},
		})
		return
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		if orgID := c.GetString("organization_id"); orgID != "" {
			if n, err := h.settings.MaxConcurrentTests(c.Request.Context(), orgID); err == nil && n > 0 {
				concurrency = n
			}
		}
	}
	if concurrency <= 0 {
		concurrency = runner.DefaultConcurrency
	}

	opts := runner.Options{
		Iterations:    req.Iterations,
		TagFilter:     req.Tags,
		Concurrency:   concurrency,
		ModelOverride: req.ModelOverride,
		Note:          req.Note,
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	events := make(chan runner.Event, 64)

	var run *promptproof.TestRun
	done := make(chan struct{})
	go func() {
		defer close(done)
		run = h.runner.Execute(c.Request.Context(), projectID, suite, opts, events)
	}()

	h.streamEvents(c, events)
	<-done

	// The request context may already be gone; persistence gets its own.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := h.testRunRepo.Create(ctx, projectID, run); err != nil {
		log.Printf("Failed to persist run %s: %v", run.RunID, err)
		return
	}

	h.archiveRun(ctx, projectID, run)
}

// streamEvents forwards runner events to the SSE response until the
// channel closes. The channel is always drained fully so the runner can
// finish even after the client goes away; writes just stop.
func (h *TestRunHandler) streamEvents(c *gin.Context, events <-chan runner.Event) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	clientGone := c.Request.Context().Done()
	writable := true

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !writable {
				continue
			}
			c.SSEvent(string(ev.Type), ev.Payload())
			c.Writer.Flush()
		case <-ticker.C:
			if !writable {
				continue
			}
			c.SSEvent(string(promptproof.StreamHeartbeat), gin.H{})
			c.Writer.Flush()
		case <-clientGone:
			writable = false
			clientGone = nil
		}
	}
}

// archiveRun writes the full run record to the artifact store. Archive
// failures are logged, never surfaced; Postgres stays the source of
// truth.
func (h *TestRunHandler) archiveRun(ctx context.Context, projectID string, run *promptproof.TestRun) {
	if h.artifacts == nil {
		return
	}

	data, err := json.Marshal(run)
	if err != nil {
		log.Printf("Failed to marshal run %s for archive: %v", run.RunID, err)
		return
	}

	key := artifactKey(projectID, run.SuiteID, run.RunID)
	if err := h.artifacts.PutJSON(ctx, key, data); err != nil {
		log.Printf("Failed to archive run %s: %v", run.RunID, err)
	}
}

func artifactKey(projectID, suiteID, runID string) string {
	return "runs/" + projectID + "/" + suiteID + "/" + runID + ".json"
}

// ListRuns returns a paginated list of runs for a suite
func (h *TestRunHandler) ListRuns(c *gin.Context) {
	projectID := c.Param("projectID")
	suiteID := c.Param("suiteID")
	limit, offset := paginationParams(c)

	runs, err := h.testRunRepo.ListBySuite(c.Request.Context(), projectID, suiteID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch runs",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun returns a single run record
func (h *TestRunHandler) GetRun(c *gin.Context) {
	projectID := c.Param("projectID")
	runID := c.Param("runID")

	run, err := h.testRunRepo.Get(c.Request.Context(), projectID, runID)
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Run not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch run",
			},
		})
		return
	}

	c.JSON(http.StatusOK, run)
}

// UpdateRunNote changes the note on a completed run. Everything else on
// a run record is immutable.
func (h *TestRunHandler) UpdateRunNote(c *gin.Context) {
	projectID := c.Param("projectID")
	runID := c.Param("runID")

	var req struct {
		Note string `json:"note" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "note is required",
			},
		})
		return
	}

	if err := h.testRunRepo.UpdateNote(c.Request.Context(), projectID, runID, req.Note); err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Run not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to update run note",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CompareRuns compares a run against a baseline. The baseline query
// parameter picks an explicit run; without it the comparison falls back
// to the most recent completed run before this one.
// @Summary Compare two runs
// @Tags runs
// @Produce json
// @Security BearerAuth
// @Param projectID path string true "Project ID"
// @Param runID path string true "Candidate run ID"
// @Param baseline query string false "Baseline run ID"
// @Success 200 {object} promptproof.ComparisonResult
// @Failure 404 {object} types.ErrorResponse
// @Router /projects/{projectID}/runs/{runID}/compare [get]
func (h *TestRunHandler) CompareRuns(c *gin.Context) {
	projectID := c.Param("projectID")
	runID := c.Param("runID")

	candidate, err := h.testRunRepo.Get(c.Request.Context(), projectID, runID)
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Run not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch run",
			},
		})
		return
	}

	var baseline *promptproof.TestRun
	if baselineID := c.Query("baseline"); baselineID != "" {
		baseline, err = h.testRunRepo.Get(c.Request.Context(), projectID, baselineID)
	} else {
		baseline, err = h.testRunRepo.LatestCompletedBefore(c.Request.Context(), projectID, candidate.SuiteID, candidate.RunAt)
	}
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Baseline run not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch baseline run",
			},
		})
		return
	}

	c.JSON(http.StatusOK, compare.Compare(baseline, candidate))
}

// GetRunArtifact returns a presigned URL for the archived run record
func (h *TestRunHandler) GetRunArtifact(c *gin.Context) {
	projectID := c.Param("projectID")
	runID := c.Param("runID")

	if h.artifacts == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Run archival is not configured",
			},
		})
		return
	}

	run, err := h.testRunRepo.Get(c.Request.Context(), projectID, runID)
	if err != nil {
		if err == storage.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Run not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to fetch run",
			},
		})
		return
	}

	url, err := h.artifacts.GetPresignedURL(c.Request.Context(), artifactKey(projectID, run.SuiteID, run.RunID), artifactURLExpiry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to generate artifact URL",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"expires_in": int(artifactURLExpiry.Seconds()),
	})
}
