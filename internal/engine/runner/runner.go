// Package runner orchestrates a test run: it expands a suite's test
// cases into a (case x iteration) work list, drives each item through
// the target invoker and the evaluators with bounded concurrency,
// streams live events, and assembles the final run record.
package runner

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/promptproof-ai/promptproof-be/internal/engine/invoker"
	"github.com/promptproof-ai/promptproof-be/internal/engine/judge"
	"github.com/promptproof-ai/promptproof-be/internal/engine/rules"
	"github.com/promptproof-ai/promptproof-be/internal/llm"
	"github.com/promptproof-ai/promptproof-be/pkg/promptproof"
)

// DefaultConcurrency bounds the worker pool when the caller supplies
// no explicit limit
const DefaultConcurrency = 3

// Options are the per-run knobs. Concurrency comes from organization
// settings and is passed explicitly so the engine carries no global
// state.
type Options struct {
	Iterations    int
	TagFilter     []string
	Concurrency   int
	ModelOverride *promptproof.ModelOverride
	Note          string
}

// Notifier receives the finished run record for fire-and-forget
// delivery (webhooks). It must never block run completion.
type Notifier interface {
	NotifyRunFinished(ctx context.Context, projectID string, suite *promptproof.TestSuite, run *promptproof.TestRun)
}

// Runner executes test suites
type Runner struct {
	provider llm.CompletionProvider
	notifier Notifier
}

func New(provider llm.CompletionProvider, notifier Notifier) *Runner {
	return &Runner{provider: provider, notifier: notifier}
}

type workItem struct {
	index     int
	testCase  *promptproof.TestCase
	iteration int
}

// Execute runs the suite and returns the assembled run record. Events
// are written to the events channel, which is closed after the terminal
// event. The run status is "failed" only when the configuration is
// invalid before dispatch or the context is cancelled mid-run;
// failing test cases are a normal outcome of a "completed" run.
func (r *Runner) Execute(ctx context.Context, projectID string, suite *promptproof.TestSuite, opts Options, events chan<- Event) *promptproof.TestRun {
	defer close(events)

	run := &promptproof.TestRun{
		RunID:         uuid.NewString(),
		SuiteID:       suite.SuiteID,
		RunAt:         time.Now().UTC(),
		Status:        promptproof.RunStatusRunning,
		Note:          opts.Note,
		Iterations:    opts.Iterations,
		TagFilter:     opts.TagFilter,
		ModelOverride: opts.ModelOverride,
		Results:       []promptproof.TestResult{},
	}
	if run.Iterations < 1 {
		run.Iterations = 1
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	items := expandWorkList(suite, run.Iterations, opts.TagFilter)
	total := len(items)

	// The connected event opens every stream, even one that aborts
	// on a configuration fault before dispatch.
	events <- Event{
		Type: promptproof.StreamConnected,
		Connected: &promptproof.ConnectedEvent{
			RunID:     run.RunID,
			Total:     total,
			Timestamp: time.Now().UTC(),
		},
	}

	inv, err := invoker.New(suite.Target, r.provider)
	if err != nil {
		return r.abort(events, run, "INVALID_TARGET", err.Error())
	}

	var judgeEval *judge.Evaluator
	if suite.Judge != nil && suite.Judge.Enabled {
		if len(suite.Judge.Criteria) == 0 {
			return r.abort(events, run, "INVALID_JUDGE_CONFIG", "judge is enabled but has no scoring criteria")
		}
		judgeEval = judge.NewEvaluator(r.provider)
	}

	// In-flight items are allowed to finish after cancellation, so the
	// work itself runs on a detached context; ctx only gates dispatch.
	workCtx := context.WithoutCancel(ctx)

	results := make([]*promptproof.TestResult, total)

	var mu sync.Mutex
	var started int

	var g errgroup.Group
	g.SetLimit(concurrency)

	var cancelled atomic.Bool
	for _, item := range items {
		if ctx.Err() != nil {
			cancelled.Store(true)
			break
		}

		item := item
		g.Go(func() error {
			// A worker may have been queued before cancellation hit;
			// it must not start new work.
			if ctx.Err() != nil {
				cancelled.Store(true)
				return nil
			}

			mu.Lock()
			started++
			current := started
			mu.Unlock()

			events <- Event{
				Type: promptproof.StreamProgress,
				Progress: &promptproof.ProgressEvent{
					Current:      current,
					Total:        total,
					Iteration:    item.iteration,
					TestCaseID:   item.testCase.ID,
					TestCaseName: item.testCase.Name,
				},
			}

			result := r.runItem(workCtx, inv, judgeEval, suite, item, opts.ModelOverride)
			results[item.index] = result

			events <- Event{Type: promptproof.StreamResult, Result: result}
			return nil
		})
	}

	g.Wait()

	// Re-sort completion-ordered emissions into canonical (case,
	// iteration) order for the persisted record.
	for _, result := range results {
		if result != nil {
			run.Results = append(run.Results, *result)
		}
	}
	run.Summarize()

	streamStatus := "completed"
	if cancelled.Load() {
		run.Status = promptproof.RunStatusFailed
		streamStatus = "incomplete"
		log.Printf("Run %s cancelled after %d/%d results", run.RunID, len(run.Results), total)
	} else {
		run.Status = promptproof.RunStatusCompleted
	}

	events <- Event{
		Type: promptproof.StreamComplete,
		Complete: &promptproof.CompleteEvent{
			RunID:   run.RunID,
			Status:  streamStatus,
			TestRun: run,
		},
	}

	if r.notifier != nil {
		go r.notifier.NotifyRunFinished(workCtx, projectID, suite, run)
	}

	return run
}

// abort handles orchestration-level faults: the run transitions
// straight to failed without executing any case.
func (r *Runner) abort(events chan<- Event, run *promptproof.TestRun, code, message string) *promptproof.TestRun {
	run.Status = promptproof.RunStatusFailed
	run.Summarize()
	events <- Event{
		Type:  promptproof.StreamError,
		Error: &promptproof.ErrorEvent{Message: message, Code: code},
	}
	return run
}

// expandWorkList selects enabled cases matching the tag filter (OR
// semantics; empty filter selects everything) and repeats each one
// iterations times, in deterministic suite order.
func expandWorkList(suite *promptproof.TestSuite, iterations int, tagFilter []string) []workItem {
	var items []workItem
	index := 0
	for i := range suite.Cases {
		tc := &suite.Cases[i]
		if !tc.IsEnabled() || !matchesTags(tc, tagFilter) {
			continue
		}
		for iter := 0; iter < iterations; iter++ {
			items = append(items, workItem{index: index, testCase: tc, iteration: iter})
			index++
		}
	}
	return items
}

func matchesTags(tc *promptproof.TestCase, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, want := range filter {
		for _, tag := range tc.Tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

// runItem executes one (case, iteration) pair. Per-item faults are
// contained here and surfaced as data on the result.
func (r *Runner) runItem(ctx context.Context, inv invoker.Invoker, judgeEval *judge.Evaluator, suite *promptproof.TestSuite, item workItem, override *promptproof.ModelOverride) *promptproof.TestResult {
	result := &promptproof.TestResult{
		TestCaseID:   item.testCase.ID,
		TestCaseName: item.testCase.Name,
		Iteration:    item.iteration,
		Inputs:       item.testCase.Inputs,
	}

	invocation, err := inv.Invoke(ctx, item.testCase, override)
	if err != nil {
		result.Error = err.Error()
		result.ValidationPassed = false
		var invErr *invoker.Error
		if errors.As(err, &invErr) {
			result.ResponseTimeMS = invErr.ResponseTimeMS
		}
		return result
	}

	result.Output = invocation.Output
	result.ResponseTimeMS = invocation.ResponseTimeMS

	ruleResult := rules.Evaluate(suite.Rules, invocation.Output, invocation.ResponseTimeMS)
	result.ValidationPassed = ruleResult.Passed
	result.ValidationErrors = ruleResult.Errors
	result.ValidationWarnings = ruleResult.Warnings

	if judgeEval != nil {
		outcome, err := judgeEval.Evaluate(ctx, suite.Judge, item.testCase, invocation.Output)
		if err != nil {
			// Judge faults are recorded, excluded from aggregation, and
			// leave the deterministic verdict untouched.
			result.Error = "judge evaluation failed: " + err.Error()
			log.Printf("Judge evaluation failed for case %s: %v", item.testCase.ID, err)
			return result
		}
		score := outcome.Score
		passed := outcome.ValidationPassed
		result.JudgeScore = &score
		result.JudgeScores = outcome.Scores
		result.JudgeReasoning = outcome.Reasoning
		result.JudgeValidationPassed = &passed
		result.JudgeValidationErrors = outcome.Errors
		result.JudgeValidationWarnings = outcome.Warnings
	}

	return result
}
