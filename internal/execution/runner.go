package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TestCase is one input/expected-output pair fed to the runner.
type TestCase struct {
	ID             string `json:"id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Hidden         bool   `json:"is_hidden"`
	OrderIndex     int    `json:"order_index"`
}

// TestResult is the outcome of evaluating one TestCase during a run.
type TestResult struct {
	TestCaseID     string `json:"test_case_id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	ActualOutput   string `json:"actual_output"`
	Passed         bool   `json:"passed"`
	Hidden         bool   `json:"is_hidden"`
}

// CountPassed returns how many results passed.
func CountPassed(results []TestResult) int {
	passed := 0
	for _, result := range results {
		if result.Passed {
			passed++
		}
	}
	return passed
}

// RunnerConfig holds the artificial latency applied by the runner.
type RunnerConfig struct {
	CompileDelay time.Duration
	CaseDelay    time.Duration
}

// Runner drives the evaluator across test cases and narrates into a console.
type Runner struct {
	evaluator *Evaluator
	config    RunnerConfig
	logger    zerolog.Logger
	sleep     func(ctx context.Context, d time.Duration)
}

// NewRunner constructs a runner. Zero delays run without pausing.
func NewRunner(evaluator *Evaluator, cfg RunnerConfig, logger zerolog.Logger) *Runner {
	if evaluator == nil {
		evaluator = NewEvaluator()
	}
	return &Runner{
		evaluator: evaluator,
		config:    cfg,
		logger:    logger.With().Str("component", "execution_runner").Logger(),
		sleep:     pause,
	}
}

// RunSingle evaluates code against an arbitrary input.
func (r *Runner) RunSingle(ctx context.Context, console *Console, code, input string) Result {
	console.Append("> Running code...")
	r.sleep(ctx, r.config.CompileDelay)

	result := r.evaluator.Evaluate(code, input)
	if result.Failed() {
		console.Append("❌ " + result.Error)
	} else {
		console.Append(fmt.Sprintf("✓ Compiled successfully (%dms)", result.Elapsed.Round(time.Millisecond).Milliseconds()))
		console.Append("Output: " + result.Output)
	}

	r.logger.Debug().Bool("failed", result.Failed()).Dur("elapsed", result.Elapsed).Msg("single run finished")
	return result
}

// RunSuite evaluates every case in order. It never stops early, so the result
// slice always matches the input in length and order.
func (r *Runner) RunSuite(ctx context.Context, console *Console, code string, cases []TestCase) []TestResult {
	console.Clear()
	console.Append(fmt.Sprintf("> Running %d test case(s)...", len(cases)))

	results := make([]TestResult, 0, len(cases))
	for _, tc := range cases {
		r.sleep(ctx, r.config.CaseDelay)

		evaluated := r.evaluator.Evaluate(code, tc.Input)
		actual := strings.TrimSpace(evaluated.Output)
		if evaluated.Failed() {
			actual = evaluated.Error
		}
		passed := !evaluated.Failed() && actual == strings.TrimSpace(tc.ExpectedOutput)

		results = append(results, TestResult{
			TestCaseID:     tc.ID,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			ActualOutput:   actual,
			Passed:         passed,
			Hidden:         tc.Hidden,
		})

		console.Append(fmt.Sprintf("%s - %s", statusLabel(passed), suiteLabel(tc)))
	}

	passed := CountPassed(results)
	console.Append("")
	console.Append(fmt.Sprintf("Results: %d/%d passed", passed, len(cases)))

	r.logger.Debug().Int("cases", len(cases)).Int("passed", passed).Msg("suite run finished")
	return results
}

func statusLabel(passed bool) string {
	if passed {
		return "✓ PASSED"
	}
	return "✗ FAILED"
}

func suiteLabel(tc TestCase) string {
	if tc.Hidden {
		return "Hidden Test"
	}
	return fmt.Sprintf("Test %d", tc.OrderIndex+1)
}

// pause waits for d or until ctx is done. Cancellation only shortens the delay.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
