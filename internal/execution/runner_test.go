package execution

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestRunner(cfg RunnerConfig) (*Runner, *[]time.Duration) {
	runner := NewRunner(NewEvaluator(), cfg, zerolog.Nop())
	var slept []time.Duration
	runner.sleep = func(_ context.Context, d time.Duration) {
		slept = append(slept, d)
	}
	return runner, &slept
}

func TestRunSuiteNarratesAndPreservesOrder(t *testing.T) {
	runner, slept := newTestRunner(RunnerConfig{CaseDelay: 300 * time.Millisecond})
	console := NewConsole([]string{"stale line"})

	cases := []TestCase{
		{ID: "tc-1", Input: "5\n3\n+", ExpectedOutput: "8", OrderIndex: 0},
		{ID: "tc-2", Input: "10\n0\n/", ExpectedOutput: "Error: Division by zero\n", OrderIndex: 1},
		{ID: "tc-3", Input: "7 2 %", ExpectedOutput: "0", Hidden: true, OrderIndex: 2},
	}

	results := runner.RunSuite(context.Background(), console, calculatorSource, cases)

	require.Len(t, results, len(cases))
	for idx, result := range results {
		require.Equal(t, cases[idx].ID, result.TestCaseID)
		require.Equal(t, cases[idx].Hidden, result.Hidden)
	}
	require.True(t, results[0].Passed)
	require.True(t, results[1].Passed, "expected output is compared after trimming")
	require.False(t, results[2].Passed)
	require.Equal(t, MessageInvalidOperator, results[2].ActualOutput)

	require.Equal(t, []string{
		"> Running 3 test case(s)...",
		"✓ PASSED - Test 1",
		"✓ PASSED - Test 2",
		"✗ FAILED - Hidden Test",
		"",
		"Results: 2/3 passed",
	}, console.Lines())
	require.Equal(t, []time.Duration{300 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}, *slept)
}

func TestRunSuiteCompileErrorNeverPasses(t *testing.T) {
	runner, _ := newTestRunner(RunnerConfig{})
	console := NewConsole(nil)

	cases := []TestCase{
		{ID: "a", Input: "1\n2\n+", ExpectedOutput: MessageSwitchRequired},
		{ID: "b", Input: "hello", ExpectedOutput: "hello", OrderIndex: 4},
	}

	results := runner.RunSuite(context.Background(), console, "int main() {}", cases)

	require.False(t, results[0].Passed, "an error never passes even when the text matches")
	require.Equal(t, MessageSwitchRequired, results[0].ActualOutput)
	require.True(t, results[1].Passed, "echo cases do not need a switch")
	require.Equal(t, "✓ PASSED - Test 5", console.Lines()[2])
	require.Equal(t, "Results: 1/2 passed", console.Lines()[len(console.Lines())-1])
}

func TestRunSuiteComparisonIsExact(t *testing.T) {
	runner, _ := newTestRunner(RunnerConfig{})

	results := runner.RunSuite(context.Background(), NewConsole(nil), calculatorSource, []TestCase{
		{ID: "float", Input: "1 3 /", ExpectedOutput: "0.333"},
		{ID: "case", Input: "Hello", ExpectedOutput: "hello"},
		{ID: "trailing", Input: "8 0 +", ExpectedOutput: "  8  "},
	})

	require.False(t, results[0].Passed)
	require.False(t, results[1].Passed)
	require.True(t, results[2].Passed)
}

func TestRunSuiteSummaryCountsPassed(t *testing.T) {
	runner, _ := newTestRunner(RunnerConfig{})

	for n := 0; n <= 5; n++ {
		cases := make([]TestCase, 0, n)
		for i := 0; i < n; i++ {
			expected := fmt.Sprint(i + 1)
			if i%2 == 1 {
				expected = "wrong"
			}
			cases = append(cases, TestCase{ID: fmt.Sprint(i), Input: fmt.Sprintf("%d 1 +", i), ExpectedOutput: expected, OrderIndex: i})
		}

		console := NewConsole(nil)
		results := runner.RunSuite(context.Background(), console, calculatorSource, cases)
		require.Len(t, results, n)

		lines := console.Lines()
		require.Equal(t, fmt.Sprintf("Results: %d/%d passed", CountPassed(results), n), lines[len(lines)-1])
		require.Equal(t, "", lines[len(lines)-2])
		require.Len(t, lines, n+3)
	}
}

func TestRunSuiteCancelledContextStillEvaluatesEveryCase(t *testing.T) {
	runner := NewRunner(nil, RunnerConfig{CaseDelay: time.Hour}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := runner.RunSuite(ctx, NewConsole(nil), calculatorSource, []TestCase{
		{ID: "1", Input: "1 1 +", ExpectedOutput: "2"},
		{ID: "2", Input: "2 2 +", ExpectedOutput: "4"},
	})

	require.Len(t, results, 2)
	require.Equal(t, 2, CountPassed(results))
}

func TestRunSingleReportsSuccess(t *testing.T) {
	runner, slept := newTestRunner(RunnerConfig{CompileDelay: 500 * time.Millisecond})
	console := NewConsole([]string{"earlier"})

	result := runner.RunSingle(context.Background(), console, calculatorSource, "6\n3\n/")

	require.Equal(t, "2", result.Output)
	lines := console.Lines()
	require.Len(t, lines, 4)
	require.Equal(t, "earlier", lines[0])
	require.Equal(t, "> Running code...", lines[1])
	require.Regexp(t, `^✓ Compiled successfully \(\d+ms\)$`, lines[2])
	require.Equal(t, "Output: 2", lines[3])
	require.Equal(t, []time.Duration{500 * time.Millisecond}, *slept)
}

func TestRunSingleReportsError(t *testing.T) {
	runner, _ := newTestRunner(RunnerConfig{})
	console := NewConsole(nil)

	result := runner.RunSingle(context.Background(), console, "no construct", "1 2 +")

	require.True(t, result.Failed())
	require.Equal(t, []string{"> Running code...", "❌ " + MessageSwitchRequired}, console.Lines())
}

func TestRunSingleRoundsCompileTime(t *testing.T) {
	runner, _ := newTestRunner(RunnerConfig{})
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Time{start, start.Add(1600 * time.Microsecond)}
	runner.evaluator.now = func() time.Time {
		next := ticks[0]
		ticks = ticks[1:]
		return next
	}
	console := NewConsole(nil)

	result := runner.RunSingle(context.Background(), console, calculatorSource, "1 1 +")

	require.Equal(t, 1600*time.Microsecond, result.Elapsed)
	require.Equal(t, "✓ Compiled successfully (2ms)", console.Lines()[1])
}
