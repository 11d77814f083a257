package execution

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionKeepsOrder(t *testing.T) {
	cases := []TestCase{{ID: "1"}, {ID: "2", Hidden: true}, {ID: "3"}, {ID: "4", Hidden: true}}

	visible, hidden := Partition(cases)

	require.Equal(t, []TestCase{{ID: "1"}, {ID: "3"}}, visible)
	require.Equal(t, []TestCase{{ID: "2", Hidden: true}, {ID: "4", Hidden: true}}, hidden)
}

func TestBuildPanelSuppressesHiddenValues(t *testing.T) {
	cases := []TestCase{
		{ID: "v1", Input: "5\n3\n+", ExpectedOutput: "8"},
		{ID: "h1", Input: "secret", ExpectedOutput: "secret-out", Hidden: true},
		{ID: "h2", Input: "secret2", ExpectedOutput: "secret-out2", Hidden: true},
	}
	results := []TestResult{
		{TestCaseID: "v1", Input: "5\n3\n+", ExpectedOutput: "8", ActualOutput: "8", Passed: true},
		{TestCaseID: "h1", Input: "secret", ExpectedOutput: "secret-out", ActualOutput: "nope", Hidden: true},
	}

	panel := BuildPanel(cases, results)

	require.Len(t, panel.TestCases, 1)
	require.Equal(t, "Test Case 1", panel.TestCases[0].Label)
	require.Equal(t, 2, panel.HiddenCount)
	require.Equal(t, "2 hidden test cases", panel.HiddenLabel)
	require.Equal(t, 1, panel.PassedCount)
	require.Equal(t, 2, panel.ResultsTotal)
	require.Empty(t, panel.ResultsHint)

	require.Equal(t, ResultView{
		TestCaseID:     "v1",
		Label:          "Test Case 1",
		Status:         "PASSED",
		Passed:         true,
		Input:          "5\n3\n+",
		ExpectedOutput: "8",
		ActualOutput:   "8",
	}, panel.Results[0])
	require.Equal(t, ResultView{
		TestCaseID: "h1",
		Label:      "Hidden Test",
		Status:     "FAILED",
		Hidden:     true,
	}, panel.Results[1])
}

func TestBuildPanelWithoutResults(t *testing.T) {
	panel := BuildPanel([]TestCase{{ID: "h", Hidden: true}}, nil)

	require.Empty(t, panel.TestCases)
	require.Equal(t, "1 hidden test case", panel.HiddenLabel)
	require.Empty(t, panel.Results)
	require.Equal(t, EmptyResultsHint, panel.ResultsHint)
}
