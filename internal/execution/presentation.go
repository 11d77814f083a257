package execution

import "fmt"

// EmptyResultsHint is rendered when no run has produced results yet.
const EmptyResultsHint = "Run your code to see results"

// Partition splits cases into visible and hidden sets, preserving order.
func Partition(cases []TestCase) (visible, hidden []TestCase) {
	visible = make([]TestCase, 0, len(cases))
	for _, tc := range cases {
		if tc.Hidden {
			hidden = append(hidden, tc)
			continue
		}
		visible = append(visible, tc)
	}
	return visible, hidden
}

// VisibleCaseView is a public test case as shown in the test-case tab.
type VisibleCaseView struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// ResultView is one entry of the results tab. Hidden entries carry no values.
type ResultView struct {
	TestCaseID     string `json:"test_case_id"`
	Label          string `json:"label"`
	Status         string `json:"status"`
	Passed         bool   `json:"passed"`
	Hidden         bool   `json:"is_hidden"`
	Input          string `json:"input,omitempty"`
	ExpectedOutput string `json:"expected_output,omitempty"`
	ActualOutput   string `json:"actual_output,omitempty"`
}

// Panel is the rendered test-case and results panel.
type Panel struct {
	TestCases    []VisibleCaseView `json:"test_cases"`
	HiddenCount  int               `json:"hidden_count"`
	HiddenLabel  string            `json:"hidden_label,omitempty"`
	Results      []ResultView      `json:"results"`
	ResultsHint  string            `json:"results_hint,omitempty"`
	PassedCount  int               `json:"passed_count"`
	ResultsTotal int               `json:"results_total"`
}

// BuildPanel renders cases and the latest results for display.
func BuildPanel(cases []TestCase, results []TestResult) Panel {
	visible, hidden := Partition(cases)

	panel := Panel{
		TestCases:    make([]VisibleCaseView, 0, len(visible)),
		HiddenCount:  len(hidden),
		Results:      PairResults(cases, results),
		PassedCount:  CountPassed(results),
		ResultsTotal: len(results),
	}

	for idx, tc := range visible {
		panel.TestCases = append(panel.TestCases, VisibleCaseView{
			ID:             tc.ID,
			Label:          fmt.Sprintf("Test Case %d", idx+1),
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		})
	}

	if n := len(hidden); n > 0 {
		suffix := ""
		if n > 1 {
			suffix = "s"
		}
		panel.HiddenLabel = fmt.Sprintf("%d hidden test case%s", n, suffix)
	}

	if len(results) == 0 {
		panel.ResultsHint = EmptyResultsHint
	}

	return panel
}

// PairResults matches each result to its source case by ID and suppresses hidden values.
// A result whose case is unknown keeps its own hidden flag.
func PairResults(cases []TestCase, results []TestResult) []ResultView {
	byID := make(map[string]TestCase, len(cases))
	for _, tc := range cases {
		byID[tc.ID] = tc
	}

	views := make([]ResultView, 0, len(results))
	for idx, result := range results {
		hidden := result.Hidden
		if tc, ok := byID[result.TestCaseID]; ok {
			hidden = tc.Hidden
		}

		view := ResultView{
			TestCaseID: result.TestCaseID,
			Label:      fmt.Sprintf("Test Case %d", idx+1),
			Status:     "FAILED",
			Passed:     result.Passed,
			Hidden:     hidden,
		}
		if result.Passed {
			view.Status = "PASSED"
		}

		if hidden {
			view.Label = "Hidden Test"
		} else {
			view.Input = result.Input
			view.ExpectedOutput = result.ExpectedOutput
			view.ActualOutput = result.ActualOutput
		}

		views = append(views, view)
	}
	return views
}
