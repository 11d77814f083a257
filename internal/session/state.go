// Package session holds the per-user IDE state and the transitions that move it.
package session

import (
	"errors"

	"github.com/noah-isme/gema-ide-api/internal/execution"
)

var (
	// ErrRunInProgress is returned when a run is requested while another is in flight.
	ErrRunInProgress = errors.New("a run is already in progress")
	// ErrRunSuperseded is returned when the problem changed while a run was evaluating.
	ErrRunSuperseded = errors.New("problem changed during the run")
)

// Mode selects which test cases a run uses.
type Mode string

// Run modes.
const (
	ModeRun    Mode = "run"
	ModeSubmit Mode = "submit"
)

// Problem status values shown in the navigator.
const (
	StatusSolved    = "solved"
	StatusAttempted = "attempted"
	StatusUnsolved  = "unsolved"
)

// Verdict is the all-or-nothing notification raised after a submit.
type Verdict struct {
	ProblemID   string `json:"problem_id"`
	Success     bool   `json:"success"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Passed      int    `json:"passed"`
	Total       int    `json:"total"`
}

// State is everything the IDE remembers for one user.
type State struct {
	UserID       string                 `json:"user_id"`
	ProblemID    string                 `json:"problem_id"`
	Code         string                 `json:"code"`
	Results      []execution.TestResult `json:"results"`
	Console      []string               `json:"console"`
	NavCollapsed bool                   `json:"nav_collapsed"`
	Running      bool                   `json:"running"`
	Solved       []string               `json:"solved"`
	Attempted    []string               `json:"attempted"`
	Verdict      *Verdict               `json:"verdict,omitempty"`
}

// New returns the empty state for a user.
func New(userID string) State {
	return State{UserID: userID}
}

// SelectProblem switches the active problem and resets the buffer to its starter code.
func SelectProblem(state State, problemID, starterCode string) State {
	state.ProblemID = problemID
	state.Code = starterCode
	state.Results = nil
	state.Console = nil
	state.Verdict = nil
	return state
}

// UpdateCode replaces the code buffer.
func UpdateCode(state State, code string) State {
	state.Code = code
	return state
}

// ToggleNavigator flips the navigator collapse flag.
func ToggleNavigator(state State) State {
	state.NavCollapsed = !state.NavCollapsed
	return state
}

// ClearConsole empties the console transcript.
func ClearConsole(state State) State {
	state.Console = nil
	return state
}

// BeginRun marks the state as running.
func BeginRun(state State) (State, error) {
	if state.Running {
		return state, ErrRunInProgress
	}
	state.Running = true
	return state, nil
}

// CompleteRun stores the outcome of a run. Results replace the previous run wholesale.
func CompleteRun(state State, mode Mode, lines []string, results []execution.TestResult) State {
	state.Running = false
	state.Console = append([]string(nil), lines...)
	state.Results = append([]execution.TestResult(nil), results...)
	state.Attempted = addUnique(state.Attempted, state.ProblemID)

	if mode != ModeSubmit {
		return state
	}

	passed := execution.CountPassed(results)
	verdict := &Verdict{
		ProblemID: state.ProblemID,
		Passed:    passed,
		Total:     len(results),
	}
	if passed == len(results) {
		verdict.Success = true
		verdict.Title = "Success!"
		verdict.Description = "All test cases passed!"
		state.Solved = addUnique(state.Solved, state.ProblemID)
	} else {
		verdict.Title = "Some tests failed"
		verdict.Description = "Check the results panel"
	}
	state.Verdict = verdict
	return state
}

// MergeRun applies the outcome of a finished run onto the latest stored state.
// Only run output is taken from finished; code and navigator changes in latest
// survive. A run for a problem that is no longer selected is dropped.
func MergeRun(latest, finished State) (State, error) {
	if latest.ProblemID != finished.ProblemID {
		return latest, ErrRunSuperseded
	}
	latest.Running = false
	latest.Console = finished.Console
	latest.Results = finished.Results
	latest.Verdict = finished.Verdict
	for _, id := range finished.Attempted {
		latest.Attempted = addUnique(latest.Attempted, id)
	}
	for _, id := range finished.Solved {
		latest.Solved = addUnique(latest.Solved, id)
	}
	return latest, nil
}

// CasesFor picks the cases a mode runs against. Run never sees hidden cases.
func CasesFor(mode Mode, cases []execution.TestCase) []execution.TestCase {
	if mode == ModeSubmit {
		return cases
	}
	visible, _ := execution.Partition(cases)
	return visible
}

// ProblemStatus reports how far the user got with a problem.
func (s State) ProblemStatus(problemID string) string {
	switch {
	case contains(s.Solved, problemID):
		return StatusSolved
	case contains(s.Attempted, problemID):
		return StatusAttempted
	default:
		return StatusUnsolved
	}
}

func addUnique(items []string, value string) []string {
	if value == "" || contains(items, value) {
		return items
	}
	out := make([]string, 0, len(items)+1)
	out = append(out, items...)
	return append(out, value)
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}
