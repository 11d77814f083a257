package dto

import (
	"time"

	"github.com/noah-isme/gema-ide-api/internal/execution"
	"github.com/noah-isme/gema-ide-api/internal/session"
)

// SelectProblemRequest switches the active problem.
type SelectProblemRequest struct {
	ProblemID string `json:"problem_id" validate:"required,max=64"`
}

// UpdateCodeRequest replaces the code buffer.
type UpdateCodeRequest struct {
	Code string `json:"code" validate:"max=65536"`
}

// ExecuteRequest runs the buffer once against a custom stdin.
type ExecuteRequest struct {
	Input string `json:"input" validate:"max=16384"`
}

// SessionResponse is the full IDE view for the caller.
type SessionResponse struct {
	ProblemID    string                  `json:"problem_id"`
	Problem      *ProblemResponse        `json:"problem,omitempty"`
	Code         string                  `json:"code"`
	NavCollapsed bool                    `json:"nav_collapsed"`
	Running      bool                    `json:"running"`
	Console      []execution.ConsoleLine `json:"console"`
	ConsoleHint  string                  `json:"console_hint,omitempty"`
	Panel        execution.Panel         `json:"panel"`
	Verdict      *session.Verdict        `json:"verdict,omitempty"`
}

// ExecuteResponse carries a single custom-input run.
type ExecuteResponse struct {
	Output    string          `json:"output"`
	Error     string          `json:"error,omitempty"`
	ElapsedMS int64           `json:"elapsed_ms"`
	Session   SessionResponse `json:"session"`
}

// RunResponse carries the outcome of a run or submit.
type RunResponse struct {
	Mode    session.Mode     `json:"mode"`
	Ran     bool             `json:"ran"`
	Passed  int              `json:"passed"`
	Total   int              `json:"total"`
	Verdict *session.Verdict `json:"verdict,omitempty"`
	Session SessionResponse  `json:"session"`
}

// ConsoleCommand is a message received over the console websocket.
type ConsoleCommand struct {
	Action string `json:"action" validate:"required,oneof=run submit execute"`
	Input  string `json:"input"`
}

// ConsoleMessage is a message pushed over the console websocket.
type ConsoleMessage struct {
	Type    string                  `json:"type"`
	Event   *execution.ConsoleEvent `json:"event,omitempty"`
	Result  *RunResponse            `json:"result,omitempty"`
	Execute *ExecuteResponse        `json:"execute,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// NewSessionResponse renders a state with the cases of its active problem.
func NewSessionResponse(state session.State, problem *ProblemResponse, cases []execution.TestCase, running bool) SessionResponse {
	response := SessionResponse{
		ProblemID:    state.ProblemID,
		Problem:      problem,
		Code:         state.Code,
		NavCollapsed: state.NavCollapsed,
		Running:      running || state.Running,
		Console:      execution.RenderConsole(state.Console),
		Panel:        execution.BuildPanel(cases, state.Results),
		Verdict:      state.Verdict,
	}
	if len(state.Console) == 0 {
		response.ConsoleHint = execution.EmptyConsoleHint
	}
	return response
}

// VerdictNotification is delivered to verdict stream subscribers.
type VerdictNotification struct {
	UserID       string          `json:"user_id"`
	ProblemTitle string          `json:"problem_title,omitempty"`
	Verdict      session.Verdict `json:"verdict"`
	SentAt       time.Time       `json:"sent_at"`
}
