package dto

import (
	"time"

	"github.com/noah-isme/gema-ide-api/internal/execution"
	"github.com/noah-isme/gema-ide-api/internal/models"
)

// ProblemFilter defines query parameters for the admin problem listing.
type ProblemFilter struct {
	Difficulty      string `query:"difficulty"`
	Search          string `query:"search"`
	IncludeInactive bool   `query:"include_inactive"`
}

// ProblemResponse represents a problem returned by the API.
type ProblemResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	InputFormat      string    `json:"input_format"`
	OutputFormat     string    `json:"output_format"`
	Constraints      *string   `json:"constraints"`
	Difficulty       string    `json:"difficulty"`
	BoilerplateCode  string    `json:"boilerplate_code"`
	TimeLimitSeconds *int      `json:"time_limit_seconds"`
	OrderIndex       int       `json:"order_index"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NavigatorItem is one row of the problem navigator.
type NavigatorItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	OrderIndex int    `json:"order_index"`
	Status     string `json:"status"`
	Active     bool   `json:"active"`
}

// NavigatorResponse lists problems annotated for the caller.
type NavigatorResponse struct {
	Items       []NavigatorItem `json:"items"`
	SolvedCount int             `json:"solved_count"`
	Total       int             `json:"total"`
	Collapsed   bool            `json:"collapsed"`
}

// TestCaseResponse is a test case as returned to admins.
type TestCaseResponse struct {
	ID             string    `json:"id"`
	ProblemID      string    `json:"problem_id"`
	Input          string    `json:"input"`
	ExpectedOutput string    `json:"expected_output"`
	IsHidden       bool      `json:"is_hidden"`
	OrderIndex     int       `json:"order_index"`
	CreatedAt      time.Time `json:"created_at"`
}

// PublicTestCaseResponse is a test case as returned to learners. Hidden cases carry no values.
type PublicTestCaseResponse struct {
	ID             string `json:"id"`
	ProblemID      string `json:"problem_id"`
	Input          string `json:"input,omitempty"`
	ExpectedOutput string `json:"expected_output,omitempty"`
	IsHidden       bool   `json:"is_hidden"`
	OrderIndex     int    `json:"order_index"`
}

// ProblemTestCasesResponse bundles the public listing with the rendered panel.
type ProblemTestCasesResponse struct {
	Items []PublicTestCaseResponse `json:"items"`
	Panel execution.Panel          `json:"panel"`
}

// CreateProblemRequest is the admin payload for a new problem.
type CreateProblemRequest struct {
	Title            string  `json:"title" validate:"required,min=3,max=255"`
	Description      string  `json:"description" validate:"required"`
	InputFormat      string  `json:"input_format"`
	OutputFormat     string  `json:"output_format"`
	Constraints      *string `json:"constraints"`
	Difficulty       string  `json:"difficulty" validate:"required,oneof=easy medium hard"`
	BoilerplateCode  string  `json:"boilerplate_code"`
	TimeLimitSeconds *int    `json:"time_limit_seconds" validate:"omitempty,min=1,max=60"`
	OrderIndex       int     `json:"order_index" validate:"min=0"`
	IsActive         *bool   `json:"is_active"`
}

// UpdateProblemRequest patches an existing problem. Nil fields are left untouched.
type UpdateProblemRequest struct {
	Title            *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description      *string `json:"description" validate:"omitempty,min=1"`
	InputFormat      *string `json:"input_format"`
	OutputFormat     *string `json:"output_format"`
	Constraints      *string `json:"constraints"`
	Difficulty       *string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	BoilerplateCode  *string `json:"boilerplate_code"`
	TimeLimitSeconds *int    `json:"time_limit_seconds" validate:"omitempty,min=1,max=60"`
	OrderIndex       *int    `json:"order_index" validate:"omitempty,min=0"`
	IsActive         *bool   `json:"is_active"`
}

// CreateTestCaseRequest is the admin payload for a new test case.
type CreateTestCaseRequest struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden"`
	OrderIndex     int    `json:"order_index" validate:"min=0"`
}

// UpdateTestCaseRequest patches an existing test case.
type UpdateTestCaseRequest struct {
	Input          *string `json:"input"`
	ExpectedOutput *string `json:"expected_output"`
	IsHidden       *bool   `json:"is_hidden"`
	OrderIndex     *int    `json:"order_index" validate:"omitempty,min=0"`
}

// NewProblemResponse builds a response DTO from the model.
func NewProblemResponse(problem models.Problem) ProblemResponse {
	return ProblemResponse{
		ID:               problem.ID,
		Title:            problem.Title,
		Description:      problem.Description,
		InputFormat:      problem.InputFormat,
		OutputFormat:     problem.OutputFormat,
		Constraints:      problem.Constraints,
		Difficulty:       problem.Difficulty,
		BoilerplateCode:  problem.BoilerplateCode,
		TimeLimitSeconds: problem.TimeLimitSeconds,
		OrderIndex:       problem.OrderIndex,
		IsActive:         problem.IsActive,
		CreatedAt:        problem.CreatedAt,
		UpdatedAt:        problem.UpdatedAt,
	}
}

// NewProblemResponses maps a slice of problems.
func NewProblemResponses(problems []models.Problem) []ProblemResponse {
	items := make([]ProblemResponse, 0, len(problems))
	for _, problem := range problems {
		items = append(items, NewProblemResponse(problem))
	}
	return items
}

// NewTestCaseResponse builds the admin view of a test case.
func NewTestCaseResponse(testCase models.TestCase) TestCaseResponse {
	return TestCaseResponse{
		ID:             testCase.ID,
		ProblemID:      testCase.ProblemID,
		Input:          testCase.Input,
		ExpectedOutput: testCase.ExpectedOutput,
		IsHidden:       testCase.IsHidden,
		OrderIndex:     testCase.OrderIndex,
		CreatedAt:      testCase.CreatedAt,
	}
}

// NewPublicTestCaseResponse builds the learner view of a test case.
func NewPublicTestCaseResponse(testCase models.TestCase) PublicTestCaseResponse {
	response := PublicTestCaseResponse{
		ID:         testCase.ID,
		ProblemID:  testCase.ProblemID,
		IsHidden:   testCase.IsHidden,
		OrderIndex: testCase.OrderIndex,
	}
	if !testCase.IsHidden {
		response.Input = testCase.Input
		response.ExpectedOutput = testCase.ExpectedOutput
	}
	return response
}

// ToExecutionCases converts stored test cases into runner input.
func ToExecutionCases(cases []models.TestCase) []execution.TestCase {
	out := make([]execution.TestCase, 0, len(cases))
	for _, tc := range cases {
		out = append(out, execution.TestCase{
			ID:             tc.ID,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			Hidden:         tc.IsHidden,
			OrderIndex:     tc.OrderIndex,
		})
	}
	return out
}
