package dto

// SeedTestCase is one test case inside a seed payload.
type SeedTestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden"`
	OrderIndex     int    `json:"order_index" validate:"min=0"`
}

// SeedProblem is one problem inside a seed payload.
type SeedProblem struct {
	ID               string         `json:"id" validate:"required,max=36"`
	Title            string         `json:"title" validate:"required,max=255"`
	Description      string         `json:"description" validate:"required"`
	InputFormat      string         `json:"input_format"`
	OutputFormat     string         `json:"output_format"`
	Constraints      *string        `json:"constraints"`
	Difficulty       string         `json:"difficulty" validate:"required,oneof=easy medium hard"`
	BoilerplateCode  string         `json:"boilerplate_code"`
	TimeLimitSeconds *int           `json:"time_limit_seconds" validate:"omitempty,min=1,max=60"`
	OrderIndex       int            `json:"order_index" validate:"min=0"`
	IsActive         bool           `json:"is_active"`
	TestCases        []SeedTestCase `json:"test_cases" validate:"dive"`
}

// SeedProblemsRequest replaces the listed problems and their test cases.
type SeedProblemsRequest struct {
	Problems []SeedProblem `json:"problems" validate:"required,min=1,dive"`
}

// SeedResult reports what a seed run wrote.
type SeedResult struct {
	Problems  int   `json:"problems"`
	TestCases int   `json:"test_cases"`
	Affected  int64 `json:"affected"`
}
