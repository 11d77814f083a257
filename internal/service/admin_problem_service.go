package service

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-ide-api/internal/dto"
	"github.com/noah-isme/gema-ide-api/internal/models"
	"github.com/noah-isme/gema-ide-api/internal/repository"
)

var (
	// ErrTestCaseNotFound indicates the test case does not exist.
	ErrTestCaseNotFound = errors.New("test case not found")
	// ErrProblemStatementEmpty indicates the statement was empty after sanitising.
	ErrProblemStatementEmpty = errors.New("problem description empty after sanitization")
)

// AdminProblemService manages problems and their test cases for administrators.
type AdminProblemService interface {
	List(ctx context.Context, filter dto.ProblemFilter) ([]dto.ProblemResponse, error)
	Get(ctx context.Context, id string) (dto.ProblemResponse, error)
	Create(ctx context.Context, payload dto.CreateProblemRequest, actorID string) (dto.ProblemResponse, error)
	Update(ctx context.Context, id string, payload dto.UpdateProblemRequest) (dto.ProblemResponse, error)
	Delete(ctx context.Context, id string) error
	ListTestCases(ctx context.Context, problemID string) ([]dto.TestCaseResponse, error)
	CreateTestCase(ctx context.Context, problemID string, payload dto.CreateTestCaseRequest) (dto.TestCaseResponse, error)
	UpdateTestCase(ctx context.Context, id string, payload dto.UpdateTestCaseRequest) (dto.TestCaseResponse, error)
	DeleteTestCase(ctx context.Context, id string) error
}

type adminProblemService struct {
	problems  repository.ProblemRepository
	testCases repository.TestCaseRepository
	cache     ProblemCache
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	strict    *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewAdminProblemService constructs the admin content service.
func NewAdminProblemService(problems repository.ProblemRepository, testCases repository.TestCaseRepository, cache ProblemCache, validate *validator.Validate, logger zerolog.Logger) AdminProblemService {
	return &adminProblemService{
		problems:  problems,
		testCases: testCases,
		cache:     cache,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		strict:    bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-ide-api/internal/service/admin_problem"),
		logger:    logger.With().Str("component", "admin_problem_service").Logger(),
	}
}

func (s *adminProblemService) List(ctx context.Context, filter dto.ProblemFilter) ([]dto.ProblemResponse, error) {
	problems, err := s.problems.List(ctx, repository.ProblemQuery{
		IncludeInactive: filter.IncludeInactive,
		Difficulty:      strings.TrimSpace(filter.Difficulty),
		Search:          strings.TrimSpace(filter.Search),
	})
	if err != nil {
		return nil, err
	}
	return dto.NewProblemResponses(problems), nil
}

func (s *adminProblemService) Get(ctx context.Context, id string) (dto.ProblemResponse, error) {
	problem, err := s.loadProblem(ctx, id)
	if err != nil {
		return dto.ProblemResponse{}, err
	}
	return dto.NewProblemResponse(problem), nil
}

func (s *adminProblemService) Create(ctx context.Context, payload dto.CreateProblemRequest, actorID string) (dto.ProblemResponse, error) {
	ctx, span := s.tracer.Start(ctx, "problems.create", trace.WithAttributes(attribute.String("problem.actor_id", actorID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ProblemResponse{}, err
	}

	description := s.cleanStatement(payload.Description)
	if description == "" {
		span.SetStatus(codes.Error, "statement_empty")
		return dto.ProblemResponse{}, ErrProblemStatementEmpty
	}

	isActive := true
	if payload.IsActive != nil {
		isActive = *payload.IsActive
	}

	problem := models.Problem{
		Title:            s.cleanTitle(payload.Title),
		Description:      description,
		InputFormat:      s.cleanStatement(payload.InputFormat),
		OutputFormat:     s.cleanStatement(payload.OutputFormat),
		Constraints:      s.cleanOptional(payload.Constraints),
		Difficulty:       strings.ToLower(payload.Difficulty),
		BoilerplateCode:  payload.BoilerplateCode,
		TimeLimitSeconds: payload.TimeLimitSeconds,
		OrderIndex:       payload.OrderIndex,
		IsActive:         isActive,
	}
	if actorID != "" {
		problem.CreatedBy = &actorID
	}

	if err := s.problems.Create(ctx, &problem); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "problem_create_failed")
		return dto.ProblemResponse{}, err
	}

	span.SetAttributes(attribute.String("problem.id", problem.ID))
	s.invalidate(ctx, problem.ID)
	s.logger.Info().Str("problem_id", problem.ID).Str("actor_id", actorID).Msg("problem created")
	return dto.NewProblemResponse(problem), nil
}

func (s *adminProblemService) Update(ctx context.Context, id string, payload dto.UpdateProblemRequest) (dto.ProblemResponse, error) {
	ctx, span := s.tracer.Start(ctx, "problems.update", trace.WithAttributes(attribute.String("problem.id", id)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ProblemResponse{}, err
	}

	problem, err := s.loadProblem(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "problem_lookup_failed")
		return dto.ProblemResponse{}, err
	}

	if payload.Title != nil {
		problem.Title = s.cleanTitle(*payload.Title)
	}
	if payload.Description != nil {
		description := s.cleanStatement(*payload.Description)
		if description == "" {
			span.SetStatus(codes.Error, "statement_empty")
			return dto.ProblemResponse{}, ErrProblemStatementEmpty
		}
		problem.Description = description
	}
	if payload.InputFormat != nil {
		problem.InputFormat = s.cleanStatement(*payload.InputFormat)
	}
	if payload.OutputFormat != nil {
		problem.OutputFormat = s.cleanStatement(*payload.OutputFormat)
	}
	if payload.Constraints != nil {
		problem.Constraints = s.cleanOptional(payload.Constraints)
	}
	if payload.Difficulty != nil {
		problem.Difficulty = strings.ToLower(*payload.Difficulty)
	}
	if payload.BoilerplateCode != nil {
		problem.BoilerplateCode = *payload.BoilerplateCode
	}
	if payload.TimeLimitSeconds != nil {
		problem.TimeLimitSeconds = payload.TimeLimitSeconds
	}
	if payload.OrderIndex != nil {
		problem.OrderIndex = *payload.OrderIndex
	}
	if payload.IsActive != nil {
		problem.IsActive = *payload.IsActive
	}

	if err := s.problems.Update(ctx, &problem); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "problem_update_failed")
		return dto.ProblemResponse{}, err
	}

	s.invalidate(ctx, problem.ID)
	return dto.NewProblemResponse(problem), nil
}

func (s *adminProblemService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "problems.delete", trace.WithAttributes(attribute.String("problem.id", id)))
	defer span.End()

	if err := s.problems.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "problem_delete_failed")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProblemNotFound
		}
		return err
	}

	s.invalidate(ctx, id)
	s.logger.Info().Str("problem_id", id).Msg("problem deleted")
	return nil
}

func (s *adminProblemService) ListTestCases(ctx context.Context, problemID string) ([]dto.TestCaseResponse, error) {
	if _, err := s.loadProblem(ctx, problemID); err != nil {
		return nil, err
	}

	cases, err := s.testCases.ListByProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.TestCaseResponse, 0, len(cases))
	for _, tc := range cases {
		items = append(items, dto.NewTestCaseResponse(tc))
	}
	return items, nil
}

func (s *adminProblemService) CreateTestCase(ctx context.Context, problemID string, payload dto.CreateTestCaseRequest) (dto.TestCaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "test_cases.create", trace.WithAttributes(attribute.String("problem.id", problemID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.TestCaseResponse{}, err
	}

	if _, err := s.loadProblem(ctx, problemID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "problem_lookup_failed")
		return dto.TestCaseResponse{}, err
	}

	testCase := models.TestCase{
		ProblemID:      problemID,
		Input:          payload.Input,
		ExpectedOutput: payload.ExpectedOutput,
		IsHidden:       payload.IsHidden,
		OrderIndex:     payload.OrderIndex,
	}
	if err := s.testCases.Create(ctx, &testCase); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "test_case_create_failed")
		return dto.TestCaseResponse{}, err
	}

	s.invalidate(ctx, problemID)
	return dto.NewTestCaseResponse(testCase), nil
}

func (s *adminProblemService) UpdateTestCase(ctx context.Context, id string, payload dto.UpdateTestCaseRequest) (dto.TestCaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "test_cases.update", trace.WithAttributes(attribute.String("test_case.id", id)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.TestCaseResponse{}, err
	}

	testCase, err := s.testCases.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "test_case_lookup_failed")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestCaseResponse{}, ErrTestCaseNotFound
		}
		return dto.TestCaseResponse{}, err
	}

	if payload.Input != nil {
		testCase.Input = *payload.Input
	}
	if payload.ExpectedOutput != nil {
		testCase.ExpectedOutput = *payload.ExpectedOutput
	}
	if payload.IsHidden != nil {
		testCase.IsHidden = *payload.IsHidden
	}
	if payload.OrderIndex != nil {
		testCase.OrderIndex = *payload.OrderIndex
	}

	if err := s.testCases.Update(ctx, &testCase); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "test_case_update_failed")
		return dto.TestCaseResponse{}, err
	}

	s.invalidate(ctx, testCase.ProblemID)
	return dto.NewTestCaseResponse(testCase), nil
}

func (s *adminProblemService) DeleteTestCase(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "test_cases.delete", trace.WithAttributes(attribute.String("test_case.id", id)))
	defer span.End()

	testCase, err := s.testCases.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTestCaseNotFound
		}
		return err
	}

	if err := s.testCases.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "test_case_delete_failed")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTestCaseNotFound
		}
		return err
	}

	s.invalidate(ctx, testCase.ProblemID)
	return nil
}

func (s *adminProblemService) loadProblem(ctx context.Context, id string) (models.Problem, error) {
	problem, err := s.problems.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Problem{}, ErrProblemNotFound
		}
		return models.Problem{}, err
	}
	return problem, nil
}

// cleanTitle strips markup from a plain-text title. The strict policy escapes
// entities, so they are decoded back.
func (s *adminProblemService) cleanTitle(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(value)))
}

func (s *adminProblemService) cleanStatement(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

func (s *adminProblemService) cleanOptional(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := s.cleanStatement(*value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func (s *adminProblemService) invalidate(ctx context.Context, problemID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, problemID)
	}
}
