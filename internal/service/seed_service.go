package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-ide-api/internal/dto"
	"github.com/noah-isme/gema-ide-api/internal/models"
	"github.com/noah-isme/gema-ide-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService bulk-loads problem content.
type SeedService interface {
	SeedProblems(ctx context.Context, token string, payload dto.SeedProblemsRequest) (dto.SeedResult, error)
}

type seedService struct {
	problems  repository.ProblemRepository
	cache     ProblemCache
	validator *validator.Validate
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(problems repository.ProblemRepository, cache ProblemCache, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		problems:  problems,
		cache:     cache,
		validator: validate,
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedProblems(ctx context.Context, token string, payload dto.SeedProblemsRequest) (dto.SeedResult, error) {
	if !s.enabled {
		return dto.SeedResult{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.SeedResult{}, ErrSeedUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SeedResult{}, err
	}

	problems, caseCount := normalizeSeedProblems(payload.Problems)
	affected, err := s.problems.UpsertWithTestCases(ctx, problems)
	if err != nil {
		return dto.SeedResult{}, err
	}

	if s.cache != nil {
		ids := make([]string, 0, len(problems))
		for _, problem := range problems {
			ids = append(ids, problem.ID)
		}
		s.cache.Invalidate(ctx, ids...)
	}

	s.logger.Info().Int("problems", len(problems)).Int("test_cases", caseCount).Int64("affected", affected).Msg("problems seeded")
	return dto.SeedResult{Problems: len(problems), TestCases: caseCount, Affected: affected}, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}

func normalizeSeedProblems(items []dto.SeedProblem) ([]models.Problem, int) {
	problems := make([]models.Problem, 0, len(items))
	caseCount := 0
	for _, item := range items {
		cases := make([]models.TestCase, 0, len(item.TestCases))
		for idx, tc := range item.TestCases {
			order := tc.OrderIndex
			if order == 0 {
				order = idx
			}
			cases = append(cases, models.TestCase{
				Input:          tc.Input,
				ExpectedOutput: tc.ExpectedOutput,
				IsHidden:       tc.IsHidden,
				OrderIndex:     order,
			})
		}
		caseCount += len(cases)

		problems = append(problems, models.Problem{
			ID:               strings.TrimSpace(item.ID),
			Title:            strings.TrimSpace(item.Title),
			Description:      item.Description,
			InputFormat:      item.InputFormat,
			OutputFormat:     item.OutputFormat,
			Constraints:      item.Constraints,
			Difficulty:       strings.ToLower(item.Difficulty),
			BoilerplateCode:  item.BoilerplateCode,
			TimeLimitSeconds: item.TimeLimitSeconds,
			OrderIndex:       item.OrderIndex,
			IsActive:         item.IsActive,
			TestCases:        cases,
		})
	}
	return problems, caseCount
}
