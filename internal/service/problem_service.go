package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-ide-api/internal/dto"
	"github.com/noah-isme/gema-ide-api/internal/execution"
	"github.com/noah-isme/gema-ide-api/internal/models"
	"github.com/noah-isme/gema-ide-api/internal/repository"
)

// ErrProblemNotFound indicates the problem does not exist or is not active.
var ErrProblemNotFound = errors.New("problem not found")

const activeProblemsCacheKey = "ide:problems:active"

func testCasesCacheKey(problemID string) string {
	return fmt.Sprintf("ide:problems:%s:test_cases", problemID)
}

// ProblemCache drops cached catalogue entries after a write.
type ProblemCache interface {
	Invalidate(ctx context.Context, problemIDs ...string)
}

// ProblemService serves the learner-facing problem catalogue.
type ProblemService interface {
	ProblemCache
	ListActive(ctx context.Context) ([]dto.ProblemResponse, error)
	Get(ctx context.Context, id string) (dto.ProblemResponse, error)
	TestCases(ctx context.Context, problemID string) ([]models.TestCase, error)
	PublicTestCases(ctx context.Context, problemID string) (dto.ProblemTestCasesResponse, error)
}

type problemService struct {
	problems  repository.ProblemRepository
	testCases repository.TestCaseRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// NewProblemService builds the catalogue service. A nil cache disables caching.
func NewProblemService(problems repository.ProblemRepository, testCases repository.TestCaseRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProblemService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &problemService{
		problems:  problems,
		testCases: testCases,
		cache:     cache,
		cacheTTL:  ttl,
		logger:    logger.With().Str("component", "problem_service").Logger(),
	}
}

func (s *problemService) ListActive(ctx context.Context) ([]dto.ProblemResponse, error) {
	var cached []dto.ProblemResponse
	if s.readCache(ctx, activeProblemsCacheKey, &cached) {
		return cached, nil
	}

	problems, err := s.problems.List(ctx, repository.ProblemQuery{})
	if err != nil {
		return nil, err
	}

	response := dto.NewProblemResponses(problems)
	s.writeCache(ctx, activeProblemsCacheKey, response)
	return response, nil
}

func (s *problemService) Get(ctx context.Context, id string) (dto.ProblemResponse, error) {
	problems, err := s.ListActive(ctx)
	if err != nil {
		return dto.ProblemResponse{}, err
	}
	for _, problem := range problems {
		if problem.ID == id {
			return problem, nil
		}
	}
	return dto.ProblemResponse{}, ErrProblemNotFound
}

func (s *problemService) TestCases(ctx context.Context, problemID string) ([]models.TestCase, error) {
	if _, err := s.Get(ctx, problemID); err != nil {
		return nil, err
	}

	key := testCasesCacheKey(problemID)
	var cached []models.TestCase
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	cases, err := s.testCases.ListByProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}

	s.writeCache(ctx, key, cases)
	return cases, nil
}

func (s *problemService) PublicTestCases(ctx context.Context, problemID string) (dto.ProblemTestCasesResponse, error) {
	cases, err := s.TestCases(ctx, problemID)
	if err != nil {
		return dto.ProblemTestCasesResponse{}, err
	}

	items := make([]dto.PublicTestCaseResponse, 0, len(cases))
	for _, tc := range cases {
		items = append(items, dto.NewPublicTestCaseResponse(tc))
	}

	return dto.ProblemTestCasesResponse{
		Items: items,
		Panel: execution.BuildPanel(dto.ToExecutionCases(cases), nil),
	}, nil
}

func (s *problemService) Invalidate(ctx context.Context, problemIDs ...string) {
	if s.cache == nil {
		return
	}

	keys := []string{activeProblemsCacheKey}
	for _, id := range problemIDs {
		if id != "" {
			keys = append(keys, testCasesCacheKey(id))
		}
	}

	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("failed to invalidate problem cache")
	}
}

func (s *problemService) readCache(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}

	cached, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read problem cache")
		}
		return false
	}

	if err := json.Unmarshal(cached, target); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding malformed problem cache entry")
		return false
	}

	s.logger.Debug().Str("key", key).Msg("problem cache hit")
	return true
}

func (s *problemService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store problem cache")
	}
}
