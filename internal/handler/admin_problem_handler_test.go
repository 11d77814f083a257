package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-ide-api/internal/dto"
	"github.com/noah-isme/gema-ide-api/internal/handler"
	"github.com/noah-isme/gema-ide-api/internal/middleware"
	"github.com/noah-isme/gema-ide-api/internal/service"
)

type stubAdminProblemService struct {
	validate     *validator.Validate
	lastFilter   dto.ProblemFilter
	lastActor    string
	lastUpdate   dto.UpdateProblemRequest
	deleted      []string
	deletedCases []string
}

func (s *stubAdminProblemService) List(_ context.Context, filter dto.ProblemFilter) ([]dto.ProblemResponse, error) {
	s.lastFilter = filter
	return []dto.ProblemResponse{{ID: "calc", Title: "Calculator", Difficulty: "easy"}}, nil
}

func (s *stubAdminProblemService) Get(_ context.Context, id string) (dto.ProblemResponse, error) {
	if id != "calc" {
		return dto.ProblemResponse{}, service.ErrProblemNotFound
	}
	return dto.ProblemResponse{ID: "calc", Title: "Calculator"}, nil
}

func (s *stubAdminProblemService) Create(_ context.Context, payload dto.CreateProblemRequest, actorID string) (dto.ProblemResponse, error) {
	s.lastActor = actorID
	if err := s.validate.Struct(payload); err != nil {
		return dto.ProblemResponse{}, err
	}
	return dto.ProblemResponse{ID: "new-id", Title: payload.Title, Difficulty: payload.Difficulty}, nil
}

func (s *stubAdminProblemService) Update(_ context.Context, id string, payload dto.UpdateProblemRequest) (dto.ProblemResponse, error) {
	s.lastUpdate = payload
	if id != "calc" {
		return dto.ProblemResponse{}, service.ErrProblemNotFound
	}
	return dto.ProblemResponse{ID: id, Title: *payload.Title}, nil
}

func (s *stubAdminProblemService) Delete(_ context.Context, id string) error {
	if id != "calc" {
		return service.ErrProblemNotFound
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubAdminProblemService) ListTestCases(_ context.Context, problemID string) ([]dto.TestCaseResponse, error) {
	return []dto.TestCaseResponse{{ID: "tc-1", ProblemID: problemID, Input: "1 1 +", ExpectedOutput: "2"}}, nil
}

func (s *stubAdminProblemService) CreateTestCase(_ context.Context, problemID string, payload dto.CreateTestCaseRequest) (dto.TestCaseResponse, error) {
	if problemID != "calc" {
		return dto.TestCaseResponse{}, service.ErrProblemNotFound
	}
	return dto.TestCaseResponse{ID: "tc-2", ProblemID: problemID, Input: payload.Input, ExpectedOutput: payload.ExpectedOutput, IsHidden: payload.IsHidden}, nil
}

func (s *stubAdminProblemService) UpdateTestCase(_ context.Context, id string, _ dto.UpdateTestCaseRequest) (dto.TestCaseResponse, error) {
	if id != "tc-1" {
		return dto.TestCaseResponse{}, service.ErrTestCaseNotFound
	}
	return dto.TestCaseResponse{ID: id}, nil
}

func (s *stubAdminProblemService) DeleteTestCase(_ context.Context, id string) error {
	if id != "tc-1" {
		return service.ErrTestCaseNotFound
	}
	s.deletedCases = append(s.deletedCases, id)
	return nil
}

type staticResolver bool

func (r staticResolver) IsAdmin(context.Context, string, string) (bool, error) {
	return bool(r), nil
}

func newAdminApp(svc service.AdminProblemService, userID, role string, resolver middleware.AdminResolver) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v2/admin", asUser(userID, role), middleware.RequireAdmin(resolver))
	handler.NewAdminProblemHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestAdminProblemRoutesRequireAdmin(t *testing.T) {
	svc := &stubAdminProblemService{validate: validator.New()}

	status, _ := perform(t, newAdminApp(svc, "", "", staticResolver(true)), jsonRequest(t, http.MethodGet, "/api/v2/admin/problems", nil))
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = perform(t, newAdminApp(svc, "learner-1", "student", staticResolver(false)), jsonRequest(t, http.MethodGet, "/api/v2/admin/problems", nil))
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = perform(t, newAdminApp(svc, "mentor-1", "", staticResolver(true)), jsonRequest(t, http.MethodGet, "/api/v2/admin/problems", nil))
	require.Equal(t, fiber.StatusOK, status)
}

func TestAdminProblemListParsesFilter(t *testing.T) {
	svc := &stubAdminProblemService{validate: validator.New()}
	app := newAdminApp(svc, "admin-1", "admin", nil)

	status, body := perform(t, app, jsonRequest(t, http.MethodGet, "/api/v2/admin/problems?difficulty=easy&search=calc&include_inactive=true", nil))
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, dto.ProblemFilter{Difficulty: "easy", Search: "calc", IncludeInactive: true}, svc.lastFilter)

	var meta struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body.Meta, &meta))
	require.Equal(t, 1, meta.Total)
}

func TestAdminProblemCreate(t *testing.T) {
	svc := &stubAdminProblemService{validate: validator.New()}
	app := newAdminApp(svc, "admin-1", "admin", nil)

	status, body := perform(t, app, jsonRequest(t, http.MethodPost, "/api/v2/admin/problems", map[string]interface{}{
		"title":       "Calculator",
		"description": "Build a calculator",
		"difficulty":  "easy",
	}))
	require.Equal(t, fiber.StatusCreated, status)
	require.Equal(t, "admin-1", svc.lastActor)

	var created dto.ProblemResponse
	decodeData(t, body, &created)
	require.Equal(t, "new-id", created.ID)

	status, body = perform(t, app, jsonRequest(t, http.MethodPost, "/api/v2/admin/problems", map[string]interface{}{
		"title":      "x",
		"difficulty": "impossible",
	}))
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "validation failed", body.Message)

	var details []struct {
		Field string `json:"field"`
		Rule  string `json:"rule"`
	}
	require.NoError(t, json.Unmarshal(body.Details, &details))
	require.NotEmpty(t, details)
}

func TestAdminProblemUpdateAndDelete(t *testing.T) {
	svc := &stubAdminProblemService{validate: validator.New()}
	app := newAdminApp(svc, "admin-1", "admin", nil)

	status, _ := perform(t, app, jsonRequest(t, http.MethodPatch, "/api/v2/admin/problems/calc", map[string]string{"title": "Calc v2"}))
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "Calc v2", *svc.lastUpdate.Title)

	status, _ = perform(t, app, jsonRequest(t, http.MethodPatch, "/api/v2/admin/problems/nope", map[string]string{"title": "Calc v2"}))
	require.Equal(t, fiber.StatusNotFound, status)

	status, _ = perform(t, app, jsonRequest(t, http.MethodDelete, "/api/v2/admin/problems/calc", nil))
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, []string{"calc"}, svc.deleted)

	status, _ = perform(t, app, jsonRequest(t, http.MethodDelete, "/api/v2/admin/problems/nope", nil))
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestAdminTestCaseRoutes(t *testing.T) {
	svc := &stubAdminProblemService{validate: validator.New()}
	app := newAdminApp(svc, "admin-1", "admin", nil)

	status, body := perform(t, app, jsonRequest(t, http.MethodPost, "/api/v2/admin/problems/calc/test-cases", map[string]interface{}{
		"input":           "2 2 +",
		"expected_output": "4",
		"is_hidden":       true,
	}))
	require.Equal(t, fiber.StatusCreated, status)

	var created dto.TestCaseResponse
	decodeData(t, body, &created)
	require.True(t, created.IsHidden)
	require.Equal(t, "calc", created.ProblemID)

	status, _ = perform(t, app, jsonRequest(t, http.MethodGet, "/api/v2/admin/problems/calc/test-cases", nil))
	require.Equal(t, fiber.StatusOK, status)

	status, _ = perform(t, app, jsonRequest(t, http.MethodPatch, "/api/v2/admin/test-cases/tc-9", map[string]string{"input": "1"}))
	require.Equal(t, fiber.StatusNotFound, status)

	status, _ = perform(t, app, jsonRequest(t, http.MethodDelete, "/api/v2/admin/test-cases/tc-1", nil))
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, []string{"tc-1"}, svc.deletedCases)
}
