package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-ide-api/internal/dto"
	"github.com/noah-isme/gema-ide-api/internal/middleware"
	"github.com/noah-isme/gema-ide-api/internal/service"
	"github.com/noah-isme/gema-ide-api/internal/utils"
)

// AdminProblemHandler manages problem content for administrators.
type AdminProblemHandler struct {
	service service.AdminProblemService
	logger  zerolog.Logger
}

// NewAdminProblemHandler constructs the handler.
func NewAdminProblemHandler(service service.AdminProblemService, logger zerolog.Logger) *AdminProblemHandler {
	return &AdminProblemHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_problem_handler").Logger(),
	}
}

// Register attaches routes.
func (h *AdminProblemHandler) Register(router fiber.Router) {
	router.Get("/problems", h.list)
	router.Post("/problems", h.create)
	router.Get("/problems/:id", h.get)
	router.Patch("/problems/:id", h.update)
	router.Delete("/problems/:id", h.delete)
	router.Get("/problems/:id/test-cases", h.listTestCases)
	router.Post("/problems/:id/test-cases", h.createTestCase)
	router.Patch("/test-cases/:id", h.updateTestCase)
	router.Delete("/test-cases/:id", h.deleteTestCase)
}

func (h *AdminProblemHandler) list(c *fiber.Ctx) error {
	var filter dto.ProblemFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	items, err := h.service.List(requestContext(c), filter)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to list problems")
	}

	meta := fiber.Map{
		"total": len(items),
		"filters": fiber.Map{
			"difficulty":       filter.Difficulty,
			"search":           filter.Search,
			"include_inactive": filter.IncludeInactive,
		},
	}
	return utils.OK(c, items, "problems retrieved", meta)
}

func (h *AdminProblemHandler) get(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid problem id")
	}

	problem, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to load problem")
	}
	return utils.SendSuccess(c, "problem retrieved", problem)
}

func (h *AdminProblemHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateProblemRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	problem, err := h.service.Create(requestContext(c), payload, middleware.UserID(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to create problem")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "problem created", problem)
}

func (h *AdminProblemHandler) update(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid problem id")
	}
	var payload dto.UpdateProblemRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	problem, err := h.service.Update(requestContext(c), id, payload)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to update problem")
	}
	return utils.SendSuccess(c, "problem updated", problem)
}

func (h *AdminProblemHandler) delete(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid problem id")
	}

	if err := h.service.Delete(requestContext(c), id); err != nil {
		return handleServiceError(c, h.logger, err, "failed to delete problem")
	}
	return utils.SendSuccess(c, "problem deleted", fiber.Map{"id": id})
}

func (h *AdminProblemHandler) listTestCases(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid problem id")
	}

	items, err := h.service.ListTestCases(requestContext(c), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to list test cases")
	}
	return utils.OK(c, items, "test cases retrieved", fiber.Map{"total": len(items)})
}

func (h *AdminProblemHandler) createTestCase(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid problem id")
	}
	var payload dto.CreateTestCaseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	testCase, err := h.service.CreateTestCase(requestContext(c), id, payload)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to create test case")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "test case created", testCase)
}

func (h *AdminProblemHandler) updateTestCase(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid test case id")
	}
	var payload dto.UpdateTestCaseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	testCase, err := h.service.UpdateTestCase(requestContext(c), id, payload)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to update test case")
	}
	return utils.SendSuccess(c, "test case updated", testCase)
}

func (h *AdminProblemHandler) deleteTestCase(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid test case id")
	}

	if err := h.service.DeleteTestCase(requestContext(c), id); err != nil {
		return handleServiceError(c, h.logger, err, "failed to delete test case")
	}
	return utils.SendSuccess(c, "test case deleted", fiber.Map{"id": id})
}
