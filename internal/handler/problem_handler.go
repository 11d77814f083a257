package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-ide-api/internal/middleware"
	"github.com/noah-isme/gema-ide-api/internal/service"
	"github.com/noah-isme/gema-ide-api/internal/utils"
)

// ProblemHandler serves the learner-facing problem catalogue.
type ProblemHandler struct {
	problems service.ProblemService
	ide      service.IDEService
	logger   zerolog.Logger
}

// NewProblemHandler constructs a problem handler.
func NewProblemHandler(problems service.ProblemService, ide service.IDEService, logger zerolog.Logger) *ProblemHandler {
	return &ProblemHandler{
		problems: problems,
		ide:      ide,
		logger:   logger.With().Str("component", "problem_handler").Logger(),
	}
}

// Register binds catalogue routes.
func (h *ProblemHandler) Register(router fiber.Router) {
	router.Get("/problems", h.navigator)
	router.Get("/problems/:id", h.get)
	router.Get("/problems/:id/test-cases", h.testCases)
}

func (h *ProblemHandler) navigator(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	navigator, err := h.ide.Navigator(requestContext(c), userID)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to load problems")
	}

	return utils.OK(c, navigator, "problems retrieved", fiber.Map{
		"total":        navigator.Total,
		"solved_count": navigator.SolvedCount,
	})
}

func (h *ProblemHandler) get(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid problem id")
	}

	problem, err := h.problems.Get(requestContext(c), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to load problem")
	}

	return utils.SendSuccess(c, "problem retrieved", problem)
}

func (h *ProblemHandler) testCases(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid problem id")
	}

	cases, err := h.problems.PublicTestCases(requestContext(c), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to load test cases")
	}

	return utils.SendSuccess(c, "test cases retrieved", cases)
}
