package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-ide-api/internal/dto"
	"github.com/noah-isme/gema-ide-api/internal/middleware"
	"github.com/noah-isme/gema-ide-api/internal/service"
	"github.com/noah-isme/gema-ide-api/internal/session"
	"github.com/noah-isme/gema-ide-api/internal/utils"
)

// IDEHandler exposes the per-user IDE session.
type IDEHandler struct {
	service service.IDEService
	logger  zerolog.Logger
}

// NewIDEHandler constructs the IDE handler.
func NewIDEHandler(service service.IDEService, logger zerolog.Logger) *IDEHandler {
	return &IDEHandler{
		service: service,
		logger:  logger.With().Str("component", "ide_handler").Logger(),
	}
}

// Register binds session routes. Guards run ahead of every route that
// evaluates code.
func (h *IDEHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/session", h.session)
	router.Post("/session/problem", h.selectProblem)
	router.Put("/session/code", h.updateCode)
	router.Post("/session/navigator/toggle", h.toggleNavigator)
	router.Delete("/session/console", h.clearConsole)

	router.Post("/session/execute", guarded(guards, h.execute)...)
	router.Post("/session/run", guarded(guards, h.runMode(session.ModeRun))...)
	router.Post("/session/submit", guarded(guards, h.runMode(session.ModeSubmit))...)
}

func (h *IDEHandler) session(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	response, err := h.service.Session(requestContext(c), userID)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to load session")
	}
	return utils.SendSuccess(c, "session retrieved", response)
}

func (h *IDEHandler) selectProblem(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.SelectProblemRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.SelectProblem(requestContext(c), userID, payload)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to select problem")
	}
	return utils.SendSuccess(c, "problem selected", response)
}

func (h *IDEHandler) updateCode(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.UpdateCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.UpdateCode(requestContext(c), userID, payload)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to save code")
	}
	return utils.SendSuccess(c, "code saved", response)
}

func (h *IDEHandler) toggleNavigator(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	response, err := h.service.ToggleNavigator(requestContext(c), userID)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to toggle navigator")
	}
	return utils.SendSuccess(c, "navigator toggled", response)
}

func (h *IDEHandler) clearConsole(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	response, err := h.service.ClearConsole(requestContext(c), userID)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to clear console")
	}
	return utils.SendSuccess(c, "console cleared", response)
}

func (h *IDEHandler) execute(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.ExecuteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Execute(requestContext(c), userID, payload)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to run code")
	}
	return utils.SendSuccess(c, "code executed", response)
}

func (h *IDEHandler) runMode(mode session.Mode) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		if userID == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
		}

		response, err := h.service.Run(requestContext(c), userID, mode)
		if err != nil {
			return handleServiceError(c, h.logger, err, "failed to run test cases")
		}

		message := "test cases executed"
		switch {
		case !response.Ran:
			message = "no test cases to run"
		case mode == session.ModeSubmit:
			message = "solution submitted"
		}
		return utils.SendSuccess(c, message, response)
	}
}

func guarded(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(guards)+1)
	chain = append(chain, guards...)
	return append(chain, handler)
}
