package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-ide-api/internal/middleware"
	"github.com/noah-isme/gema-ide-api/internal/service"
	"github.com/noah-isme/gema-ide-api/internal/session"
	"github.com/noah-isme/gema-ide-api/internal/utils"
)

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func pathID(c *fiber.Ctx, key string) (string, bool) {
	id := strings.TrimSpace(c.Params(key))
	return id, id != "" && len(id) <= 64
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) []fieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make([]fieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details = append(details, fieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return details
}

// handleServiceError maps domain errors onto the response envelope.
func handleServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.Is(err, service.ErrProblemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "problem not found")
	case errors.Is(err, service.ErrTestCaseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "test case not found")
	case errors.Is(err, service.ErrNoProblemAvailable):
		return utils.SendError(c, fiber.StatusNotFound, "no active problem available")
	case errors.Is(err, session.ErrRunInProgress):
		return utils.SendError(c, fiber.StatusConflict, "a run is already in progress")
	case errors.Is(err, session.ErrRunSuperseded):
		return utils.SendError(c, fiber.StatusConflict, "problem changed during the run")
	case errors.Is(err, service.ErrInvalidRunMode):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid run mode")
	case errors.Is(err, service.ErrProblemStatementEmpty):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "description cannot be empty")
	default:
		requestLogger(logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
