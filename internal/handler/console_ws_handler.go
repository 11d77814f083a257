package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-ide-api/internal/dto"
	"github.com/noah-isme/gema-ide-api/internal/execution"
	"github.com/noah-isme/gema-ide-api/internal/middleware"
	"github.com/noah-isme/gema-ide-api/internal/observability"
	"github.com/noah-isme/gema-ide-api/internal/service"
	"github.com/noah-isme/gema-ide-api/internal/session"
)

// Console socket message types.
const (
	consoleMessageEvent   = "console"
	consoleMessageResult  = "result"
	consoleMessageExecute = "execute"
	consoleMessageError   = "error"

	localRequestCtx = "request_ctx"
)

// ConsoleSocketHandler streams console lines while runs execute.
type ConsoleSocketHandler struct {
	service   service.IDEService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewConsoleSocketHandler constructs the console websocket handler.
func NewConsoleSocketHandler(service service.IDEService, validate *validator.Validate, logger zerolog.Logger) *ConsoleSocketHandler {
	return &ConsoleSocketHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "console_ws_handler").Logger(),
	}
}

// Register binds the websocket upgrade route.
func (h *ConsoleSocketHandler) Register(router fiber.Router) {
	router.Use("/console/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals(localRequestCtx, requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/console/ws", websocket.New(h.handleConnection))
}

func (h *ConsoleSocketHandler) handleConnection(conn *websocket.Conn) {
	userID, _ := conn.Locals(middleware.LocalUserID).(string)
	if userID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "user id missing"))
		_ = conn.Close()
		return
	}

	ctx, _ := conn.Locals(localRequestCtx).(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}

	gauge := observability.ConsoleSocketsActive()
	gauge.Inc()
	defer gauge.Dec()

	logger := h.logger.With().Str("user_id", userID).Logger()
	logger.Info().Msg("console websocket connected")
	defer logger.Info().Msg("console websocket disconnected")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("console websocket read failed")
			}
			return
		}

		if err := h.dispatch(ctx, conn, userID, raw); err != nil {
			logger.Debug().Err(err).Msg("console websocket write failed")
			return
		}
	}
}

// dispatch runs one command. Only write failures are returned.
func (h *ConsoleSocketHandler) dispatch(ctx context.Context, conn *websocket.Conn, userID string, raw []byte) error {
	var command dto.ConsoleCommand
	if err := json.Unmarshal(raw, &command); err != nil {
		return conn.WriteJSON(dto.ConsoleMessage{Type: consoleMessageError, Error: "invalid command"})
	}
	if err := h.validator.Struct(command); err != nil {
		return conn.WriteJSON(dto.ConsoleMessage{Type: consoleMessageError, Error: "unknown action"})
	}

	var writeErr error
	listener := func(event execution.ConsoleEvent) {
		if writeErr != nil {
			return
		}
		writeErr = conn.WriteJSON(dto.ConsoleMessage{Type: consoleMessageEvent, Event: &event})
	}

	var (
		message dto.ConsoleMessage
		err     error
	)
	switch command.Action {
	case string(session.ModeRun), string(session.ModeSubmit):
		var result dto.RunResponse
		result, err = h.service.Run(ctx, userID, session.Mode(command.Action), listener)
		message = dto.ConsoleMessage{Type: consoleMessageResult, Result: &result}
	default:
		var result dto.ExecuteResponse
		result, err = h.service.Execute(ctx, userID, dto.ExecuteRequest{Input: command.Input}, listener)
		message = dto.ConsoleMessage{Type: consoleMessageExecute, Execute: &result}
	}
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		return conn.WriteJSON(dto.ConsoleMessage{Type: consoleMessageError, Error: h.commandError(userID, err)})
	}
	return conn.WriteJSON(message)
}

func (h *ConsoleSocketHandler) commandError(userID string, err error) string {
	switch {
	case errors.Is(err, session.ErrRunInProgress):
		return "a run is already in progress"
	case errors.Is(err, session.ErrRunSuperseded):
		return "problem changed during the run"
	case errors.Is(err, service.ErrNoProblemAvailable):
		return "no active problem available"
	case isValidationError(err):
		return "input too large"
	default:
		h.logger.Error().Err(err).Str("user_id", userID).Msg("console command failed")
		return "command failed"
	}
}
