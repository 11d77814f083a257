package handler_test

import (
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-ide-api/internal/dto"
	"github.com/noah-isme/gema-ide-api/internal/handler"
	"github.com/noah-isme/gema-ide-api/internal/service"
	"github.com/noah-isme/gema-ide-api/internal/session"
)

func startConsoleServer(t *testing.T, svc service.IDEService, userID string) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	group := app.Group("/api/v2/ide", asUser(userID, ""))
	handler.NewConsoleSocketHandler(svc, validator.New(), zerolog.Nop()).Register(group)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "ws://" + ln.Addr().String() + "/api/v2/ide/console/ws"
}

func dialConsole(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, messageType string) ([]dto.ConsoleMessage, dto.ConsoleMessage) {
	t.Helper()
	var events []dto.ConsoleMessage
	for {
		var message dto.ConsoleMessage
		require.NoError(t, conn.ReadJSON(&message))
		if message.Type == messageType {
			return events, message
		}
		require.Equal(t, "console", message.Type, "unexpected %q before %q", message.Type, messageType)
		events = append(events, message)
	}
}

func TestConsoleSocketStreamsRunAndResult(t *testing.T) {
	svc := &stubIDEService{}
	url := startConsoleServer(t, svc, "learner-1")
	conn := dialConsole(t, url)

	require.NoError(t, conn.WriteJSON(dto.ConsoleCommand{Action: "submit"}))
	events, final := readUntil(t, conn, "result")

	require.Len(t, events, 4)
	require.Equal(t, "> Running 1 test case(s)...", events[0].Event.Line)
	require.Equal(t, "✓ PASSED - Test 1", events[1].Event.Line)
	require.NotNil(t, final.Result)
	require.Equal(t, session.ModeSubmit, final.Result.Mode)
	require.NotNil(t, final.Result.Verdict)

	require.NoError(t, conn.WriteJSON(dto.ConsoleCommand{Action: "execute", Input: "5\n3\n+"}))
	events, final = readUntil(t, conn, "execute")
	require.Len(t, events, 2)
	require.Equal(t, "8", final.Execute.Output)
}

func TestConsoleSocketReportsCommandErrors(t *testing.T) {
	svc := &stubIDEService{runErr: session.ErrRunInProgress}
	url := startConsoleServer(t, svc, "learner-1")
	conn := dialConsole(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	_, final := readUntil(t, conn, "error")
	require.Equal(t, "invalid command", final.Error)

	require.NoError(t, conn.WriteJSON(dto.ConsoleCommand{Action: "deploy"}))
	_, final = readUntil(t, conn, "error")
	require.Equal(t, "unknown action", final.Error)

	require.NoError(t, conn.WriteJSON(dto.ConsoleCommand{Action: "run"}))
	_, final = readUntil(t, conn, "error")
	require.Equal(t, "a run is already in progress", final.Error)
}

func TestConsoleSocketRequiresUpgrade(t *testing.T) {
	app := fiber.New()
	handler.NewConsoleSocketHandler(&stubIDEService{}, validator.New(), zerolog.Nop()).Register(app.Group("/api/v2/ide"))

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v2/ide/console/ws", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestConsoleSocketClosesWithoutUser(t *testing.T) {
	url := startConsoleServer(t, &stubIDEService{}, "")
	conn := dialConsole(t, url)

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	require.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}
