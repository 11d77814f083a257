package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-ide-api/internal/utils"
)

type navigatorEntry struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func TestOKCarriesNavigatorMeta(t *testing.T) {
	app := fiber.New()
	app.Get("/problems", func(c *fiber.Ctx) error {
		items := []navigatorEntry{{ID: "calc", Status: "solved"}, {ID: "echo", Status: "unsolved"}}
		return utils.OK(c, items, "", fiber.Map{"total": 2, "solved_count": 1})
	})

	resp := performRequest(t, app, http.MethodGet, "/problems")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool             `json:"success"`
		Message string           `json:"message"`
		Data    []navigatorEntry `json:"data"`
		Meta    struct {
			Total       int `json:"total"`
			SolvedCount int `json:"solved_count"`
		} `json:"meta"`
	}
	decode(t, resp, &payload)

	require.True(t, payload.Success)
	require.Equal(t, "success", payload.Message)
	require.Equal(t, []navigatorEntry{{ID: "calc", Status: "solved"}, {ID: "echo", Status: "unsolved"}}, payload.Data)
	require.Equal(t, 2, payload.Meta.Total)
	require.Equal(t, 1, payload.Meta.SolvedCount)
}

func TestSendSuccessWithStatusDefaults(t *testing.T) {
	app := fiber.New()
	app.Post("/problems", func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "problem created", fiber.Map{"id": "calc"})
	})
	app.Put("/session/code", func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, 0, "", fiber.Map{"code": "switch"})
	})

	resp := performRequest(t, app, http.MethodPost, "/problems")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created map[string]interface{}
	decode(t, resp, &created)
	require.Equal(t, "problem created", created["message"])
	require.NotContains(t, created, "meta")

	resp = performRequest(t, app, http.MethodPut, "/session/code")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var saved map[string]interface{}
	decode(t, resp, &saved)
	require.Equal(t, "success", saved["message"])
}

func TestFailCarriesValidationDetails(t *testing.T) {
	app := fiber.New()
	app.Post("/session/problem", func(c *fiber.Ctx) error {
		details := []map[string]string{{"field": "problem_id", "rule": "required"}}
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	})
	app.Post("/session/run", func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusConflict, "a run is already in progress")
	})

	resp := performRequest(t, app, http.MethodPost, "/session/problem")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Details []map[string]string    `json:"details"`
		Data    map[string]interface{} `json:"data"`
	}
	decode(t, resp, &payload)

	require.False(t, payload.Success)
	require.Equal(t, "validation failed", payload.Message)
	require.Equal(t, []map[string]string{{"field": "problem_id", "rule": "required"}}, payload.Details)
	require.Nil(t, payload.Data)

	resp = performRequest(t, app, http.MethodPost, "/session/run")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	var conflict map[string]interface{}
	decode(t, resp, &conflict)
	require.Equal(t, false, conflict["success"])
	require.NotContains(t, conflict, "details")
}

func performRequest(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
