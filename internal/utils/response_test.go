package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/truskill-essay-api/internal/utils"
)

func TestOKIncludesMetaAndDefaults(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		data := map[string]string{"title": "Climate Change"}
		meta := map[string]int{"count": 1}
		return utils.OK(c, data, "", meta)
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Data    map[string]string      `json:"data"`
		Meta    map[string]interface{} `json:"meta"`
	}
	decode(t, resp, &payload)

	require.True(t, payload.Success)
	require.Equal(t, "success", payload.Message)
	require.Equal(t, "Climate Change", payload.Data["title"])
	require.Equal(t, float64(1), payload.Meta["count"])
}

func TestFailIncludesDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		details := map[string]string{"field": "title"}
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", details)
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Details map[string]string      `json:"details"`
		Data    map[string]interface{} `json:"data"`
	}
	decode(t, resp, &payload)

	require.False(t, payload.Success)
	require.Equal(t, "invalid payload", payload.Message)
	require.Equal(t, "title", payload.Details["field"])
	require.Nil(t, payload.Data)
}

func TestRespondUsesStatus(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		return utils.Respond(c, fiber.StatusCreated, map[string]string{"outcome": "graded"}, "saved", nil)
	})

	resp := performRequest(t, app, http.MethodPost, "/")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var payload map[string]interface{}
	decode(t, resp, &payload)
	require.Equal(t, "saved", payload["message"])
	require.NotContains(t, payload, "meta")
	require.NotContains(t, payload, "details")
}

func performRequest(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
