package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screepers/screeps-proxy/pkg/serverlist"
)

func TestLanding(t *testing.T) {
	app := fiber.New()
	app.Get("/", Landing([]serverlist.Server{
		{Name: "Official", URL: "https://screeps.com"},
		{Name: "Local", URL: "http://localhost:21025"},
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `href="/(https://screeps.com)/"`)
	assert.Contains(t, string(body), "Local")
}

func TestLandingEmpty(t *testing.T) {
	app := fiber.New()
	app.Get("/", Landing(nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "No servers configured")
}
