package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ddt-backend/internal/config"
)

func TestMiddleware_LogsWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(Middleware(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error {
		FromCtx(c).Info("inside")
		return c.SendString("ok")
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "non trovato")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.ErrInternalServerError
	})

	for _, path := range []string{"/ok", "/missing", "/boom"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	inside := logs.FilterMessage("inside").All()
	require.Len(t, inside, 1)
	assert.NotEmpty(t, inside[0].ContextMap()["request_id"])

	rejected := logs.FilterMessage("request rejected").All()
	require.Len(t, rejected, 1)
	assert.EqualValues(t, 404, rejected[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, logs.FilterMessage("request failed").All()[0].Level)
}

func TestFromCtx_WithoutMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		assert.NotNil(t, FromCtx(c))
		return nil
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestNew_Levels(t *testing.T) {
	logger, err := New(&config.Config{LogLevel: "warn", LogFormat: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = New(&config.Config{LogLevel: "chatty", LogFormat: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}
