package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"room-passport/internal/common/logging"
	"room-passport/internal/common/metrics"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RecordsStatusAndRoute(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := metrics.New()

	app := fiber.New()
	app.Use(Logger(logging.NewFromCore(core), m))
	app.Get("/passports/:id/download", func(c fiber.Ctx) error {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "passport not found"})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/passports/42/download", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "/passports/42/download", entry.ContextMap()["path"])
	assert.Equal(t, int64(http.StatusNotFound), entry.ContextMap()["status"])

	count := testutil.CollectAndCount(m.Registry(), "room_passport_http_requests_total")
	assert.Equal(t, 1, count)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	app := fiber.New()
	app.Use(CORS("https://rooms.example"))
	app.Get("/", func(c fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://rooms.example")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "https://rooms.example", resp.Header.Get("Access-Control-Allow-Origin"))
}
