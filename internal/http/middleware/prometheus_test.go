package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromApp(t *testing.T) (*fiber.App, *PrometheusMiddleware) {
	t.Helper()
	// fresh registry per test avoids duplicate registration
	m, err := NewPrometheusMiddleware(prometheus.NewRegistry())
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	return app, m
}

func TestPrometheusMiddleware(t *testing.T) {
	app, m := newPromApp(t)

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	app.Get("/error", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad request")
	})

	for _, req := range []struct{ method, path string }{{"GET", "/test"}, {"POST", "/test"}, {"GET", "/error"}} {
		_, err := app.Test(httptest.NewRequest(req.method, req.path, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/test", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestCount.WithLabelValues("POST", "/test", "201")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/error", "400")))
}

func TestPrometheusMiddleware_ExcludeMetrics(t *testing.T) {
	app, m := newPromApp(t)
	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)

	assert.Equal(t, 0, testutil.CollectAndCount(m.requestCount))
}

func TestPrometheusMiddleware_PathPattern(t *testing.T) {
	app, m := newPromApp(t)
	app.Get("/api/v1/contracts/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/api/v1/contracts/123", nil))
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/api/v1/contracts/:id", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestPrometheusMiddleware_LabelsSurviveLaterRequests(t *testing.T) {
	app, m := newPromApp(t)
	app.Post("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	app.Get("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})

	_, err := app.Test(httptest.NewRequest("POST", "/test", nil))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := app.Test(httptest.NewRequest("GET", "/zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", nil))
		require.NoError(t, err)
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestCount.WithLabelValues("POST", "/test", "201")))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/*", "404")))
}
