package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"shop-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRouteAndStatus(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(fiber.StatusUnauthorized)
		},
	})
	app.Use(Middleware("/metrics"))
	app.Get("/metrics", Handler())
	app.Get("/things/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/secret", func(c *fiber.Ctx) error { return apperr.Unauthorized() })

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/things/:id", "200"))
	denied := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/secret", "401"))

	for _, path := range []string{"/things/1", "/things/2", "/secret"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, before+2, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/things/:id", "200")))
	assert.Equal(t, denied+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/secret", "401")))

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "shop_http_requests_total")
}

func TestMetricsGatherAfterMixedMethods(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware("/metrics"))
	app.Get("/metrics", Handler())
	app.Post("/orders", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	app.Delete("/orders/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/orders/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 3; i++ {
		for _, r := range []struct{ method, path string }{
			{fiber.MethodPost, "/orders"},
			{fiber.MethodDelete, "/orders/1"},
			{fiber.MethodGet, "/orders/1"},
			{fiber.MethodPatch, "/missing"},
		} {
			resp, err := app.Test(httptest.NewRequest(r.method, r.path, nil))
			require.NoError(t, err)
			resp.Body.Close()
		}
	}

	_, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 3.0, testutil.ToFloat64(RequestsTotal.WithLabelValues("POST", "/orders", "201")))
}
