package metrics

import (
	"errors"
	"strconv"
	"time"

	"shop-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shop"

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AuthorizationDenied counts rejected calls by the check that failed:
	// group, groups, store, principal.
	AuthorizationDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denied_total",
		Help:      "Requests rejected by authorization checks.",
	}, []string{"check"})

	StoreCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_cache_lookups_total",
		Help:      "Merchant store cache lookups by result (hit, miss).",
	}, []string{"result"})
)

func Middleware(skipPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == skipPath {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		var ae *apperr.Error
		switch {
		case errors.As(err, &fe):
			status = fe.Code
		case errors.As(err, &ae):
			status = ae.HTTPStatus()
		case err != nil:
			status = fiber.StatusInternalServerError
		}

		// label values outlive the request, fiber strings do not
		method := utils.CopyString(c.Method())
		route := utils.CopyString(c.Route().Path)
		RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
