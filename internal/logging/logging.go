package logging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey struct{}

type Config struct {
	Level       string
	Encoding    string // json | console
	Development bool
}

var (
	mu            sync.RWMutex
	defaultLogger = zap.NewNop().Sugar()
)

// SetConfig replaces the default logger.
func SetConfig(cfg *Config) error {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	if cfg.Encoding != "" {
		zcfg.Encoding = cfg.Encoding
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := zcfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	defaultLogger = l.Sugar()
	mu.Unlock()
	return nil
}

func DefaultLogger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request scoped logger, or the default one.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*zap.SugaredLogger); ok {
			return l
		}
	}
	return DefaultLogger()
}

const RequestIDHeader = "X-Request-ID"

// Middleware tags every request with an id and a logger carrying it, and
// logs the outcome once the handler chain returns.
func Middleware(skipPaths ...string) fiber.Handler {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		requestID := utils.CopyString(c.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)

		logger := DefaultLogger().With("request_id", requestID)
		c.SetUserContext(WithLogger(c.UserContext(), logger))

		start := time.Now()
		err := c.Next()
		if _, ok := skip[c.Path()]; ok {
			return err
		}

		status := c.Response().StatusCode()
		var fe *fiber.Error
		var se interface{ HTTPStatus() int }
		switch {
		case errors.As(err, &fe):
			status = fe.Code
		case errors.As(err, &se):
			status = se.HTTPStatus()
		case err != nil:
			status = fiber.StatusInternalServerError
		}
		logger.Infow("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start).String(),
			"ip", c.IP(),
		)
		return err
	}
}
