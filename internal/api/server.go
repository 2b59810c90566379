// Package api serves the task workspace over HTTP. Handlers validate input,
// call the types.Store and map its outcomes onto status codes.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

const (
	healthPath      = "/healthz"
	shutdownTimeout = 10 * time.Second
)

// Options tunes the middleware stack. A zero RateLimit disables rate
// limiting.
type Options struct {
	RateLimit    float64
	RateBurst    int
	AllowOrigins []string
}

// New returns an echo instance with middleware and every route registered.
func New(s types.Store, logger *log.Logger, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(requestIDMiddleware())
	e.Use(accessLog(logger))
	e.Use(traceMiddleware())
	e.Use(recoverMiddleware(logger))
	e.Use(corsMiddleware(opts.AllowOrigins))
	if opts.RateLimit > 0 {
		e.Use(rateLimitMiddleware(opts.RateLimit, opts.RateBurst))
	}

	Register(e, s, logger)
	return e
}

// Register wires up all API routes on the provided Echo instance. Store
// calls are traced.
func Register(e *echo.Echo, s types.Store, logger *log.Logger) {
	s = traceStore(s)
	e.GET(healthPath, healthz)

	g := e.Group("/api")
	g.GET("/tasks", getTasks(s, logger))
	g.POST("/tasks", createTask(s, logger))
	g.GET("/tasks/:id", getTask(s, logger))
	g.PATCH("/tasks/:id", updateTask(s, logger))
	g.DELETE("/tasks/:id", deleteTask(s, logger))

	g.GET("/tasks/:id/subtasks", listChildren(s, logger, entitySubtask, s.GetSubtasksByTaskID))
	g.POST("/tasks/:id/subtasks", createChild(logger, entitySubtask, decodeNewSubtask, s.CreateSubtask))
	g.GET("/tasks/:id/comments", listChildren(s, logger, entityComment, s.GetCommentsByTaskID))
	g.POST("/tasks/:id/comments", createChild(logger, entityComment, decodeNewComment, s.CreateComment))
	g.GET("/tasks/:id/requirements", listChildren(s, logger, entityRequirement, s.GetRequirementsByTaskID))
	g.POST("/tasks/:id/requirements", createChild(logger, entityRequirement, decodeNewRequirement, s.CreateRequirement))

	g.PATCH("/subtasks/:id", updateSubtask(s, logger))
	g.DELETE("/subtasks/:id", deleteSubtask(s, logger))

	g.GET("/stats", getStats(s, logger))
	g.GET("/analytics/status", getAnalyticsStatus)
	g.GET("/analytics/events", getAnalyticsEvents)
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Serve runs e on addr until ctx is cancelled, then shuts down gracefully,
// giving in-flight requests a bounded time to finish.
func Serve(ctx context.Context, e *echo.Echo, addr string, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
