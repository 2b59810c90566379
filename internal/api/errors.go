package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

type errorResponse struct {
	Message string             `json:"message"`
	Errors  []types.FieldError `json:"errors,omitempty"`
}

// entity names the resource a handler serves, for response messages.
type entity string

const (
	entityTask        entity = "task"
	entitySubtask     entity = "subtask"
	entityComment     entity = "comment"
	entityRequirement entity = "requirement"
)

func (e entity) title() string {
	if e == "" {
		return ""
	}
	return strings.ToUpper(string(e[:1])) + string(e[1:])
}

func invalidID(c echo.Context, e entity) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid " + string(e) + " ID"})
}

func notFound(c echo.Context, e entity) error {
	return c.JSON(http.StatusNotFound, errorResponse{Message: e.title() + " not found"})
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// respondError maps a store or validation error onto a response. Only
// unexpected failures are logged; their details stay out of the body.
func respondError(c echo.Context, logger *log.Logger, err error, e entity, action string) error {
	var (
		verrs types.ValidationErrors
		rerr  *types.ReferenceError
	)
	switch {
	case errors.Is(err, errInvalidBody):
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid " + string(e) + " data"})
	case errors.As(err, &verrs):
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid " + string(e) + " data", Errors: verrs})
	case errors.As(err, &rerr):
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid " + string(e) + " data", Errors: rerr.FieldErrors()})
	case errors.Is(err, types.ErrNotFound):
		return notFound(c, e)
	}
	logger.WithFields(log.Fields{
		"request_id": requestID(c),
		"entity":     string(e),
		"action":     action,
	}).WithError(err).Error("store operation failed")
	return c.JSON(http.StatusInternalServerError, errorResponse{Message: fmt.Sprintf("Failed to %s %s", action, e)})
}

// errorHandler renders errors that escape handlers, such as unknown routes
// and rate limit rejections, in the same body shape.
func errorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
		} else {
			logger.WithField("request_id", requestID(c)).WithError(err).Error("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, errorResponse{Message: msg})
		}
		if err != nil {
			logger.WithError(err).Warn("writing error response")
		}
	}
}
