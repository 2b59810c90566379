package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

// A taskId member in a child body is accepted and replaced by the path id.

func decodeNewSubtask(raw body, taskID int64) (types.NewSubtask, error) {
	f := newFields(raw, "text", "completed", "taskId")
	in := types.NewSubtask{
		Text:      required[string](f, "text"),
		Completed: optional[bool](f, "completed").Value,
		TaskID:    taskID,
	}
	f.merge(in.Validate())
	return in, f.err()
}

func decodeSubtaskPatch(raw body) (types.SubtaskPatch, error) {
	f := newFields(raw, "text", "completed")
	p := types.SubtaskPatch{
		Text:      optional[string](f, "text"),
		Completed: optional[bool](f, "completed"),
	}
	f.merge(p.Validate())
	return p, f.err()
}

func decodeNewComment(raw body, taskID int64) (types.NewComment, error) {
	f := newFields(raw, "author", "text", "taskId")
	in := types.NewComment{
		Author: required[string](f, "author"),
		Text:   required[string](f, "text"),
		TaskID: taskID,
	}
	f.merge(in.Validate())
	return in, f.err()
}

func decodeNewRequirement(raw body, taskID int64) (types.NewRequirement, error) {
	f := newFields(raw, "text", "parentId", "taskId")
	in := types.NewRequirement{
		Text:     required[string](f, "text"),
		ParentID: nullable[int64](f, "parentId").Value,
		TaskID:   taskID,
	}
	f.merge(in.Validate())
	return in, f.err()
}

// listChildren serves GET /api/tasks/:id/<children>. An unknown task is a
// 404 rather than an empty list.
func listChildren[T any](s types.Store, logger *log.Logger, e entity, list func(context.Context, int64) ([]T, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := parseID(c, "id")
		if !ok {
			return invalidID(c, entityTask)
		}
		ctx := c.Request().Context()
		if _, err := s.GetTaskByID(ctx, id); err != nil {
			return respondError(c, logger, err, entityTask, "fetch")
		}
		items, err := list(ctx, id)
		if err != nil {
			return respondError(c, logger, err, e, "fetch")
		}
		return c.JSON(http.StatusOK, items)
	}
}

// createChild serves POST /api/tasks/:id/<children>. The task id comes
// from the path.
func createChild[In, Out any](logger *log.Logger, e entity, decode func(body, int64) (In, error), create func(context.Context, In) (*Out, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		taskID, ok := parseID(c, "id")
		if !ok {
			return invalidID(c, entityTask)
		}
		raw, err := decodeBody(c)
		if err != nil {
			return respondError(c, logger, err, e, "create")
		}
		in, err := decode(raw, taskID)
		if err != nil {
			return respondError(c, logger, err, e, "create")
		}
		out, err := create(c.Request().Context(), in)
		if err != nil {
			return respondError(c, logger, err, e, "create")
		}
		return c.JSON(http.StatusCreated, out)
	}
}

func updateSubtask(s types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := parseID(c, "id")
		if !ok {
			return invalidID(c, entitySubtask)
		}
		raw, err := decodeBody(c)
		if err != nil {
			return respondError(c, logger, err, entitySubtask, "update")
		}
		patch, err := decodeSubtaskPatch(raw)
		if err != nil {
			return respondError(c, logger, err, entitySubtask, "update")
		}
		sub, err := s.UpdateSubtask(c.Request().Context(), id, patch)
		if err != nil {
			return respondError(c, logger, err, entitySubtask, "update")
		}
		return c.JSON(http.StatusOK, sub)
	}
}

func deleteSubtask(s types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := parseID(c, "id")
		if !ok {
			return invalidID(c, entitySubtask)
		}
		deleted, err := s.DeleteSubtask(c.Request().Context(), id)
		if err != nil {
			return respondError(c, logger, err, entitySubtask, "delete")
		}
		if !deleted {
			return notFound(c, entitySubtask)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
