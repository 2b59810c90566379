package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesh-intelligence/workbench/pkg/types"
	"github.com/mesh-intelligence/workbench/pkg/workbench"
)

// tracerName identifies spans started by this package. Spans go to the
// global tracer provider, which is a no-op unless the host installs one.
const tracerName = workbench.ModulePath + "/internal/api"

const (
	attrStoreOp   = attribute.Key("workbench.store.op")
	attrID        = attribute.Key("workbench.id")
	attrNotFound  = attribute.Key("workbench.not_found")
	attrRejected  = attribute.Key("workbench.rejected")
	attrRequestID = attribute.Key("workbench.request_id")
)

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// traceMiddleware opens one server span per request. Store spans started
// by the handler become its children.
func traceMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route := c.Path()
			ctx, span := tracer().Start(req.Context(), req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("http.route", route),
					attrRequestID.String(requestID(c)),
				))
			defer span.End()

			c.SetRequest(req.WithContext(ctx))
			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			return nil
		}
	}
}

// endSpan classifies a store outcome on span. Only backend failures mark
// the span as errored; not-found and rejected input are normal outcomes.
func endSpan(span trace.Span, err error) {
	defer span.End()

	var (
		be    *types.BackendError
		rerr  *types.ReferenceError
		verrs types.ValidationErrors
	)
	switch {
	case err == nil:
	case errors.As(err, &be):
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend failure")
	case errors.Is(err, types.ErrNotFound):
		span.SetAttributes(attrNotFound.Bool(true))
	case errors.As(err, &rerr), errors.As(err, &verrs), errors.Is(err, types.ErrDuplicate):
		span.SetAttributes(attrRejected.Bool(true))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func traced[T any](ctx context.Context, op string, fn func(context.Context) (T, error), attrs ...attribute.KeyValue) (T, error) {
	ctx, span := tracer().Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append(attrs, attrStoreOp.String(op))...))
	v, err := fn(ctx)
	endSpan(span, err)
	return v, err
}

// tracedStore wraps every store call in a span.
type tracedStore struct {
	next types.Store
}

var _ types.Store = tracedStore{}

func traceStore(s types.Store) types.Store {
	if ts, ok := s.(tracedStore); ok {
		return ts
	}
	return tracedStore{next: s}
}

func (t tracedStore) GetUser(ctx context.Context, id int64) (*types.User, error) {
	return traced(ctx, "GetUser", func(ctx context.Context) (*types.User, error) {
		return t.next.GetUser(ctx, id)
	}, attrID.Int64(id))
}

func (t tracedStore) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	return traced(ctx, "GetUserByUsername", func(ctx context.Context) (*types.User, error) {
		return t.next.GetUserByUsername(ctx, username)
	})
}

func (t tracedStore) CreateUser(ctx context.Context, in types.NewUser) (*types.User, error) {
	return traced(ctx, "CreateUser", func(ctx context.Context) (*types.User, error) {
		return t.next.CreateUser(ctx, in)
	})
}

func (t tracedStore) GetAllTasks(ctx context.Context) ([]types.Task, error) {
	return traced(ctx, "GetAllTasks", t.next.GetAllTasks)
}

func (t tracedStore) GetTaskByID(ctx context.Context, id int64) (*types.Task, error) {
	return traced(ctx, "GetTaskByID", func(ctx context.Context) (*types.Task, error) {
		return t.next.GetTaskByID(ctx, id)
	}, attrID.Int64(id))
}

func (t tracedStore) CreateTask(ctx context.Context, in types.NewTask) (*types.Task, error) {
	return traced(ctx, "CreateTask", func(ctx context.Context) (*types.Task, error) {
		return t.next.CreateTask(ctx, in)
	})
}

func (t tracedStore) UpdateTask(ctx context.Context, id int64, patch types.TaskPatch) (*types.Task, error) {
	return traced(ctx, "UpdateTask", func(ctx context.Context) (*types.Task, error) {
		return t.next.UpdateTask(ctx, id, patch)
	}, attrID.Int64(id))
}

func (t tracedStore) DeleteTask(ctx context.Context, id int64) (bool, error) {
	return traced(ctx, "DeleteTask", func(ctx context.Context) (bool, error) {
		return t.next.DeleteTask(ctx, id)
	}, attrID.Int64(id))
}

func (t tracedStore) GetAllSubtasks(ctx context.Context) ([]types.Subtask, error) {
	return traced(ctx, "GetAllSubtasks", t.next.GetAllSubtasks)
}

func (t tracedStore) GetSubtaskByID(ctx context.Context, id int64) (*types.Subtask, error) {
	return traced(ctx, "GetSubtaskByID", func(ctx context.Context) (*types.Subtask, error) {
		return t.next.GetSubtaskByID(ctx, id)
	}, attrID.Int64(id))
}

func (t tracedStore) GetSubtasksByTaskID(ctx context.Context, taskID int64) ([]types.Subtask, error) {
	return traced(ctx, "GetSubtasksByTaskID", func(ctx context.Context) ([]types.Subtask, error) {
		return t.next.GetSubtasksByTaskID(ctx, taskID)
	}, attrID.Int64(taskID))
}

func (t tracedStore) CreateSubtask(ctx context.Context, in types.NewSubtask) (*types.Subtask, error) {
	return traced(ctx, "CreateSubtask", func(ctx context.Context) (*types.Subtask, error) {
		return t.next.CreateSubtask(ctx, in)
	}, attrID.Int64(in.TaskID))
}

func (t tracedStore) UpdateSubtask(ctx context.Context, id int64, patch types.SubtaskPatch) (*types.Subtask, error) {
	return traced(ctx, "UpdateSubtask", func(ctx context.Context) (*types.Subtask, error) {
		return t.next.UpdateSubtask(ctx, id, patch)
	}, attrID.Int64(id))
}

func (t tracedStore) DeleteSubtask(ctx context.Context, id int64) (bool, error) {
	return traced(ctx, "DeleteSubtask", func(ctx context.Context) (bool, error) {
		return t.next.DeleteSubtask(ctx, id)
	}, attrID.Int64(id))
}

func (t tracedStore) GetAllComments(ctx context.Context) ([]types.Comment, error) {
	return traced(ctx, "GetAllComments", t.next.GetAllComments)
}

func (t tracedStore) GetCommentByID(ctx context.Context, id int64) (*types.Comment, error) {
	return traced(ctx, "GetCommentByID", func(ctx context.Context) (*types.Comment, error) {
		return t.next.GetCommentByID(ctx, id)
	}, attrID.Int64(id))
}

func (t tracedStore) GetCommentsByTaskID(ctx context.Context, taskID int64) ([]types.Comment, error) {
	return traced(ctx, "GetCommentsByTaskID", func(ctx context.Context) ([]types.Comment, error) {
		return t.next.GetCommentsByTaskID(ctx, taskID)
	}, attrID.Int64(taskID))
}

func (t tracedStore) CreateComment(ctx context.Context, in types.NewComment) (*types.Comment, error) {
	return traced(ctx, "CreateComment", func(ctx context.Context) (*types.Comment, error) {
		return t.next.CreateComment(ctx, in)
	}, attrID.Int64(in.TaskID))
}

func (t tracedStore) GetAllRequirements(ctx context.Context) ([]types.Requirement, error) {
	return traced(ctx, "GetAllRequirements", t.next.GetAllRequirements)
}

func (t tracedStore) GetRequirementByID(ctx context.Context, id int64) (*types.Requirement, error) {
	return traced(ctx, "GetRequirementByID", func(ctx context.Context) (*types.Requirement, error) {
		return t.next.GetRequirementByID(ctx, id)
	}, attrID.Int64(id))
}

func (t tracedStore) GetRequirementsByTaskID(ctx context.Context, taskID int64) ([]types.Requirement, error) {
	return traced(ctx, "GetRequirementsByTaskID", func(ctx context.Context) ([]types.Requirement, error) {
		return t.next.GetRequirementsByTaskID(ctx, taskID)
	}, attrID.Int64(taskID))
}

func (t tracedStore) CreateRequirement(ctx context.Context, in types.NewRequirement) (*types.Requirement, error) {
	return traced(ctx, "CreateRequirement", func(ctx context.Context) (*types.Requirement, error) {
		return t.next.CreateRequirement(ctx, in)
	}, attrID.Int64(in.TaskID))
}

func (t tracedStore) Close() error { return t.next.Close() }
