package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/workbench/pkg/store"
	"github.com/mesh-intelligence/workbench/pkg/types"
)

var taskFields = []string{
	"title", "description", "priority", "completed", "dueDate", "dueTime",
	"project", "group", "hasGoogleAnalytics", "userId",
}

func decodeNewTask(raw body) (types.NewTask, error) {
	f := newFields(raw, taskFields...)
	in := types.NewTask{
		Title:       required[string](f, "title"),
		Description: required[string](f, "description"),
		Priority:    types.Priority(required[string](f, "priority")),
		Project:     required[string](f, "project"),
		Group:       types.Group(required[string](f, "group")),
	}
	in.Completed = optional[bool](f, "completed").Value
	in.HasGoogleAnalytics = optional[bool](f, "hasGoogleAnalytics").Value
	in.DueDate = nullableDate(f, "dueDate").Value
	in.DueTime = nullable[string](f, "dueTime").Value
	in.UserID = nullable[int64](f, "userId").Value
	f.merge(in.Validate())
	return in, f.err()
}

func decodeTaskPatch(raw body) (types.TaskPatch, error) {
	f := newFields(raw, taskFields...)
	p := types.TaskPatch{
		Title:              optional[string](f, "title"),
		Description:        optional[string](f, "description"),
		Completed:          optional[bool](f, "completed"),
		DueDate:            nullableDate(f, "dueDate"),
		DueTime:            nullable[string](f, "dueTime"),
		Project:            optional[string](f, "project"),
		HasGoogleAnalytics: optional[bool](f, "hasGoogleAnalytics"),
		UserID:             nullable[int64](f, "userId"),
	}
	if v := optional[string](f, "priority"); v.Set {
		p.Priority = types.Some(types.Priority(v.Value))
	}
	if v := optional[string](f, "group"); v.Set {
		p.Group = types.Some(types.Group(v.Value))
	}
	f.merge(p.Validate())
	return p, f.err()
}

func getTasks(s types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		tasks, err := s.GetAllTasks(c.Request().Context())
		if err != nil {
			return respondError(c, logger, err, entityTask, "fetch")
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

func getTask(s types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := parseID(c, "id")
		if !ok {
			return invalidID(c, entityTask)
		}
		detail, err := store.Detail(c.Request().Context(), s, id)
		if err != nil {
			return respondError(c, logger, err, entityTask, "fetch")
		}
		return c.JSON(http.StatusOK, detail)
	}
}

func createTask(s types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := decodeBody(c)
		if err != nil {
			return respondError(c, logger, err, entityTask, "create")
		}
		in, err := decodeNewTask(raw)
		if err != nil {
			return respondError(c, logger, err, entityTask, "create")
		}
		task, err := s.CreateTask(c.Request().Context(), in)
		if err != nil {
			return respondError(c, logger, err, entityTask, "create")
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func updateTask(s types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := parseID(c, "id")
		if !ok {
			return invalidID(c, entityTask)
		}
		raw, err := decodeBody(c)
		if err != nil {
			return respondError(c, logger, err, entityTask, "update")
		}
		patch, err := decodeTaskPatch(raw)
		if err != nil {
			return respondError(c, logger, err, entityTask, "update")
		}
		task, err := s.UpdateTask(c.Request().Context(), id, patch)
		if err != nil {
			return respondError(c, logger, err, entityTask, "update")
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(s types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := parseID(c, "id")
		if !ok {
			return invalidID(c, entityTask)
		}
		deleted, err := s.DeleteTask(c.Request().Context(), id)
		if err != nil {
			return respondError(c, logger, err, entityTask, "delete")
		}
		if !deleted {
			return notFound(c, entityTask)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func getStats(s types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		tasks, err := s.GetAllTasks(c.Request().Context())
		if err != nil {
			return respondError(c, logger, err, entityTask, "fetch")
		}
		return c.JSON(http.StatusOK, types.Summarize(tasks))
	}
}

type analyticsStatus struct {
	Connected    bool      `json:"connected"`
	Account      string    `json:"account"`
	PropertyID   string    `json:"propertyId"`
	TrackingType string    `json:"trackingType"`
	ConnectedOn  string    `json:"connectedOn"`
	LastSynced   time.Time `json:"lastSynced"`
}

type analyticsEvent struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// The analytics integration is not connected to a real property; these
// fixtures back the client's integration panel.
var analyticsEvents = []analyticsEvent{
	{"page_view", "Tracks when a user views a page", "Active"},
	{"newsletter_signup", "Tracks newsletter form submissions", "Active"},
	{"contact_form_submit", "Tracks contact form submissions", "Active"},
	{"product_view", "Tracks product page views", "Pending"},
	{"demo_request", "Tracks demo request form submissions", "Not Configured"},
}

func getAnalyticsStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, analyticsStatus{
		Connected:    true,
		Account:      "marketing@company.com",
		PropertyID:   "UA-XXXXX-Y",
		TrackingType: "GA4",
		ConnectedOn:  "2025-04-18",
		LastSynced:   time.Now().UTC(),
	})
}

func getAnalyticsEvents(c echo.Context) error {
	return c.JSON(http.StatusOK, analyticsEvents)
}
