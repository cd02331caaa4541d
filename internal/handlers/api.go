package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ytakahashi/focus-session-server/internal/analytics"
	"github.com/ytakahashi/focus-session-server/internal/engine"
	"github.com/ytakahashi/focus-session-server/internal/services"
)

// APIHandler exposes the focus session engine over HTTP.
type APIHandler struct {
	engine     *engine.Engine
	aggregator *analytics.Aggregator
}

func NewAPIHandler(e *engine.Engine, aggregator *analytics.Aggregator) *APIHandler {
	return &APIHandler{
		engine:     e,
		aggregator: aggregator,
	}
}

// Register wires every route onto the echo instance.
func (h *APIHandler) Register(e *echo.Echo) {
	e.GET("/timer", h.GetTimer)
	e.POST("/timer/start", h.StartTimer)
	e.POST("/timer/pause", h.PauseTimer)
	e.POST("/timer/reset", h.ResetTimer)
	e.PUT("/timer/duration", h.SetDuration)
	e.POST("/timer/add", h.AddFiveMinutes)
	e.POST("/timer/subtract", h.SubtractFiveMinutes)

	e.GET("/todos", h.ListTodos)
	e.POST("/todos", h.AddTodo)
	e.PUT("/todos/:id", h.EditTodoTitle)
	e.POST("/todos/:id/toggle", h.ToggleTodo)
	e.DELETE("/todos/:id", h.DeleteTodo)

	e.POST("/login", h.Login)
	e.GET("/analytics", h.GetAnalytics)
	e.GET("/status", h.GetStatus)
}

func (h *APIHandler) GetTimer(c echo.Context) error {
	return c.JSON(http.StatusOK, h.engine.Snapshot())
}

func (h *APIHandler) StartTimer(c echo.Context) error {
	h.engine.Start()
	return c.JSON(http.StatusOK, h.engine.Snapshot())
}

func (h *APIHandler) PauseTimer(c echo.Context) error {
	h.engine.Pause()
	return c.JSON(http.StatusOK, h.engine.Snapshot())
}

func (h *APIHandler) ResetTimer(c echo.Context) error {
	h.engine.Reset()
	return c.JSON(http.StatusOK, h.engine.Snapshot())
}

type durationRequest struct {
	Minutes int `json:"minutes"`
}

// SetDuration sets the work duration. Out-of-range values are clamped
// to [1,120] rather than rejected, and duration edits are ignored while
// the countdown is running; the returned snapshot shows what applied.
func (h *APIHandler) SetDuration(c echo.Context) error {
	var req durationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	h.engine.SetDuration(req.Minutes)
	return c.JSON(http.StatusOK, h.engine.Snapshot())
}

func (h *APIHandler) AddFiveMinutes(c echo.Context) error {
	h.engine.AddMinutes(5)
	return c.JSON(http.StatusOK, h.engine.Snapshot())
}

func (h *APIHandler) SubtractFiveMinutes(c echo.Context) error {
	h.engine.AddMinutes(-5)
	return c.JSON(http.StatusOK, h.engine.Snapshot())
}

type todoRequest struct {
	Title string `json:"title"`
}

func (h *APIHandler) ListTodos(c echo.Context) error {
	return c.JSON(http.StatusOK, h.engine.Todos())
}

func (h *APIHandler) AddTodo(c echo.Context) error {
	var req todoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	todo, err := h.engine.AddTodo(req.Title)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, todo)
}

func (h *APIHandler) EditTodoTitle(c echo.Context) error {
	var req todoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := h.engine.EditTodoTitle(c.Param("id"), req.Title); err != nil {
		return todoError(c, err)
	}
	return c.JSON(http.StatusOK, h.engine.Todos())
}

func (h *APIHandler) ToggleTodo(c echo.Context) error {
	if err := h.engine.ToggleTodo(c.Param("id")); err != nil {
		return todoError(c, err)
	}
	return c.JSON(http.StatusOK, h.engine.Todos())
}

func (h *APIHandler) DeleteTodo(c echo.Context) error {
	if err := h.engine.RemoveTodo(c.Param("id")); err != nil {
		return todoError(c, err)
	}
	return c.JSON(http.StatusOK, h.engine.Todos())
}

func todoError(c echo.Context, err error) error {
	if strings.Contains(err.Error(), "no todo found") {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
}

type loginRequest struct {
	UID string `json:"uid"`
}

// Login is the callback fired after a successful authentication. It
// triggers the one-time reconciliation of the buffered session. On a
// sync failure the session is already gone from the buffer, so the
// client is told the last session may not have been saved; the running
// timer is unaffected.
func (h *APIHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil || req.UID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "uid is required"})
	}

	if err := h.engine.HandleLogin(c.Request().Context(), req.UID); err != nil {
		if errors.Is(err, services.ErrSyncFailed) {
			log.Printf("Sync failed for user %s: %v", req.UID, err)
			return c.JSON(http.StatusBadGateway, map[string]string{
				"error": "your last session may not have been saved",
			})
		}
		log.Printf("Login handling failed for user %s: %v", req.UID, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "login handling failed"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GetAnalytics builds the day/week/month report for a user. Query
// params: uid (required), bucket (day|week|month, default day), cursor
// (YYYY-MM-DD, default today).
func (h *APIHandler) GetAnalytics(c echo.Context) error {
	uid := c.QueryParam("uid")
	if uid == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "uid is required"})
	}

	bucket := analytics.BucketDay
	if b := c.QueryParam("bucket"); b != "" {
		var err error
		bucket, err = analytics.ParseBucket(b)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	now := time.Now()
	cursorDate := now
	if s := c.QueryParam("cursor"); s != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "cursor must be YYYY-MM-DD"})
		}
		cursorDate = parsed
	}

	report, err := h.aggregator.Report(c.Request().Context(), uid, analytics.Cursor{Date: cursorDate, Bucket: bucket}, now)
	if err != nil {
		log.Printf("Failed to build analytics report for user %s: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to build report"})
	}
	return c.JSON(http.StatusOK, report)
}

// GetStatus reports whether a finished session is waiting for a login.
func (h *APIHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"pendingSession": h.engine.PendingSession()})
}
