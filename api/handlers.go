package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"dayboard/board"
	"dayboard/domain"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, feeds FeedSource, summarizer Summarizer, auth Authenticator, logger *log.Logger) {
	e.GET("/api/tasks", getTasks(store, auth, logger))
	e.POST("/api/tasks", postTask(store, auth))
	e.PATCH("/api/tasks/:id", patchTask(store, auth))
	e.PATCH("/api/tasks/:id/status", patchTaskStatus(store, auth))
	e.DELETE("/api/tasks/:id", deleteTask(store, auth))
	e.GET("/api/stream", streamTasks(store, feeds, auth, logger))
	e.POST("/api/insights", postInsights(store, summarizer, auth))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getTasks(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		ownerID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.JSON(http.StatusUnauthorized, errorResponse{Error: authErr.Error()})
			return err
		}

		query := c.QueryParam("q")
		metrics.SetQueryProvided(strings.TrimSpace(query) != "")

		var due *domain.Date
		if raw := strings.TrimSpace(c.QueryParam("due")); raw != "" {
			if raw == "today" {
				d := domain.DateOf(time.Now())
				due = &d
			} else {
				d, parseErr := domain.ParseDate(raw)
				if parseErr != nil {
					metrics.SetErrorStage("invalid_due_date")
					err = c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid due date"})
					return err
				}
				due = &d
			}
		}

		fetchStart := time.Now()
		var tasks []domain.Task
		var fetchErr error
		if due != nil {
			tasks, fetchErr = store.FetchTasksDueOn(ctx, ownerID, *due)
		} else {
			tasks, fetchErr = store.FetchTasks(ctx, ownerID)
		}
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.JSON(http.StatusInternalServerError, errorResponse{Error: "unable to load tasks"})
			return err
		}

		tasks = board.FilterByQuery(tasks, query)
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func postTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}

		in, err := decodeTaskInput(c.Request().Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		in = in.Normalize()
		if err := in.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}

		task, err := store.InsertTask(c.Request().Context(), ownerID, in)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unable to create task"})
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func patchTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}

		in, err := decodeTaskInput(c.Request().Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		in = in.Normalize()
		if err := in.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}

		task, err := store.UpdateTask(c.Request().Context(), ownerID, c.Param("id"), in)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return c.JSON(http.StatusNotFound, errorResponse{Error: "task not found"})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unable to update task"})
		}
		return c.JSON(http.StatusOK, task)
	}
}

func patchTaskStatus(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		ctx := c.Request().Context()

		var req statusChangeRequest
		lr := io.LimitReader(c.Request().Body, taskBodyMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}

		status := req.Status
		if req.Target != "" {
			tasks, fetchErr := store.FetchTasks(ctx, ownerID)
			if fetchErr != nil {
				c.Logger().Error(fetchErr)
				return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unable to load tasks"})
			}
			resolved, ok := board.ResolveDropStatus(tasks, req.Target)
			if !ok {
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown drop target"})
			}
			status = resolved
		}
		if !domain.ValidStatus(status) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "status must be todo, in_progress or done"})
		}

		task, err := store.UpdateTaskStatus(ctx, ownerID, c.Param("id"), status)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return c.JSON(http.StatusNotFound, errorResponse{Error: "task not found"})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unable to update task status"})
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}

		if _, err := store.DeleteTask(c.Request().Context(), ownerID, c.Param("id")); err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return c.JSON(http.StatusNotFound, errorResponse{Error: "task not found"})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unable to delete task"})
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func postInsights(store Storage, summarizer Summarizer, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		ctx := c.Request().Context()

		tasks, err := store.FetchTasks(ctx, ownerID)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unable to load tasks"})
		}

		summary, err := summarizer.WeeklySummary(ctx, tasks)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusBadGateway, errorResponse{Error: "unable to generate insights"})
		}
		return c.JSON(http.StatusOK, insightsResponse{Summary: summary})
	}
}

func decodeTaskInput(body io.Reader) (domain.TaskInput, error) {
	var in domain.TaskInput
	lr := io.LimitReader(body, taskBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return domain.TaskInput{}, err
	}
	return in, nil
}
