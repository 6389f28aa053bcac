package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/mzajc/stocktake/internal/model"
	"github.com/mzajc/stocktake/internal/store"
)

// TasksHandler handles stock-taking task endpoints.
type TasksHandler struct {
	DB *sql.DB
}

type createTaskRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	AssignedTo  *int64                `json:"assigned_to"`
	DueDate     string                `json:"due_date"`
	Items       []store.TaskItemInput `json:"items"`
}

// Create handles POST /api/tasks. Admin only.
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}

	claims := GetClaims(r.Context())
	task, err := store.CreateTask(r.Context(), h.DB, store.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Items:       req.Items,
		DueDate:     dueDate,
		CreatedBy:   claims.UserID,
	})
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, task)
}

// List handles GET /api/tasks with optional status/assigned_to filters.
// Auditors only ever see their own tasks regardless of the query.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	q := r.URL.Query()

	filter := model.TaskFilter{Status: q.Get("status")}
	if claims.Role == model.RoleAuditor {
		filter.AssignedTo = claims.UserID
	} else if v := q.Get("assigned_to"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid assigned_to")
			return
		}
		filter.AssignedTo = id
	}

	tasks, err := store.FilterTasks(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	jsonResponse(w, http.StatusOK, tasks)
}

// Get handles GET /api/tasks/{id}. Auditors may only fetch tasks
// assigned to them.
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := store.GetTask(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if task == nil {
		jsonError(w, http.StatusNotFound, "task not found")
		return
	}

	claims := GetClaims(r.Context())
	if claims.Role == model.RoleAuditor {
		if task.AssignedTo == nil || *task.AssignedTo != claims.UserID {
			jsonError(w, http.StatusForbidden, "task is not assigned to you")
			return
		}
	}

	jsonResponse(w, http.StatusOK, task)
}

// Assign handles POST /api/tasks/{id}/assign. Admin only.
func (h *TasksHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req struct {
		AssigneeID int64 `json:"assignee_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := store.AssignTask(r.Context(), h.DB, id, req.AssigneeID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, task)
}

// Start handles POST /api/tasks/{id}/start. The assignee acknowledges
// the task and begins counting.
func (h *TasksHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	claims := GetClaims(r.Context())
	task, err := store.StartTask(r.Context(), h.DB, id, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, task)
}

// Submit handles POST /api/tasks/{id}/submit. Records counted
// quantities and hands the task back for review.
func (h *TasksHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req struct {
		Counts  []store.CountInput `json:"counts"`
		Version int64              `json:"version"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	task, err := store.GetTask(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if task == nil {
		jsonError(w, http.StatusNotFound, "task not found")
		return
	}
	if claims.Role == model.RoleAuditor {
		if task.AssignedTo == nil || *task.AssignedTo != claims.UserID {
			jsonError(w, http.StatusForbidden, "task is not assigned to you")
			return
		}
	}

	task, err = store.SubmitTask(r.Context(), h.DB, id, req.Counts, req.Version)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, task)
}

// Review handles POST /api/tasks/{id}/review. Admin only; approves or
// rejects a submitted task.
func (h *TasksHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req struct {
		Approved        bool   `json:"approved"`
		RejectionReason string `json:"rejection_reason"`
		Version         int64  `json:"version"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := store.AdjudicateTask(r.Context(), h.DB, id, req.Approved, req.RejectionReason, req.Version)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, task)
}
