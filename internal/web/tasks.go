package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mzajc/stocktake/internal/model"
	"github.com/mzajc/stocktake/internal/store"
)

// AdminTasksPage handles GET /admin/tasks with an optional status filter.
func (s *Server) AdminTasksPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := r.URL.Query().Get("status")

	tasks, err := store.FilterTasks(ctx, s.DB, model.TaskFilter{Status: status})
	if err != nil {
		slog.Error("failed to list tasks", "error", err)
	}
	auditors, err := store.ListUsers(ctx, s.DB, model.RoleAuditor)
	if err != nil {
		slog.Error("failed to list auditors", "error", err)
	}
	items, err := store.SearchItems(ctx, s.DB, model.ItemFilter{ActiveOnly: true})
	if err != nil {
		slog.Error("failed to list items", "error", err)
	}

	pd := s.pageData(r, "Tasks")
	pd.Data = struct {
		Tasks    []model.Task
		Auditors []model.User
		Items    []model.Item
		Status   string
	}{Tasks: tasks, Auditors: auditors, Items: items, Status: status}
	s.Templates.Render(w, "admin_tasks.html", pd)
}

// AdminTaskCreateSubmit handles POST /admin/tasks. The form posts one
// item_id/expected_quantity pair per selected item.
func (s *Server) AdminTaskCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	renderError := func(msg string) {
		pd := s.pageData(r, "Tasks")
		pd.Error = msg
		s.Templates.Render(w, "admin_tasks.html", pd)
	}

	dueDate, err := time.Parse("2006-01-02", r.FormValue("due_date"))
	if err != nil {
		renderError("Due date must be set.")
		return
	}

	var assignedTo *int64
	if v := r.FormValue("assigned_to"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			renderError("Invalid assignee.")
			return
		}
		assignedTo = &id
	}

	var taskItems []store.TaskItemInput
	for _, idStr := range r.Form["item_id"] {
		itemID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			renderError("Malformed item list.")
			return
		}
		expected, err := strconv.Atoi(r.FormValue("expected_quantity_" + idStr))
		if err != nil || expected < 0 {
			renderError("Expected quantities must be non-negative numbers.")
			return
		}
		taskItems = append(taskItems, store.TaskItemInput{ItemID: itemID, ExpectedQuantity: expected})
	}

	task, err := store.CreateTask(r.Context(), s.DB, store.CreateTaskInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		AssignedTo:  assignedTo,
		Items:       taskItems,
		DueDate:     dueDate,
		CreatedBy:   claims.UserID,
	})
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			renderError("A task needs a title, a due date and at least one item.")
		} else {
			slog.Error("failed to create task", "error", err)
			renderError("Could not create the task.")
		}
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/admin/tasks/%d", task.ID), http.StatusSeeOther)
}

// AdminTaskDetailPage handles GET /admin/tasks/{id}.
func (s *Server) AdminTaskDetailPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	task, err := store.GetTask(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get task", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if task == nil {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	auditors, err := store.ListUsers(r.Context(), s.DB, model.RoleAuditor)
	if err != nil {
		slog.Error("failed to list auditors", "error", err)
	}

	pd := s.pageData(r, task.Title)
	pd.Data = struct {
		Task     *model.Task
		Auditors []model.User
	}{Task: task, Auditors: auditors}
	s.Templates.Render(w, "admin_task_detail.html", pd)
}

// AdminTaskAssignSubmit handles POST /admin/tasks/{id}/assign.
func (s *Server) AdminTaskAssignSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	assigneeID, err := strconv.ParseInt(r.FormValue("assignee_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid assignee", http.StatusBadRequest)
		return
	}

	if _, err := store.AssignTask(r.Context(), s.DB, id, assigneeID); err != nil {
		slog.Error("failed to assign task", "task", id, "error", err)
	}
	http.Redirect(w, r, fmt.Sprintf("/admin/tasks/%d", id), http.StatusSeeOther)
}

// AdminTaskReviewSubmit handles POST /admin/tasks/{id}/review.
func (s *Server) AdminTaskReviewSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	approved := r.FormValue("verdict") == "approve"
	reason := r.FormValue("rejection_reason")

	if _, err := store.AdjudicateTask(r.Context(), s.DB, id, approved, reason, 0); err != nil {
		slog.Error("failed to review task", "task", id, "error", err)
	}
	http.Redirect(w, r, fmt.Sprintf("/admin/tasks/%d", id), http.StatusSeeOther)
}

// AuditorTaskDetailPage handles GET /auditor/tasks/{id}: the counting
// sheet for one task.
func (s *Server) AuditorTaskDetailPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	task, err := store.GetTask(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get task", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if task == nil || task.AssignedTo == nil || *task.AssignedTo != claims.UserID {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	pd := s.pageData(r, task.Title)
	pd.Data = struct {
		Task *model.Task
	}{Task: task}
	s.Templates.Render(w, "auditor_task_detail.html", pd)
}

// AuditorTaskStartSubmit handles POST /auditor/tasks/{id}/start.
func (s *Server) AuditorTaskStartSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if _, err := store.StartTask(r.Context(), s.DB, id, claims.UserID); err != nil {
		slog.Error("failed to start task", "task", id, "error", err)
	}
	http.Redirect(w, r, fmt.Sprintf("/auditor/tasks/%d", id), http.StatusSeeOther)
}

// AuditorTaskSubmitSubmit handles POST /auditor/tasks/{id}/submit. The
// counting sheet posts one count_<itemID> and notes_<itemID> field per
// task item, plus the version the sheet was rendered from.
func (s *Server) AuditorTaskSubmitSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	task, err := store.GetTask(r.Context(), s.DB, id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if task == nil || task.AssignedTo == nil || *task.AssignedTo != claims.UserID {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	var counts []store.CountInput
	for _, item := range task.Items {
		v := r.FormValue(fmt.Sprintf("count_%d", item.ItemID))
		if v == "" {
			continue
		}
		counted, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		counts = append(counts, store.CountInput{
			ItemID:          item.ItemID,
			CountedQuantity: counted,
			Notes:           r.FormValue(fmt.Sprintf("notes_%d", item.ItemID)),
		})
	}

	version, _ := strconv.ParseInt(r.FormValue("version"), 10, 64)
	if _, err := store.SubmitTask(r.Context(), s.DB, id, counts, version); err != nil {
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrInvalidState) {
			http.Redirect(w, r, fmt.Sprintf("/auditor/tasks/%d", id), http.StatusSeeOther)
			return
		}
		slog.Error("failed to submit task", "task", id, "error", err)
	}
	http.Redirect(w, r, "/auditor/dashboard", http.StatusSeeOther)
}
