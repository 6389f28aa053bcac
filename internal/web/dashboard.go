package web

import (
	"net/http"

	"github.com/mzajc/stocktake/internal/model"
	"github.com/mzajc/stocktake/internal/store"
)

type adminDashboardData struct {
	ItemCount      int
	PendingTasks   int
	ActiveTasks    int
	SubmittedTasks int
	PendingReports int
	Auditors       []model.User
}

// AdminDashboard handles GET /admin/dashboard.
func (s *Server) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := adminDashboardData{}
	data.ItemCount, _ = store.CountItems(ctx, s.DB)
	data.PendingTasks, _ = store.CountTasksByStatus(ctx, s.DB, model.TaskStatusPending)
	data.SubmittedTasks, _ = store.CountTasksByStatus(ctx, s.DB, model.TaskStatusSubmitted)
	data.PendingReports, _ = store.CountPendingReports(ctx, s.DB)

	assigned, _ := store.CountTasksByStatus(ctx, s.DB, model.TaskStatusAssigned)
	inProgress, _ := store.CountTasksByStatus(ctx, s.DB, model.TaskStatusInProgress)
	data.ActiveTasks = assigned + inProgress

	data.Auditors, _ = store.ListUsers(ctx, s.DB, model.RoleAuditor)

	pd := s.pageData(r, "Dashboard")
	pd.Data = data
	s.Templates.Render(w, "admin_dashboard.html", pd)
}

type auditorDashboardData struct {
	Tasks []model.Task
}

// AuditorDashboard handles GET /auditor/dashboard: the auditor's
// worklist of open tasks, soonest due date first.
func (s *Server) AuditorDashboard(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	tasks, err := store.FilterTasks(r.Context(), s.DB, model.TaskFilter{AssignedTo: claims.UserID})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Only open work on the dashboard; finished tasks live on the
	// history page.
	open := tasks[:0]
	for _, task := range tasks {
		if !model.TaskStatusTerminal(task.Status) && task.Status != model.TaskStatusSubmitted {
			open = append(open, task)
		}
	}

	pd := s.pageData(r, "My tasks")
	pd.Data = auditorDashboardData{Tasks: open}
	s.Templates.Render(w, "auditor_dashboard.html", pd)
}

// AuditorHistory handles GET /auditor/history: the auditor's submitted
// and reviewed work.
func (s *Server) AuditorHistory(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	ctx := r.Context()

	tasks, err := store.FilterTasks(ctx, s.DB, model.TaskFilter{AssignedTo: claims.UserID})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	done := tasks[:0]
	for _, task := range tasks {
		if model.TaskStatusTerminal(task.Status) || task.Status == model.TaskStatusSubmitted {
			done = append(done, task)
		}
	}

	reports, err := store.ListReports(ctx, s.DB, model.ReportFilter{AuditorID: claims.UserID})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pd := s.pageData(r, "History")
	pd.Data = struct {
		Tasks   []model.Task
		Reports []model.ItemReport
	}{Tasks: done, Reports: reports}
	s.Templates.Render(w, "auditor_history.html", pd)
}
