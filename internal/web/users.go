package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mzajc/stocktake/internal/model"
	"github.com/mzajc/stocktake/internal/store"
)

// AdminAuditorsPage handles GET /admin/auditors.
func (s *Server) AdminAuditorsPage(w http.ResponseWriter, r *http.Request) {
	auditors, err := store.ListUsers(r.Context(), s.DB, model.RoleAuditor)
	if err != nil {
		slog.Error("failed to list auditors", "error", err)
	}

	pd := s.pageData(r, "Auditors")
	pd.Data = struct {
		Auditors []model.User
	}{Auditors: auditors}
	s.Templates.Render(w, "admin_auditors.html", pd)
}

// AdminAuditorActiveSubmit handles POST /admin/auditors/{id}/active.
// Deactivated auditors keep their history but can no longer sign in.
func (s *Server) AdminAuditorActiveSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	active := r.FormValue("active") == "true"
	if err := store.SetUserActive(r.Context(), s.DB, id, active); err != nil {
		slog.Error("failed to update auditor", "user", id, "error", err)
	}
	http.Redirect(w, r, "/admin/auditors", http.StatusSeeOther)
}
