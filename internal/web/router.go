package web

import (
	"database/sql"
	"net/http"

	webembed "github.com/mzajc/stocktake/web"
)

// NewRouter creates the web page router with all page routes registered.
// The gate middleware wraps everything, so each handler can assume the
// role partition its path implies.
func NewRouter(db *sql.DB, jwtSecret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Templates: templates,
		JWTSecret: jwtSecret,
	}

	mux := http.NewServeMux()

	// Public pages.
	mux.HandleFunc("GET /{$}", s.Home)
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("GET /setup", s.SetupPage)
	mux.HandleFunc("POST /setup", s.SetupSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Shared authenticated pages.
	mux.HandleFunc("GET /profile", s.ProfilePage)
	mux.HandleFunc("POST /profile/password", s.ProfilePasswordSubmit)
	mux.HandleFunc("GET /items/{id}/image", s.ItemImageGet)

	// Admin pages.
	mux.HandleFunc("GET /admin/dashboard", s.AdminDashboard)
	mux.HandleFunc("GET /admin/items", s.AdminItemsPage)
	mux.HandleFunc("POST /admin/items", s.AdminItemCreateSubmit)
	mux.HandleFunc("GET /admin/items/{id}", s.AdminItemDetailPage)
	mux.HandleFunc("POST /admin/items/{id}", s.AdminItemUpdateSubmit)
	mux.HandleFunc("POST /admin/items/{id}/delete", s.AdminItemDeleteSubmit)
	mux.HandleFunc("POST /admin/items/{id}/image", s.AdminItemImageSubmit)
	mux.HandleFunc("GET /admin/tasks", s.AdminTasksPage)
	mux.HandleFunc("POST /admin/tasks", s.AdminTaskCreateSubmit)
	mux.HandleFunc("GET /admin/tasks/{id}", s.AdminTaskDetailPage)
	mux.HandleFunc("POST /admin/tasks/{id}/assign", s.AdminTaskAssignSubmit)
	mux.HandleFunc("POST /admin/tasks/{id}/review", s.AdminTaskReviewSubmit)
	mux.HandleFunc("GET /admin/reports", s.AdminReportsPage)
	mux.HandleFunc("POST /admin/reports/{id}/review", s.AdminReportReviewSubmit)
	mux.HandleFunc("GET /admin/auditors", s.AdminAuditorsPage)
	mux.HandleFunc("POST /admin/auditors/{id}/active", s.AdminAuditorActiveSubmit)

	// Auditor pages.
	mux.HandleFunc("GET /auditor/dashboard", s.AuditorDashboard)
	mux.HandleFunc("GET /auditor/tasks/{id}", s.AuditorTaskDetailPage)
	mux.HandleFunc("POST /auditor/tasks/{id}/start", s.AuditorTaskStartSubmit)
	mux.HandleFunc("POST /auditor/tasks/{id}/submit", s.AuditorTaskSubmitSubmit)
	mux.HandleFunc("GET /auditor/scan", s.AuditorScanPage)
	mux.HandleFunc("GET /auditor/report", s.AuditorReportPage)
	mux.HandleFunc("POST /auditor/report", s.AuditorReportSubmit)
	mux.HandleFunc("GET /auditor/history", s.AuditorHistory)

	gateMW := GateMiddleware(jwtSecret, db)

	// Static assets sit outside the gate so the login page can load
	// its stylesheet.
	outer := http.NewServeMux()
	outer.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	outer.Handle("/", gateMW(mux))
	return outer, nil
}
