package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/mzajc/stocktake/internal/auth"
	"github.com/mzajc/stocktake/internal/model"
	"github.com/mzajc/stocktake/internal/store"
	webembed "github.com/mzajc/stocktake/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleName": func(role string) string {
			switch role {
			case "admin":
				return "Administrator"
			case "auditor":
				return "Auditor"
			default:
				return role
			}
		},
		"statusName": func(status string) string {
			switch status {
			case "pending":
				return "Pending"
			case "assigned":
				return "Assigned"
			case "in_progress":
				return "In progress"
			case "submitted":
				return "Submitted"
			case "approved":
				return "Approved"
			case "rejected":
				return "Rejected"
			default:
				return status
			}
		},
		"fmtDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"fmtTime": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"register.html",
		"setup.html",
		"admin_dashboard.html",
		"admin_items.html",
		"admin_item_detail.html",
		"admin_tasks.html",
		"admin_task_detail.html",
		"admin_auditors.html",
		"admin_reports.html",
		"auditor_dashboard.html",
		"auditor_task_detail.html",
		"auditor_scan.html",
		"auditor_report.html",
		"auditor_history.html",
		"profile.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string

	// PendingReports drives the review badge in the admin navigation.
	PendingReports int

	Data any
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Templates *Templates
	JWTSecret string
}

// pageData builds the common page data for an authenticated request,
// including the admin's pending report badge.
func (s *Server) pageData(r *http.Request, title string) *PageData {
	pd := &PageData{Title: title, User: GetWebClaims(r.Context())}
	if pd.User != nil && pd.User.Role == model.RoleAdmin {
		if count, err := store.CountPendingReports(r.Context(), s.DB); err == nil {
			pd.PendingReports = count
		}
	}
	return pd
}
