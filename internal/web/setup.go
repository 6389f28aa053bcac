package web

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/mzajc/stocktake/internal/model"
	"github.com/mzajc/stocktake/internal/store"
)

// SetupPage handles GET /setup, the first-run bootstrap page. It only
// does anything while the instance has no admin account.
func (s *Server) SetupPage(w http.ResponseWriter, r *http.Request) {
	admins, err := store.CountUsersByRole(r.Context(), s.DB, model.RoleAdmin)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if admins > 0 {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "setup.html", &PageData{Title: "Setup"})
}

// SetupSubmit handles POST /setup: verifies the credentials of an
// existing account and promotes it to admin. Refused once any admin
// exists.
func (s *Server) SetupSubmit(w http.ResponseWriter, r *http.Request) {
	renderError := func(msg string) {
		s.Templates.Render(w, "setup.html", &PageData{Title: "Setup", Error: msg})
	}

	admins, err := store.CountUsersByRole(r.Context(), s.DB, model.RoleAdmin)
	if err != nil {
		renderError("Something went wrong, try again.")
		return
	}
	if admins > 0 {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	user, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil || user == nil {
		renderError("Invalid email or password.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		renderError("Invalid email or password.")
		return
	}

	if err := store.SetUserRole(r.Context(), s.DB, user.ID, model.RoleAdmin); err != nil {
		renderError("Could not promote the account.")
		return
	}

	s.Templates.Render(w, "login.html", &PageData{
		Title:   "Sign in",
		Success: "Admin account ready, sign in to continue.",
	})
}
