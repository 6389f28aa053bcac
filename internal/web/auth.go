package web

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/mzajc/stocktake/internal/auth"
	"github.com/mzajc/stocktake/internal/gate"
	"github.com/mzajc/stocktake/internal/model"
	"github.com/mzajc/stocktake/internal/store"
)

// Home handles GET /: authenticated users land on their role's
// dashboard, everyone else on the login page.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if claims == nil {
		http.Redirect(w, r, gate.LoginPath, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, gate.HomeFor(claims.Role), http.StatusSeeOther)
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if claims := GetWebClaims(r.Context()); claims != nil {
		http.Redirect(w, r, gate.HomeFor(claims.Role), http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "login.html", &PageData{Title: "Sign in"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	if email == "" || password == "" {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Sign in",
			Error: "Enter your email and password.",
		})
		return
	}

	user, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil || user == nil || !user.IsActive {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Sign in",
			Error: "Invalid email or password.",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Sign in",
			Error: "Invalid email or password.",
		})
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Email, user.DisplayName(), user.Role)
	if err != nil {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Sign in",
			Error: "Something went wrong, try again.",
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   7 * 86400,
	})

	http.Redirect(w, r, gate.HomeFor(user.Role), http.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", &PageData{Title: "Create account"})
}

// RegisterSubmit handles POST /register. New accounts are always
// auditors; admin accounts come from the setup page.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")
	firstName := r.FormValue("first_name")
	lastName := r.FormValue("last_name")

	renderError := func(msg string) {
		s.Templates.Render(w, "register.html", &PageData{Title: "Create account", Error: msg})
	}

	if err := model.ValidateEmail(email); err != nil {
		renderError(err.Error())
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		renderError(err.Error())
		return
	}

	existing, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil {
		renderError("Something went wrong, try again.")
		return
	}
	if existing != nil {
		renderError("That email is already registered.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		renderError("Something went wrong, try again.")
		return
	}

	if _, err := store.CreateUser(r.Context(), s.DB, email, string(hash), firstName, lastName, model.RoleAuditor); err != nil {
		renderError("Could not create the account.")
		return
	}

	s.Templates.Render(w, "login.html", &PageData{
		Title:   "Sign in",
		Success: "Account created, you can sign in now.",
	})
}

// Logout handles POST /logout: revokes the cookie's token so it cannot
// be replayed, then clears the cookie.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := GetWebClaims(r.Context()); claims != nil && claims.ID != "" {
		store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time)
	}
	clearAuthCookie(w)
	http.Redirect(w, r, gate.LoginPath, http.StatusSeeOther)
}

// ProfilePage handles GET /profile.
func (s *Server) ProfilePage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "profile.html", s.pageData(r, "Profile"))
}

// ProfilePasswordSubmit handles POST /profile/password.
func (s *Server) ProfilePasswordSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	current := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	renderError := func(msg string) {
		pd := s.pageData(r, "Profile")
		pd.Error = msg
		s.Templates.Render(w, "profile.html", pd)
	}

	if err := model.ValidatePassword(newPassword); err != nil {
		renderError(err.Error())
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		renderError("Something went wrong, try again.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		renderError("Current password is incorrect.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		renderError("Something went wrong, try again.")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, user.ID, string(hash)); err != nil {
		renderError("Could not update the password.")
		return
	}

	pd := s.pageData(r, "Profile")
	pd.Success = "Password updated."
	s.Templates.Render(w, "profile.html", pd)
}
