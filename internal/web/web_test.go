package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/mzajc/stocktake/internal/db"
	"github.com/mzajc/stocktake/internal/model"
	"github.com/mzajc/stocktake/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

func setupWebServer(t *testing.T) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)
	router, err := NewRouter(database, testJWTSecret)
	if err != nil {
		t.Fatalf("creating web router: %v", err)
	}
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if _, err := store.CreateUser(ctx, database, "admin@example.com", string(hash), "Ada", "Admin", model.RoleAdmin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if _, err := store.CreateUser(ctx, database, "auditor@example.com", string(hash), "Andy", "Auditor", model.RoleAuditor); err != nil {
		t.Fatalf("create auditor: %v", err)
	}

	return server
}

// noRedirect returns a client that reports redirects instead of following
// them, so tests can assert on Location headers.
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func loginCookie(t *testing.T, server *httptest.Server, email string) *http.Cookie {
	t.Helper()
	form := url.Values{"email": {email}, "password": {"password123"}}
	resp, err := noRedirect().PostForm(server.URL+"/login", form)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect after login, got %d", resp.StatusCode)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "token" && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("no token cookie after login")
	return nil
}

func getWithCookie(t *testing.T, server *httptest.Server, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, _ := http.NewRequest("GET", server.URL+path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := noRedirect().Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPublicPagesOpen(t *testing.T) {
	server := setupWebServer(t)

	for _, path := range []string{"/login", "/register", "/static/style.css"} {
		resp := getWithCookie(t, server, path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	server := setupWebServer(t)

	for _, path := range []string{"/admin/dashboard", "/auditor/dashboard", "/profile"} {
		resp := getWithCookie(t, server, path, nil)
		if resp.StatusCode != http.StatusSeeOther {
			t.Errorf("GET %s: expected redirect, got %d", path, resp.StatusCode)
			continue
		}
		if loc := resp.Header.Get("Location"); loc != "/login" {
			t.Errorf("GET %s: expected redirect to /login, got %q", path, loc)
		}
	}
}

func TestRolePartitionRedirects(t *testing.T) {
	server := setupWebServer(t)

	adminCookie := loginCookie(t, server, "admin@example.com")
	auditorCookie := loginCookie(t, server, "auditor@example.com")

	// The wrong partition redirects to the requester's home.
	resp := getWithCookie(t, server, "/auditor/dashboard", adminCookie)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/admin/dashboard" {
		t.Errorf("admin on auditor page: got %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp = getWithCookie(t, server, "/admin/dashboard", auditorCookie)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/auditor/dashboard" {
		t.Errorf("auditor on admin page: got %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	// The right partition renders.
	resp = getWithCookie(t, server, "/admin/dashboard", adminCookie)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin dashboard: expected 200, got %d", resp.StatusCode)
	}
	resp = getWithCookie(t, server, "/auditor/dashboard", auditorCookie)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("auditor dashboard: expected 200, got %d", resp.StatusCode)
	}
}

func TestHomeRedirectsByRole(t *testing.T) {
	server := setupWebServer(t)
	adminCookie := loginCookie(t, server, "admin@example.com")

	resp := getWithCookie(t, server, "/", adminCookie)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/admin/dashboard" {
		t.Errorf("home for admin: got %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp = getWithCookie(t, server, "/", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Errorf("home unauthenticated: got %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestLoginPageRejectsBadCredentials(t *testing.T) {
	server := setupWebServer(t)

	form := url.Values{"email": {"admin@example.com"}, "password": {"wrong"}}
	resp, err := http.PostForm(server.URL+"/login", form)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()

	// Re-renders the login page instead of setting a cookie.
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 re-render, got %d", resp.StatusCode)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "token" && cookie.Value != "" {
			t.Error("token cookie set for bad credentials")
		}
	}
}

func TestLogoutRevokesCookie(t *testing.T) {
	server := setupWebServer(t)
	cookie := loginCookie(t, server, "auditor@example.com")

	req, _ := http.NewRequest("POST", server.URL+"/logout", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	resp, err := noRedirect().Do(req)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	resp.Body.Close()

	// The old cookie no longer opens gated pages.
	resp = getWithCookie(t, server, "/auditor/dashboard", cookie)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Errorf("after logout: got %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestSetupPromotesFirstAdmin(t *testing.T) {
	database := db.NewTestDB(t)
	router, err := NewRouter(database, testJWTSecret)
	if err != nil {
		t.Fatalf("creating web router: %v", err)
	}
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user, err := store.CreateUser(ctx, database, "first@example.com", string(hash), "", "", model.RoleAuditor)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	form := url.Values{"email": {"first@example.com"}, "password": {"password123"}}
	resp, err := http.PostForm(server.URL+"/setup", form)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	resp.Body.Close()

	promoted, err := store.GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if promoted.Role != model.RoleAdmin {
		t.Errorf("expected admin after setup, got %q", promoted.Role)
	}

	// Once an admin exists, the setup page redirects away.
	getResp := getWithCookieURL(t, server.URL+"/setup")
	if getResp.StatusCode != http.StatusSeeOther {
		t.Errorf("setup after admin exists: expected redirect, got %d", getResp.StatusCode)
	}
}

func getWithCookieURL(t *testing.T, fullURL string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest("GET", fullURL, nil)
	resp, err := noRedirect().Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", fullURL, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
