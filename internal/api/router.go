package api

import (
	"database/sql"
	"net/http"

	"github.com/mzajc/stocktake/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	tasksHandler := &TasksHandler{DB: db}
	reportsHandler := &ReportsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireAuditor := RequireRole(model.RoleAuditor)

	// Public: login and registration.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)

	// Authenticated routes.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}/active", authMW(requireAdmin(http.HandlerFunc(usersHandler.SetActive))))
	mux.Handle("PUT /api/users/{id}/role", authMW(requireAdmin(http.HandlerFunc(usersHandler.SetRole))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))

	// Items: read (all roles), write (admin only).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/barcode/{code}", authMW(http.HandlerFunc(itemsHandler.GetByBarcode)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("PUT /api/items/{id}/image", authMW(requireAdmin(http.HandlerFunc(itemsHandler.UploadImage))))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Tasks: create/assign/review (admin), start/submit (assignee).
	mux.Handle("GET /api/tasks", authMW(http.HandlerFunc(tasksHandler.List)))
	mux.Handle("POST /api/tasks", authMW(requireAdmin(http.HandlerFunc(tasksHandler.Create))))
	mux.Handle("GET /api/tasks/{id}", authMW(http.HandlerFunc(tasksHandler.Get)))
	mux.Handle("POST /api/tasks/{id}/assign", authMW(requireAdmin(http.HandlerFunc(tasksHandler.Assign))))
	mux.Handle("POST /api/tasks/{id}/start", authMW(requireAuditor(http.HandlerFunc(tasksHandler.Start))))
	mux.Handle("POST /api/tasks/{id}/submit", authMW(http.HandlerFunc(tasksHandler.Submit)))
	mux.Handle("POST /api/tasks/{id}/review", authMW(requireAdmin(http.HandlerFunc(tasksHandler.Review))))

	// Reports: file (any role), review and badge count (admin).
	mux.Handle("GET /api/reports", authMW(http.HandlerFunc(reportsHandler.List)))
	mux.Handle("POST /api/reports", authMW(http.HandlerFunc(reportsHandler.Create)))
	mux.Handle("GET /api/reports/pending/count", authMW(requireAdmin(http.HandlerFunc(reportsHandler.PendingCount))))
	mux.Handle("GET /api/reports/{id}", authMW(http.HandlerFunc(reportsHandler.Get)))
	mux.Handle("POST /api/reports/{id}/review", authMW(requireAdmin(http.HandlerFunc(reportsHandler.Review))))

	return mux
}
