package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mzajc/stocktake/internal/db"
	"github.com/mzajc/stocktake/internal/model"
	"github.com/mzajc/stocktake/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

type testServer struct {
	*httptest.Server
	db *sql.DB
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
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

	return &testServer{Server: server, db: database}
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": "password123"})
	resp, err := http.Post(s.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON(t *testing.T, req *http.Request, wantStatus int, target any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d", req.Method, req.URL.Path, wantStatus, resp.StatusCode)
	}
	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func TestLoginEndpoint(t *testing.T) {
	server := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginRefusesDeactivatedUser(t *testing.T) {
	server := setupTestServer(t)
	adminToken := server.login(t, "admin@example.com")

	var users []model.User
	req, _ := authRequest("GET", server.URL+"/api/users?role=auditor", adminToken, nil)
	doJSON(t, req, http.StatusOK, &users)
	if len(users) != 1 {
		t.Fatalf("expected 1 auditor, got %d", len(users))
	}

	req, _ = authRequest("PUT", fmt.Sprintf("%s/api/users/%d/active", server.URL, users[0].ID), adminToken, map[string]bool{"active": false})
	doJSON(t, req, http.StatusOK, nil)

	body, _ := json.Marshal(map[string]string{"email": "auditor@example.com", "password": "password123"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for deactivated user, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterAlwaysCreatesAuditor(t *testing.T) {
	server := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"email":      "new@example.com",
		"password":   "password123",
		"first_name": "Nina",
		"last_name":  "New",
	})
	resp, _ := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var user model.User
	json.NewDecoder(resp.Body).Decode(&user)
	resp.Body.Close()

	if user.Role != model.RoleAuditor {
		t.Errorf("expected auditor role, got %q", user.Role)
	}

	// Duplicate email.
	resp, _ = http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(bytes.Clone(body)))
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	server := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server := setupTestServer(t)
	token := server.login(t, "auditor@example.com")

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	doJSON(t, req, http.StatusOK, nil)

	req, _ = authRequest("GET", server.URL+"/api/auth/me", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAuditorCannotManageItems(t *testing.T) {
	server := setupTestServer(t)
	token := server.login(t, "auditor@example.com")

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]string{
		"sku": "CHK-001", "name": "Chickpeas",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for auditor item create, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Read access still works.
	req, _ = authRequest("GET", server.URL+"/api/items", token, nil)
	doJSON(t, req, http.StatusOK, nil)
}

func createItemViaAPI(t *testing.T, server *testServer, token, sku, name string, barcodes []string) *model.Item {
	t.Helper()
	var item model.Item
	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"sku":               sku,
		"name":              name,
		"expected_quantity": 10,
		"unit":              "pcs",
		"barcodes":          barcodes,
	})
	doJSON(t, req, http.StatusCreated, &item)
	return &item
}

func TestItemsAPIFlow(t *testing.T) {
	server := setupTestServer(t)
	token := server.login(t, "admin@example.com")

	item := createItemViaAPI(t, server, token, "RCE-001", "Rice 1kg", []string{"3830001234567"})

	// Barcode lookup.
	var found model.Item
	req, _ := authRequest("GET", server.URL+"/api/items/barcode/3830001234567", token, nil)
	doJSON(t, req, http.StatusOK, &found)
	if found.ID != item.ID {
		t.Errorf("barcode lookup returned item %d, want %d", found.ID, item.ID)
	}

	// Search.
	var items []model.Item
	req, _ = authRequest("GET", server.URL+"/api/items?q=rice", token, nil)
	doJSON(t, req, http.StatusOK, &items)
	if len(items) != 1 {
		t.Errorf("expected 1 search hit, got %d", len(items))
	}

	// Update.
	req, _ = authRequest("PUT", fmt.Sprintf("%s/api/items/%d", server.URL, item.ID), token, map[string]any{
		"sku": "RCE-001", "name": "Rice 5kg", "expected_quantity": 4, "unit": "pcs",
	})
	doJSON(t, req, http.StatusOK, &found)
	if found.Name != "Rice 5kg" {
		t.Errorf("expected updated name, got %q", found.Name)
	}

	// Delete.
	req, _ = authRequest("DELETE", fmt.Sprintf("%s/api/items/%d", server.URL, item.ID), token, nil)
	doJSON(t, req, http.StatusOK, nil)

	req, _ = authRequest("GET", fmt.Sprintf("%s/api/items/%d", server.URL, item.ID), token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTaskLifecycleOverAPI(t *testing.T) {
	server := setupTestServer(t)
	adminToken := server.login(t, "admin@example.com")
	auditorToken := server.login(t, "auditor@example.com")

	item := createItemViaAPI(t, server, adminToken, "FLR-001", "Flour", nil)

	var auditors []model.User
	req, _ := authRequest("GET", server.URL+"/api/users?role=auditor", adminToken, nil)
	doJSON(t, req, http.StatusOK, &auditors)
	auditorID := auditors[0].ID

	// Auditors cannot create tasks.
	req, _ = authRequest("POST", server.URL+"/api/tasks", auditorToken, map[string]any{
		"title": "nope", "due_date": "2026-09-15",
		"items": []map[string]any{{"item_id": item.ID, "expected_quantity": 10}},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for auditor task create, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Admin creates and assigns.
	var task model.Task
	req, _ = authRequest("POST", server.URL+"/api/tasks", adminToken, map[string]any{
		"title":       "Q3 flour count",
		"assigned_to": auditorID,
		"due_date":    "2026-09-15",
		"items":       []map[string]any{{"item_id": item.ID, "expected_quantity": 10}},
	})
	doJSON(t, req, http.StatusCreated, &task)
	if task.Status != model.TaskStatusAssigned {
		t.Fatalf("expected assigned task, got %q", task.Status)
	}

	// Assignee starts.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/tasks/%d/start", server.URL, task.ID), auditorToken, nil)
	doJSON(t, req, http.StatusOK, &task)
	if task.Status != model.TaskStatusInProgress {
		t.Fatalf("expected in_progress, got %q", task.Status)
	}

	// Assignee submits with a discrepancy.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/tasks/%d/submit", server.URL, task.ID), auditorToken, map[string]any{
		"counts": []map[string]any{{"item_id": item.ID, "counted_quantity": 8, "notes": "2 bags torn"}},
	})
	doJSON(t, req, http.StatusOK, &task)
	if task.Status != model.TaskStatusSubmitted {
		t.Fatalf("expected submitted, got %q", task.Status)
	}

	// Double submit conflicts with the state machine.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/tasks/%d/submit", server.URL, task.ID), auditorToken, map[string]any{
		"counts": []map[string]any{},
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for double submit, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Auditor cannot review.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/tasks/%d/review", server.URL, task.ID), auditorToken, map[string]any{"approved": true})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for auditor review, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Admin approves.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/tasks/%d/review", server.URL, task.ID), adminToken, map[string]any{"approved": true})
	doJSON(t, req, http.StatusOK, &task)
	if task.Status != model.TaskStatusApproved {
		t.Fatalf("expected approved, got %q", task.Status)
	}
	if len(task.Items) != 1 || task.Items[0].CountedQuantity == nil || *task.Items[0].CountedQuantity != 8 {
		t.Errorf("expected counted quantity 8 in approved task, got %+v", task.Items)
	}
}

func TestTaskSubmitVersionConflict(t *testing.T) {
	server := setupTestServer(t)
	adminToken := server.login(t, "admin@example.com")
	auditorToken := server.login(t, "auditor@example.com")

	item := createItemViaAPI(t, server, adminToken, "SGR-001", "Sugar", nil)

	var auditors []model.User
	req, _ := authRequest("GET", server.URL+"/api/users?role=auditor", adminToken, nil)
	doJSON(t, req, http.StatusOK, &auditors)

	var task model.Task
	req, _ = authRequest("POST", server.URL+"/api/tasks", adminToken, map[string]any{
		"title":       "Sugar count",
		"assigned_to": auditors[0].ID,
		"due_date":    "2026-09-20",
		"items":       []map[string]any{{"item_id": item.ID, "expected_quantity": 5}},
	})
	doJSON(t, req, http.StatusCreated, &task)

	req, _ = authRequest("POST", fmt.Sprintf("%s/api/tasks/%d/start", server.URL, task.ID), auditorToken, nil)
	doJSON(t, req, http.StatusOK, &task)

	// Stale version is refused.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/tasks/%d/submit", server.URL, task.ID), auditorToken, map[string]any{
		"counts":  []map[string]any{{"item_id": item.ID, "counted_quantity": 5}},
		"version": task.Version - 1,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusPreconditionFailed {
		t.Errorf("expected 412 for stale version, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Matching version goes through.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/tasks/%d/submit", server.URL, task.ID), auditorToken, map[string]any{
		"counts":  []map[string]any{{"item_id": item.ID, "counted_quantity": 5}},
		"version": task.Version,
	})
	doJSON(t, req, http.StatusOK, &task)
	if task.Status != model.TaskStatusSubmitted {
		t.Errorf("expected submitted, got %q", task.Status)
	}
}

func TestAuditorTaskScoping(t *testing.T) {
	server := setupTestServer(t)
	adminToken := server.login(t, "admin@example.com")
	auditorToken := server.login(t, "auditor@example.com")

	item := createItemViaAPI(t, server, adminToken, "SLT-001", "Salt", nil)

	// Unassigned task, invisible to the auditor.
	var task model.Task
	req, _ := authRequest("POST", server.URL+"/api/tasks", adminToken, map[string]any{
		"title":    "Unassigned count",
		"due_date": "2026-10-01",
		"items":    []map[string]any{{"item_id": item.ID, "expected_quantity": 3}},
	})
	doJSON(t, req, http.StatusCreated, &task)

	var tasks []model.Task
	req, _ = authRequest("GET", server.URL+"/api/tasks", auditorToken, nil)
	doJSON(t, req, http.StatusOK, &tasks)
	if len(tasks) != 0 {
		t.Errorf("expected 0 tasks for auditor, got %d", len(tasks))
	}

	req, _ = authRequest("GET", fmt.Sprintf("%s/api/tasks/%d", server.URL, task.ID), auditorToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for unassigned task fetch, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Admin sees it.
	req, _ = authRequest("GET", server.URL+"/api/tasks", adminToken, nil)
	doJSON(t, req, http.StatusOK, &tasks)
	if len(tasks) != 1 {
		t.Errorf("expected 1 task for admin, got %d", len(tasks))
	}
}

func TestReportFlowOverAPI(t *testing.T) {
	server := setupTestServer(t)
	adminToken := server.login(t, "admin@example.com")
	auditorToken := server.login(t, "auditor@example.com")

	item := createItemViaAPI(t, server, adminToken, "OIL-001", "Olive oil", []string{"3830007654321"})

	// Auditor files a report from a scan.
	var report model.ItemReport
	req, _ := authRequest("POST", server.URL+"/api/reports", auditorToken, map[string]any{
		"item_id":          item.ID,
		"item_name":        item.Name,
		"barcode":          "3830007654321",
		"counted_quantity": 7,
		"comments":         "three bottles past expiry",
	})
	doJSON(t, req, http.StatusCreated, &report)
	if report.Status != model.ReportStatusPending {
		t.Fatalf("expected pending report, got %q", report.Status)
	}

	// Badge count for the admin.
	var count map[string]int
	req, _ = authRequest("GET", server.URL+"/api/reports/pending/count", adminToken, nil)
	doJSON(t, req, http.StatusOK, &count)
	if count["count"] != 1 {
		t.Errorf("expected pending count 1, got %d", count["count"])
	}

	// Auditor cannot review.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/reports/%d/review", server.URL, report.ID), auditorToken, map[string]any{"status": model.ReportStatusApproved})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for auditor review, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Admin approves; second review conflicts.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/reports/%d/review", server.URL, report.ID), adminToken, map[string]any{
		"status": model.ReportStatusApproved, "admin_notes": "stock adjusted",
	})
	doJSON(t, req, http.StatusOK, &report)
	if report.Status != model.ReportStatusApproved {
		t.Errorf("expected approved, got %q", report.Status)
	}

	req, _ = authRequest("POST", fmt.Sprintf("%s/api/reports/%d/review", server.URL, report.ID), adminToken, map[string]any{"status": model.ReportStatusRejected})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for second review, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
