package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/mzajc/stocktake/internal/model"
	"github.com/mzajc/stocktake/internal/store"
)

// ReportsHandler handles ad-hoc item report endpoints.
type ReportsHandler struct {
	DB *sql.DB
}

type createReportRequest struct {
	ItemID          int64  `json:"item_id"`
	ItemName        string `json:"item_name"`
	ItemDescription string `json:"item_description"`
	Category        string `json:"category"`
	Location        string `json:"location"`
	Barcode         string `json:"barcode"`
	CountedQuantity int    `json:"counted_quantity"`
	ExpiryDate      string `json:"expiry_date"`
	Comments        string `json:"comments"`
}

// Create handles POST /api/reports. Any authenticated user can file a
// report; the item fields are snapshotted from the request so the
// report survives item edits and deletions.
func (h *ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	report, err := store.CreateReport(r.Context(), h.DB, store.CreateReportInput{
		ItemID:          req.ItemID,
		ItemName:        req.ItemName,
		ItemDescription: req.ItemDescription,
		Category:        req.Category,
		Location:        req.Location,
		Barcode:         req.Barcode,
		CountedQuantity: req.CountedQuantity,
		ExpiryDate:      req.ExpiryDate,
		Comments:        req.Comments,
		AuditorID:       claims.UserID,
		AuditorName:     claims.Name,
	})
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, report)
}

// List handles GET /api/reports. Admins see everything, auditors only
// their own submissions.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	filter := model.ReportFilter{Status: r.URL.Query().Get("status")}
	if claims.Role == model.RoleAuditor {
		filter.AuditorID = claims.UserID
	}

	reports, err := store.ListReports(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err)
		return
	}
	if reports == nil {
		reports = []model.ItemReport{}
	}
	jsonResponse(w, http.StatusOK, reports)
}

// Get handles GET /api/reports/{id}.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, err := store.GetReport(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if report == nil {
		jsonError(w, http.StatusNotFound, "report not found")
		return
	}

	claims := GetClaims(r.Context())
	if claims.Role == model.RoleAuditor && report.AuditorID != claims.UserID {
		jsonError(w, http.StatusForbidden, "not your report")
		return
	}

	jsonResponse(w, http.StatusOK, report)
}

// Review handles POST /api/reports/{id}/review. Admin only; each
// report is reviewed exactly once.
func (h *ReportsHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	var req struct {
		Status     string `json:"status"`
		AdminNotes string `json:"admin_notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	report, err := store.ReviewReport(r.Context(), h.DB, id, req.Status, req.AdminNotes, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// PendingCount handles GET /api/reports/pending/count, the badge on
// the admin dashboard.
func (h *ReportsHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	count, err := store.CountPendingReports(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"count": count})
}
