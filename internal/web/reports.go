package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mzajc/stocktake/internal/model"
	"github.com/mzajc/stocktake/internal/store"
)

// AdminReportsPage handles GET /admin/reports with an optional status
// filter, pending first by default.
func (s *Server) AdminReportsPage(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = model.ReportStatusPending
	}

	reports, err := store.ListReports(r.Context(), s.DB, model.ReportFilter{Status: status})
	if err != nil {
		slog.Error("failed to list reports", "error", err)
	}

	pd := s.pageData(r, "Reports")
	pd.Data = struct {
		Reports []model.ItemReport
		Status  string
	}{Reports: reports, Status: status}
	s.Templates.Render(w, "admin_reports.html", pd)
}

// AdminReportReviewSubmit handles POST /admin/reports/{id}/review.
func (s *Server) AdminReportReviewSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	status := model.ReportStatusRejected
	if r.FormValue("verdict") == "approve" {
		status = model.ReportStatusApproved
	}

	if _, err := store.ReviewReport(r.Context(), s.DB, id, status, r.FormValue("admin_notes"), claims.UserID); err != nil {
		slog.Error("failed to review report", "report", id, "error", err)
	}
	http.Redirect(w, r, "/admin/reports", http.StatusSeeOther)
}

// AuditorScanPage handles GET /auditor/scan: barcode entry, and the
// lookup result when a code was submitted.
func (s *Server) AuditorScanPage(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	var item *model.Item
	var notFound bool
	if code != "" {
		var err error
		item, err = store.GetItemByBarcode(r.Context(), s.DB, code)
		if err != nil {
			slog.Error("failed to look up barcode", "error", err)
		}
		notFound = item == nil
	}

	pd := s.pageData(r, "Scan")
	pd.Data = struct {
		Code     string
		Item     *model.Item
		NotFound bool
	}{Code: code, Item: item, NotFound: notFound}
	s.Templates.Render(w, "auditor_scan.html", pd)
}

// AuditorReportPage handles GET /auditor/report: the report form,
// prefilled from an item when the auditor came from a scan.
func (s *Server) AuditorReportPage(w http.ResponseWriter, r *http.Request) {
	var item *model.Item
	if v := r.URL.Query().Get("item"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			item, _ = store.GetItem(r.Context(), s.DB, id)
		}
	}

	pd := s.pageData(r, "Report an item")
	pd.Data = struct {
		Item    *model.Item
		Barcode string
	}{Item: item, Barcode: r.URL.Query().Get("code")}
	s.Templates.Render(w, "auditor_report.html", pd)
}

// AuditorReportSubmit handles POST /auditor/report. The item fields
// are snapshotted into the report so it stays readable after the item
// changes or disappears.
func (s *Server) AuditorReportSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	counted, err := strconv.Atoi(r.FormValue("counted_quantity"))
	if err != nil || counted < 0 {
		pd := s.pageData(r, "Report an item")
		pd.Error = "Counted quantity must be a non-negative number."
		s.Templates.Render(w, "auditor_report.html", pd)
		return
	}

	itemID, _ := strconv.ParseInt(r.FormValue("item_id"), 10, 64)

	_, err = store.CreateReport(r.Context(), s.DB, store.CreateReportInput{
		ItemID:          itemID,
		ItemName:        r.FormValue("item_name"),
		ItemDescription: r.FormValue("item_description"),
		Category:        r.FormValue("category"),
		Location:        r.FormValue("location"),
		Barcode:         r.FormValue("barcode"),
		CountedQuantity: counted,
		ExpiryDate:      r.FormValue("expiry_date"),
		Comments:        r.FormValue("comments"),
		AuditorID:       claims.UserID,
		AuditorName:     claims.Name,
	})
	if err != nil {
		slog.Error("failed to create report", "error", err)
		pd := s.pageData(r, "Report an item")
		pd.Error = "Could not file the report."
		s.Templates.Render(w, "auditor_report.html", pd)
		return
	}

	http.Redirect(w, r, "/auditor/history", http.StatusSeeOther)
}
