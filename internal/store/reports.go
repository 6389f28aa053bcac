package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mzajc/stocktake/internal/model"
)

// CreateReportInput carries the fields for a new item report. Item metadata
// is the caller's snapshot of the item at submission time.
type CreateReportInput struct {
	ItemID          int64
	ItemName        string
	ItemDescription string
	Category        string
	Location        string
	Barcode         string
	CountedQuantity int
	ExpiryDate      string
	Comments        string
	AuditorID       int64
	AuditorName     string
}

// CreateReport creates a pending report and stamps its submission time.
func CreateReport(ctx context.Context, db *sql.DB, input CreateReportInput) (*model.ItemReport, error) {
	if input.ItemName == "" {
		return nil, fmt.Errorf("%w: item name required", ErrValidation)
	}
	if input.CountedQuantity < 0 {
		return nil, fmt.Errorf("%w: counted quantity must be non-negative", ErrValidation)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO item_reports (item_id, item_name, item_description, category, location,
		        barcode, counted_quantity, expiry_date, comments, auditor_id, auditor_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		input.ItemID, input.ItemName, input.ItemDescription, input.Category, input.Location,
		input.Barcode, input.CountedQuantity, input.ExpiryDate, input.Comments,
		input.AuditorID, input.AuditorName,
	)
	if err != nil {
		return nil, fmt.Errorf("creating report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting report id: %w", err)
	}

	return GetReport(ctx, db, id)
}

const reportColumns = `id, item_id, item_name, item_description, category, location, barcode,
	       counted_quantity, expiry_date, comments, auditor_id, auditor_name, status,
	       submitted_at, reviewed_at, reviewed_by, admin_notes, created_at, updated_at`

func scanReport(scan func(dest ...any) error) (*model.ItemReport, error) {
	rep := &model.ItemReport{}
	var description, category, location, barcode, expiry, comments, adminNotes sql.NullString
	err := scan(&rep.ID, &rep.ItemID, &rep.ItemName, &description, &category, &location, &barcode,
		&rep.CountedQuantity, &expiry, &comments, &rep.AuditorID, &rep.AuditorName, &rep.Status,
		&rep.SubmittedAt, &rep.ReviewedAt, &rep.ReviewedBy, &adminNotes, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rep.ItemDescription = description.String
	rep.Category = category.String
	rep.Location = location.String
	rep.Barcode = barcode.String
	rep.ExpiryDate = expiry.String
	rep.Comments = comments.String
	rep.AdminNotes = adminNotes.String
	return rep, nil
}

// GetReport returns a report by ID, or nil if missing.
func GetReport(ctx context.Context, db *sql.DB, id int64) (*model.ItemReport, error) {
	row := db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM item_reports WHERE id = ?`, id)
	rep, err := scanReport(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}
	return rep, nil
}

// ListReports returns reports matching the filter, newest submission first.
func ListReports(ctx context.Context, db *sql.DB, filter model.ReportFilter) ([]model.ItemReport, error) {
	query := `SELECT ` + reportColumns + ` FROM item_reports WHERE 1=1`
	var args []any

	if filter.AuditorID > 0 {
		query += ` AND auditor_id = ?`
		args = append(args, filter.AuditorID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY submitted_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var reports []model.ItemReport
	for rows.Next() {
		rep, err := scanReport(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		reports = append(reports, *rep)
	}
	return reports, rows.Err()
}

// ReviewReport sets a pending report to approved or rejected, exactly once.
// There is no re-submission path after review.
func ReviewReport(ctx context.Context, db *sql.DB, id int64, status, adminNotes string, reviewerID int64) (*model.ItemReport, error) {
	if status != model.ReportStatusApproved && status != model.ReportStatusRejected {
		return nil, fmt.Errorf("%w: review status must be approved or rejected", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM item_reports WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: report %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading report status: %w", err)
	}
	if current != model.ReportStatusPending {
		return nil, fmt.Errorf("%w: report already %s", ErrInvalidState, current)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE item_reports SET status = ?, admin_notes = ?, reviewed_by = ?,
		        reviewed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		status, adminNotes, reviewerID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("reviewing report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing review: %w", err)
	}
	return GetReport(ctx, db, id)
}

// CountPendingReports returns the number of reports awaiting review.
func CountPendingReports(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM item_reports WHERE status = ?`, model.ReportStatusPending,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting pending reports: %w", err)
	}
	return count, nil
}
