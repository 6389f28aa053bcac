package model

import "time"

// ItemReport is a standalone per-item count submission outside the task
// workflow. Item metadata is copied at submission time so the report stays
// readable even if the item is later edited or deleted.
type ItemReport struct {
	ID              int64      `json:"id"`
	ItemID          int64      `json:"item_id"`
	ItemName        string     `json:"item_name"`
	ItemDescription string     `json:"item_description,omitempty"`
	Category        string     `json:"category,omitempty"`
	Location        string     `json:"location,omitempty"`
	Barcode         string     `json:"barcode,omitempty"`
	CountedQuantity int        `json:"counted_quantity"`
	ExpiryDate      string     `json:"expiry_date,omitempty"`
	Comments        string     `json:"comments,omitempty"`
	AuditorID       int64      `json:"auditor_id"`
	AuditorName     string     `json:"auditor_name"`
	Status          string     `json:"status"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy      *int64     `json:"reviewed_by,omitempty"`
	AdminNotes      string     `json:"admin_notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Report statuses. A report starts pending and is reviewed exactly once.
const (
	ReportStatusPending  = "pending"
	ReportStatusApproved = "approved"
	ReportStatusRejected = "rejected"
)

// ValidReportStatus reports whether status is one of the defined values.
func ValidReportStatus(status string) bool {
	return status == ReportStatusPending || status == ReportStatusApproved || status == ReportStatusRejected
}

// ReportFilter narrows report listings. AuditorID of 0 means "any";
// an empty Status means "any".
type ReportFilter struct {
	AuditorID int64
	Status    string
}
