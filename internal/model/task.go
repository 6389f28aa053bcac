package model

import "time"

// Task is a unit of assigned stock-count work. Its status only ever moves
// forward along pending → assigned → in_progress → submitted →
// approved/rejected.
type Task struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Status          string     `json:"status"`
	AssignedTo      *int64     `json:"assigned_to,omitempty"`
	CreatedBy       int64      `json:"created_by"`
	Items           []TaskItem `json:"items"`
	DueDate         time.Time  `json:"due_date"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	// Joined fields (not always populated).
	AssignedToName string `json:"assigned_to_name,omitempty"`
	CreatedByName  string `json:"created_by_name,omitempty"`
}

// TaskItem is one item within a task, carrying a snapshot of the item's
// name, SKU, unit and expected quantity taken when the task was created.
// CountedQuantity stays nil until the assignee submits counts.
type TaskItem struct {
	ItemID           int64  `json:"item_id"`
	ItemName         string `json:"item_name"`
	ItemSKU          string `json:"item_sku"`
	Unit             string `json:"unit,omitempty"`
	ExpectedQuantity int    `json:"expected_quantity"`
	CountedQuantity  *int   `json:"counted_quantity,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// Task statuses.
const (
	TaskStatusPending    = "pending"
	TaskStatusAssigned   = "assigned"
	TaskStatusInProgress = "in_progress"
	TaskStatusSubmitted  = "submitted"
	TaskStatusApproved   = "approved"
	TaskStatusRejected   = "rejected"
)

// taskStatusRank orders statuses along the transition graph. Terminal
// statuses share the highest rank.
var taskStatusRank = map[string]int{
	TaskStatusPending:    0,
	TaskStatusAssigned:   1,
	TaskStatusInProgress: 2,
	TaskStatusSubmitted:  3,
	TaskStatusApproved:   4,
	TaskStatusRejected:   4,
}

// ValidTaskStatus reports whether status is one of the six defined values.
func ValidTaskStatus(status string) bool {
	_, ok := taskStatusRank[status]
	return ok
}

// TaskStatusTerminal reports whether status is approved or rejected.
func TaskStatusTerminal(status string) bool {
	return status == TaskStatusApproved || status == TaskStatusRejected
}

// TaskStatusBefore reports whether a is strictly earlier than b on the
// transition graph. Unknown statuses are never earlier than anything.
func TaskStatusBefore(a, b string) bool {
	ra, oka := taskStatusRank[a]
	rb, okb := taskStatusRank[b]
	return oka && okb && ra < rb
}

// TaskFilter narrows task listings. AssignedTo and CreatedBy of 0 mean
// "any"; an empty Status means "any".
type TaskFilter struct {
	Status     string
	AssignedTo int64
	CreatedBy  int64
}
