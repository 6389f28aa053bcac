package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mzajc/stocktake/internal/model"
)

// The task lifecycle lives in this file: every transition runs inside a
// single transaction, checks the current status first, and bumps the task
// version on success. A failed call leaves the task untouched.

// TaskItemInput names one item for a new task. ExpectedQuantity is the
// quantity the admin expects at creation; item name, SKU and unit are
// snapshotted from the live item record.
type TaskItemInput struct {
	ItemID           int64 `json:"item_id"`
	ExpectedQuantity int   `json:"expected_quantity"`
}

// CreateTaskInput carries the fields for a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	AssignedTo  *int64
	Items       []TaskItemInput
	DueDate     time.Time
	CreatedBy   int64
}

// CreateTask creates a task with snapshots of the named items. The task
// starts assigned when an assignee is given, otherwise pending.
func CreateTask(ctx context.Context, db *sql.DB, input CreateTaskInput) (*model.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: task needs at least one item", ErrValidation)
	}
	if input.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date required", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	status := model.TaskStatusPending
	if input.AssignedTo != nil {
		var active bool
		err := tx.QueryRowContext(ctx, `SELECT is_active FROM users WHERE id = ?`, *input.AssignedTo).Scan(&active)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: assignee %d does not exist", ErrValidation, *input.AssignedTo)
		}
		if err != nil {
			return nil, fmt.Errorf("checking assignee: %w", err)
		}
		status = model.TaskStatusAssigned
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (title, description, status, assigned_to, created_by, due_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		input.Title, input.Description, status, input.AssignedTo, input.CreatedBy, input.DueDate,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	taskID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting task id: %w", err)
	}

	for pos, entry := range input.Items {
		var name, sku string
		var unit sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT name, sku, unit FROM items WHERE id = ?`, entry.ItemID,
		).Scan(&name, &sku, &unit)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: item %d does not exist", ErrValidation, entry.ItemID)
		}
		if err != nil {
			return nil, fmt.Errorf("snapshotting item %d: %w", entry.ItemID, err)
		}
		if entry.ExpectedQuantity < 0 {
			return nil, fmt.Errorf("%w: expected quantity must be non-negative", ErrValidation)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO task_items (task_id, item_id, item_name, item_sku, unit, expected_quantity, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			taskID, entry.ItemID, name, sku, unit.String, entry.ExpectedQuantity, pos,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: duplicate or invalid item %d", ErrValidation, entry.ItemID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing task: %w", err)
	}

	return GetTask(ctx, db, taskID)
}

const taskColumns = `t.id, t.title, t.description, t.status, t.assigned_to, t.created_by,
	       t.due_date, t.version, t.created_at, t.updated_at,
	       t.submitted_at, t.approved_at, t.rejected_at, t.rejection_reason,
	       COALESCE(NULLIF(TRIM(a.first_name || ' ' || a.last_name), ''), a.email, '') AS assigned_to_name,
	       COALESCE(NULLIF(TRIM(c.first_name || ' ' || c.last_name), ''), c.email, '') AS created_by_name`

const taskJoins = ` FROM tasks t
	  LEFT JOIN users a ON a.id = t.assigned_to
	  LEFT JOIN users c ON c.id = t.created_by`

func scanTask(scan func(dest ...any) error) (*model.Task, error) {
	t := &model.Task{}
	var description, rejectionReason sql.NullString
	err := scan(&t.ID, &t.Title, &description, &t.Status, &t.AssignedTo, &t.CreatedBy,
		&t.DueDate, &t.Version, &t.CreatedAt, &t.UpdatedAt,
		&t.SubmittedAt, &t.ApprovedAt, &t.RejectedAt, &rejectionReason,
		&t.AssignedToName, &t.CreatedByName)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.RejectionReason = rejectionReason.String
	return t, nil
}

// GetTask returns a task with its ordered items, or nil if missing.
func GetTask(ctx context.Context, db *sql.DB, id int64) (*model.Task, error) {
	row := db.QueryRowContext(ctx, `SELECT `+taskColumns+taskJoins+` WHERE t.id = ?`, id)
	task, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}

	if task.Items, err = getTaskItems(ctx, db, id); err != nil {
		return nil, err
	}
	return task, nil
}

func getTaskItems(ctx context.Context, db *sql.DB, taskID int64) ([]model.TaskItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT item_id, item_name, item_sku, unit, expected_quantity, counted_quantity, notes
		 FROM task_items WHERE task_id = ? ORDER BY position`, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting task items: %w", err)
	}
	defer rows.Close()

	items := []model.TaskItem{}
	for rows.Next() {
		var ti model.TaskItem
		var unit, notes sql.NullString
		if err := rows.Scan(&ti.ItemID, &ti.ItemName, &ti.ItemSKU, &unit, &ti.ExpectedQuantity, &ti.CountedQuantity, &notes); err != nil {
			return nil, fmt.Errorf("scanning task item: %w", err)
		}
		ti.Unit = unit.String
		ti.Notes = notes.String
		items = append(items, ti)
	}
	return items, rows.Err()
}

// FilterTasks returns tasks matching the filter, with items loaded.
// Assignee-scoped queries are ordered by due date ascending (an auditor's
// worklist), everything else by creation time descending.
func FilterTasks(ctx context.Context, db *sql.DB, filter model.TaskFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + taskJoins + ` WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND t.status = ?`
		args = append(args, filter.Status)
	}
	if filter.AssignedTo > 0 {
		query += ` AND t.assigned_to = ?`
		args = append(args, filter.AssignedTo)
	}
	if filter.CreatedBy > 0 {
		query += ` AND t.created_by = ?`
		args = append(args, filter.CreatedBy)
	}

	if filter.AssignedTo > 0 {
		query += ` ORDER BY t.due_date ASC, t.id ASC`
	} else {
		query += ` ORDER BY t.created_at DESC, t.id DESC`
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filtering tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		if tasks[i].Items, err = getTaskItems(ctx, db, tasks[i].ID); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// lockTaskStatus reads a task's status and version inside a transaction.
func lockTaskStatus(ctx context.Context, tx *sql.Tx, taskID int64) (status string, version int64, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT status, version FROM tasks WHERE id = ?`, taskID,
	).Scan(&status, &version)
	if err == sql.ErrNoRows {
		return "", 0, fmt.Errorf("%w: task %d", ErrNotFound, taskID)
	}
	if err != nil {
		return "", 0, fmt.Errorf("reading task status: %w", err)
	}
	return status, version, nil
}

// AssignTask sets or changes a task's assignee, moving a pending task to
// assigned. Fails once the task is submitted or terminal.
func AssignTask(ctx context.Context, db *sql.DB, taskID, assigneeID int64) (*model.Task, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	status, _, err := lockTaskStatus(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if status == model.TaskStatusSubmitted || model.TaskStatusTerminal(status) {
		return nil, fmt.Errorf("%w: cannot reassign a %s task", ErrInvalidState, status)
	}

	var active bool
	err = tx.QueryRowContext(ctx, `SELECT is_active FROM users WHERE id = ?`, assigneeID).Scan(&active)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: assignee %d does not exist", ErrValidation, assigneeID)
	}
	if err != nil {
		return nil, fmt.Errorf("checking assignee: %w", err)
	}

	newStatus := status
	if status == model.TaskStatusPending {
		newStatus = model.TaskStatusAssigned
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET assigned_to = ?, status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		assigneeID, newStatus, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("assigning task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing assignment: %w", err)
	}
	return GetTask(ctx, db, taskID)
}

// StartTask moves an assigned task to in_progress. Only the assignee may
// start work, and only from the assigned status.
func StartTask(ctx context.Context, db *sql.DB, taskID, userID int64) (*model.Task, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	status, _, err := lockTaskStatus(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if status != model.TaskStatusAssigned {
		return nil, fmt.Errorf("%w: cannot start a %s task", ErrInvalidState, status)
	}

	var assignedTo sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT assigned_to FROM tasks WHERE id = ?`, taskID).Scan(&assignedTo); err != nil {
		return nil, fmt.Errorf("reading assignee: %w", err)
	}
	if !assignedTo.Valid || assignedTo.Int64 != userID {
		return nil, fmt.Errorf("%w: task is not assigned to user %d", ErrInvalidState, userID)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.TaskStatusInProgress, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("starting task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing start: %w", err)
	}
	return GetTask(ctx, db, taskID)
}

// CountInput records one counted item on submission.
type CountInput struct {
	ItemID          int64  `json:"item_id"`
	CountedQuantity int    `json:"counted_quantity"`
	Notes           string `json:"notes,omitempty"`
}

// SubmitTask records counted quantities and moves the task to submitted.
// Counts for item ids not in the task are silently ignored; task items
// without a matching count keep a nil counted quantity (partial submission
// is allowed). expectedVersion > 0 enables the stale-write check; 0 keeps
// the original last-write-wins behavior.
func SubmitTask(ctx context.Context, db *sql.DB, taskID int64, counts []CountInput, expectedVersion int64) (*model.Task, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	status, version, err := lockTaskStatus(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && expectedVersion != version {
		return nil, fmt.Errorf("%w: task version is %d, expected %d", ErrConflict, version, expectedVersion)
	}
	if status == model.TaskStatusSubmitted || model.TaskStatusTerminal(status) {
		return nil, fmt.Errorf("%w: cannot submit a %s task", ErrInvalidState, status)
	}

	for _, c := range counts {
		if c.CountedQuantity < 0 {
			return nil, fmt.Errorf("%w: counted quantity must be non-negative", ErrValidation)
		}
		// Unknown item ids affect zero rows, which is fine.
		_, err := tx.ExecContext(ctx,
			`UPDATE task_items SET counted_quantity = ?, notes = ? WHERE task_id = ? AND item_id = ?`,
			c.CountedQuantity, c.Notes, taskID, c.ItemID,
		)
		if err != nil {
			return nil, fmt.Errorf("recording count for item %d: %w", c.ItemID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET status = ?, submitted_at = CURRENT_TIMESTAMP, version = version + 1,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		model.TaskStatusSubmitted, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("submitting task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing submission: %w", err)
	}
	return GetTask(ctx, db, taskID)
}

// AdjudicateTask approves or rejects a submitted task. Approval stamps
// approved_at; rejection stamps rejected_at and stores the reason. Both
// outcomes are terminal.
func AdjudicateTask(ctx context.Context, db *sql.DB, taskID int64, approved bool, rejectionReason string, expectedVersion int64) (*model.Task, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	status, version, err := lockTaskStatus(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && expectedVersion != version {
		return nil, fmt.Errorf("%w: task version is %d, expected %d", ErrConflict, version, expectedVersion)
	}
	if status != model.TaskStatusSubmitted {
		return nil, fmt.Errorf("%w: cannot adjudicate a %s task", ErrInvalidState, status)
	}

	if approved {
		_, err = tx.ExecContext(ctx,
			`UPDATE tasks SET status = ?, approved_at = CURRENT_TIMESTAMP, version = version + 1,
			        updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			model.TaskStatusApproved, taskID,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE tasks SET status = ?, rejected_at = CURRENT_TIMESTAMP, rejection_reason = ?,
			        version = version + 1, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			model.TaskStatusRejected, rejectionReason, taskID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("adjudicating task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing adjudication: %w", err)
	}
	return GetTask(ctx, db, taskID)
}

// CountTasksByStatus returns the number of tasks with the given status.
func CountTasksByStatus(ctx context.Context, db *sql.DB, status string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE status = ?`, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return count, nil
}
