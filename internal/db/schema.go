package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    first_name    TEXT NOT NULL DEFAULT '',
    last_name     TEXT NOT NULL DEFAULT '',
    role          TEXT NOT NULL DEFAULT 'auditor' CHECK (role IN ('admin', 'auditor')),
    is_active     INTEGER NOT NULL DEFAULT 1,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id                INTEGER PRIMARY KEY,
    sku               TEXT NOT NULL,
    name              TEXT NOT NULL,
    description       TEXT,
    category          TEXT,
    location          TEXT,
    expected_quantity INTEGER NOT NULL DEFAULT 0 CHECK (expected_quantity >= 0),
    unit              TEXT,
    image             BLOB,
    image_mime        TEXT,
    is_active         INTEGER NOT NULL DEFAULT 1,
    created_by        INTEGER NOT NULL REFERENCES users(id),
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS item_barcodes (
    item_id INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    barcode TEXT NOT NULL,
    PRIMARY KEY (item_id, barcode)
);

CREATE INDEX IF NOT EXISTS idx_item_barcodes_barcode ON item_barcodes(barcode);

CREATE TABLE IF NOT EXISTS tasks (
    id               INTEGER PRIMARY KEY,
    title            TEXT NOT NULL,
    description      TEXT,
    status           TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'assigned', 'in_progress', 'submitted', 'approved', 'rejected')),
    assigned_to      INTEGER REFERENCES users(id),
    created_by       INTEGER NOT NULL REFERENCES users(id),
    due_date         DATETIME NOT NULL,
    version          INTEGER NOT NULL DEFAULT 1,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    submitted_at     DATETIME,
    approved_at      DATETIME,
    rejected_at      DATETIME,
    rejection_reason TEXT
);

CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks(assigned_to);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

-- Task items snapshot item metadata at task creation, so item_id carries
-- no foreign key: deleting an item must not break historical tasks.
CREATE TABLE IF NOT EXISTS task_items (
    task_id           INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    item_id           INTEGER NOT NULL,
    item_name         TEXT NOT NULL,
    item_sku          TEXT NOT NULL,
    unit              TEXT,
    expected_quantity INTEGER NOT NULL CHECK (expected_quantity >= 0),
    counted_quantity  INTEGER,
    notes             TEXT,
    position          INTEGER NOT NULL,
    PRIMARY KEY (task_id, item_id)
);

-- Item reports likewise denormalize item metadata at submission time.
CREATE TABLE IF NOT EXISTS item_reports (
    id               INTEGER PRIMARY KEY,
    item_id          INTEGER NOT NULL,
    item_name        TEXT NOT NULL,
    item_description TEXT,
    category         TEXT,
    location         TEXT,
    barcode          TEXT,
    counted_quantity INTEGER NOT NULL CHECK (counted_quantity >= 0),
    expiry_date      TEXT,
    comments         TEXT,
    auditor_id       INTEGER NOT NULL REFERENCES users(id),
    auditor_name     TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    submitted_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    reviewed_at      DATETIME,
    reviewed_by      INTEGER REFERENCES users(id),
    admin_notes      TEXT,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_item_reports_auditor ON item_reports(auditor_id);
CREATE INDEX IF NOT EXISTS idx_item_reports_status ON item_reports(status);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
