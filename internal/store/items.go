package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mzajc/stocktake/internal/model"
)

// CreateItemInput carries the fields for a new item.
type CreateItemInput struct {
	SKU              string
	Name             string
	Description      string
	Category         string
	Location         string
	ExpectedQuantity int
	Unit             string
	Barcodes         []string
	CreatedBy        int64
}

// CreateItem creates a new item with its barcodes.
func CreateItem(ctx context.Context, db *sql.DB, input CreateItemInput) (*model.Item, error) {
	if input.Name == "" || input.SKU == "" {
		return nil, fmt.Errorf("%w: sku and name required", ErrValidation)
	}
	if input.ExpectedQuantity < 0 {
		return nil, fmt.Errorf("%w: expected quantity must be non-negative", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO items (sku, name, description, category, location, expected_quantity, unit, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		input.SKU, input.Name, input.Description, input.Category, input.Location,
		input.ExpectedQuantity, input.Unit, input.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	for _, code := range input.Barcodes {
		if code == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO item_barcodes (item_id, barcode) VALUES (?, ?)`,
			id, code,
		); err != nil {
			return nil, fmt.Errorf("adding barcode: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}

	return GetItem(ctx, db, id)
}

const itemColumns = `id, sku, name, description, category, location, expected_quantity, unit, image_mime, is_active, created_by, created_at, updated_at`

func scanItem(scan func(dest ...any) error) (*model.Item, error) {
	item := &model.Item{}
	var description, category, location, unit, imageMime sql.NullString
	err := scan(&item.ID, &item.SKU, &item.Name, &description, &category, &location,
		&item.ExpectedQuantity, &unit, &imageMime, &item.IsActive, &item.CreatedBy,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Category = category.String
	item.Location = location.String
	item.Unit = unit.String
	item.ImageMime = imageMime.String
	return item, nil
}

// GetItem returns an item by ID with its barcodes, or nil if missing.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	if item.Barcodes, err = getItemBarcodes(ctx, db, id); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItemByBarcode returns the first item carrying the given barcode, or
// nil if none does. Barcodes are not enforced unique across items.
func GetItemByBarcode(ctx context.Context, db *sql.DB, barcode string) (*model.Item, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT item_id FROM item_barcodes WHERE barcode = ? ORDER BY item_id LIMIT 1`, barcode,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up barcode: %w", err)
	}
	return GetItem(ctx, db, id)
}

func getItemBarcodes(ctx context.Context, db *sql.DB, itemID int64) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT barcode FROM item_barcodes WHERE item_id = ? ORDER BY barcode`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting barcodes: %w", err)
	}
	defer rows.Close()

	barcodes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scanning barcode: %w", err)
		}
		barcodes = append(barcodes, code)
	}
	return barcodes, rows.Err()
}

// SearchItems returns items matching the filter, newest first. Query
// matches name, SKU and description case-insensitively.
func SearchItems(ctx context.Context, db *sql.DB, filter model.ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		query += ` AND (name LIKE ? OR sku LIKE ? OR description LIKE ?)`
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Location != "" {
		query += ` AND location = ?`
		args = append(args, filter.Location)
	}
	if filter.ActiveOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].Barcodes, err = getItemBarcodes(ctx, db, items[i].ID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// UpdateItemInput carries the fields for an item update. Barcodes, when
// non-nil, replace the item's existing set.
type UpdateItemInput struct {
	SKU              string
	Name             string
	Description      string
	Category         string
	Location         string
	ExpectedQuantity int
	Unit             string
	Barcodes         []string
	IsActive         bool
}

// UpdateItem updates an item's metadata and optionally its barcode set.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, input UpdateItemInput) error {
	if input.Name == "" || input.SKU == "" {
		return fmt.Errorf("%w: sku and name required", ErrValidation)
	}
	if input.ExpectedQuantity < 0 {
		return fmt.Errorf("%w: expected quantity must be non-negative", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET sku = ?, name = ?, description = ?, category = ?, location = ?,
		        expected_quantity = ?, unit = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		input.SKU, input.Name, input.Description, input.Category, input.Location,
		input.ExpectedQuantity, input.Unit, input.IsActive, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}

	if input.Barcodes != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM item_barcodes WHERE item_id = ?`, id); err != nil {
			return fmt.Errorf("clearing barcodes: %w", err)
		}
		for _, code := range input.Barcodes {
			if code == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO item_barcodes (item_id, barcode) VALUES (?, ?)`,
				id, code,
			); err != nil {
				return fmt.Errorf("adding barcode: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item update: %w", err)
	}
	return nil
}

// DeleteItem hard-deletes an item and its barcodes. Tasks and reports keep
// their snapshots; nothing cascades to them.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

// CountItems returns the number of active items.
func CountItems(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE is_active = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}
