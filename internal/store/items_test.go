package store

import (
	"context"
	"errors"
	"testing"

	"github.com/mzajc/stocktake/internal/db"
	"github.com/mzajc/stocktake/internal/model"
)

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	adminID, _ := seedUsers(t, database)

	item, err := CreateItem(ctx, database, CreateItemInput{
		SKU:              "WRP-001",
		Name:             "Pallet wrap",
		Description:      "500mm stretch film",
		Category:         "Packaging",
		Location:         "A-03",
		ExpectedQuantity: 40,
		Unit:             "rolls",
		Barcodes:         []string{"3859888000016", "3859888000023"},
		CreatedBy:        adminID,
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.SKU != "WRP-001" || item.ExpectedQuantity != 40 {
		t.Errorf("unexpected item fields: %+v", item)
	}
	if !item.IsActive {
		t.Error("expected new item to be active")
	}
	if len(item.Barcodes) != 2 {
		t.Errorf("expected 2 barcodes, got %d", len(item.Barcodes))
	}

	_, err = CreateItem(ctx, database, CreateItemInput{Name: "No SKU", CreatedBy: adminID})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for missing sku, got %v", err)
	}
}

func TestGetItemByBarcode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	adminID, _ := seedUsers(t, database)

	item := seedItem(t, database, adminID, "SKU-1", "Scanner test", 5)
	if err := UpdateItem(ctx, database, item.ID, UpdateItemInput{
		SKU: "SKU-1", Name: "Scanner test", ExpectedQuantity: 5,
		Barcodes: []string{"12345"}, IsActive: true,
	}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	found, err := GetItemByBarcode(ctx, database, "12345")
	if err != nil {
		t.Fatalf("GetItemByBarcode: %v", err)
	}
	if found == nil || found.ID != item.ID {
		t.Error("expected to find item by barcode")
	}

	missing, err := GetItemByBarcode(ctx, database, "00000")
	if err != nil {
		t.Fatalf("GetItemByBarcode: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown barcode")
	}
}

func TestSearchItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	adminID, _ := seedUsers(t, database)

	CreateItem(ctx, database, CreateItemInput{
		SKU: "WRP-001", Name: "Pallet wrap", Category: "Packaging", Location: "A-03", CreatedBy: adminID,
	})
	CreateItem(ctx, database, CreateItemInput{
		SKU: "GLV-001", Name: "Work gloves", Category: "PPE", Location: "B-01", CreatedBy: adminID,
	})
	inactive, _ := CreateItem(ctx, database, CreateItemInput{
		SKU: "OLD-001", Name: "Old wrap", Category: "Packaging", Location: "A-03", CreatedBy: adminID,
	})
	UpdateItem(ctx, database, inactive.ID, UpdateItemInput{
		SKU: "OLD-001", Name: "Old wrap", Category: "Packaging", Location: "A-03", IsActive: false,
	})

	byQuery, err := SearchItems(ctx, database, model.ItemFilter{Query: "wrap"})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(byQuery) != 2 {
		t.Errorf("expected 2 items matching 'wrap', got %d", len(byQuery))
	}

	byCategory, _ := SearchItems(ctx, database, model.ItemFilter{Category: "PPE"})
	if len(byCategory) != 1 || byCategory[0].SKU != "GLV-001" {
		t.Errorf("expected the gloves item, got %+v", byCategory)
	}

	activeOnly, _ := SearchItems(ctx, database, model.ItemFilter{ActiveOnly: true})
	if len(activeOnly) != 2 {
		t.Errorf("expected 2 active items, got %d", len(activeOnly))
	}
}

func TestDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	adminID, _ := seedUsers(t, database)

	item := seedItem(t, database, adminID, "DEL-1", "Delete me", 1)
	if err := DeleteItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got != nil {
		t.Error("expected item to be gone after delete")
	}

	if err := DeleteItem(ctx, database, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestItemImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	adminID, _ := seedUsers(t, database)

	item := seedItem(t, database, adminID, "IMG-1", "Photo item", 1)
	imageData := []byte("fake image data")
	if err := SetItemImage(ctx, database, item.ID, imageData, "image/jpeg"); err != nil {
		t.Fatalf("SetItemImage: %v", err)
	}

	data, mime, err := GetItemImage(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("expected image data, got %q", string(data))
	}
	if mime != "image/jpeg" {
		t.Errorf("expected mime 'image/jpeg', got %q", mime)
	}

	if err := SetItemImage(ctx, database, 9999, imageData, "image/jpeg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown item, got %v", err)
	}
}
