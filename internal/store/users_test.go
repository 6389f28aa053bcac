package store

import (
	"context"
	"errors"
	"testing"

	"github.com/mzajc/stocktake/internal/db"
	"github.com/mzajc/stocktake/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u, err := CreateUser(ctx, database, "ana@example.com", "hash", "Ana", "Kranjc", model.RoleAuditor)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Email != "ana@example.com" || u.Role != model.RoleAuditor {
		t.Errorf("unexpected user: %+v", u)
	}
	if !u.IsActive {
		t.Error("expected new user to be active")
	}

	byEmail, err := GetUserByEmail(ctx, database, "ana@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail == nil || byEmail.ID != u.ID {
		t.Error("expected to find user by email")
	}

	// Duplicate email violates the unique constraint.
	if _, err := CreateUser(ctx, database, "ana@example.com", "hash", "Ana", "Dvojnik", model.RoleAuditor); err == nil {
		t.Error("expected error for duplicate email")
	}
}

func TestSetUserActive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u, _ := CreateUser(ctx, database, "x@example.com", "hash", "X", "Y", model.RoleAuditor)

	if err := SetUserActive(ctx, database, u.ID, false); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	got, _ := GetUser(ctx, database, u.ID)
	if got.IsActive {
		t.Error("expected user to be deactivated")
	}

	if err := SetUserActive(ctx, database, u.ID, true); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	got, _ = GetUser(ctx, database, u.ID)
	if !got.IsActive {
		t.Error("expected user to be reactivated")
	}

	if err := SetUserActive(ctx, database, 9999, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetUserRole(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u, _ := CreateUser(ctx, database, "x@example.com", "hash", "X", "Y", model.RoleAuditor)

	if err := SetUserRole(ctx, database, u.ID, model.RoleAdmin); err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}
	got, _ := GetUser(ctx, database, u.ID)
	if got.Role != model.RoleAdmin {
		t.Errorf("expected admin role, got %q", got.Role)
	}

	if err := SetUserRole(ctx, database, u.ID, "superuser"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown role, got %v", err)
	}
}

func TestListUsersByRole(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seedUsers(t, database)

	auditors, err := ListUsers(ctx, database, model.RoleAuditor)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(auditors) != 1 || auditors[0].Role != model.RoleAuditor {
		t.Errorf("expected 1 auditor, got %+v", auditors)
	}

	all, _ := ListUsers(ctx, database, "")
	if len(all) != 2 {
		t.Errorf("expected 2 users, got %d", len(all))
	}

	count, err := CountUsersByRole(ctx, database, model.RoleAuditor)
	if err != nil {
		t.Fatalf("CountUsersByRole: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 active auditor, got %d", count)
	}
}
