package services

import (
	"context"
	"errors"
	"testing"

	"contas/internal/core"
	"contas/internal/storage"
)

func TestCreateHouseholdEnrollsCreatorAsAdmin(t *testing.T) {
	repo, _ := newTestStorage(t)
	svc := NewHouseholdService(repo)
	ctx := context.Background()

	hr, err := svc.CreateHousehold(ctx, "Casa Nova", "Maria", "Maria@Example.com")
	if err != nil {
		t.Fatalf("CreateHousehold: %v", err)
	}
	if hr.MemberCount != 1 {
		t.Errorf("member count = %d, want 1", hr.MemberCount)
	}

	members, err := svc.ListMembers(ctx, hr.ID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 || members[0].Role != core.RoleAdmin {
		t.Fatalf("creator should be administrator, got %+v", members)
	}
	if members[0].Email != "maria@example.com" {
		t.Errorf("email should be normalized, got %q", members[0].Email)
	}
}

func TestAddMemberByEmail(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewHouseholdService(repo)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "João", "Jão", "joao@example.com"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	m, err := svc.AddMember(ctx, homeID, "", "joao@example.com", core.RoleMember)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if m.Role != core.RoleMember || m.Name != "João" {
		t.Errorf("unexpected member: %+v", m)
	}

	// Same user twice is rejected.
	if _, err := svc.AddMember(ctx, homeID, "", "joao@example.com", core.RoleMember); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate membership should fail, got %v", err)
	}
}

func TestAddMemberCreatesUnknownUser(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewHouseholdService(repo)
	ctx := context.Background()

	m, err := svc.AddMember(ctx, homeID, "Pedro Silva", "pedro@example.com", core.RoleMember)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if m.Name != "Pedro Silva" || m.Email != "pedro@example.com" {
		t.Errorf("unexpected member: %+v", m)
	}

	// Without a name, the email prefix stands in.
	m, err = svc.AddMember(ctx, homeID, "", "ninguem@example.com", core.RoleMember)
	if err != nil {
		t.Fatalf("AddMember without name: %v", err)
	}
	if m.Name != "ninguem" {
		t.Errorf("name = %q, want email prefix", m.Name)
	}

	// Both are now registered users.
	if _, err := svc.AddMember(ctx, homeID, "", "pedro@example.com", core.RoleMember); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("re-adding the created user should report duplicate, got %v", err)
	}

	// An unknown household still reports not found, without creating a
	// stray user.
	if _, err := svc.AddMember(ctx, 9999, "", "fulano@example.com", core.RoleMember); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown household should report not found, got %v", err)
	}
	if _, err := svc.RegisterUser(ctx, "Fulano", "", "fulano@example.com"); err != nil {
		t.Errorf("user should not linger after rollback: %v", err)
	}
}

func TestLastAdminGuard(t *testing.T) {
	repo, _ := newTestStorage(t)
	svc := NewHouseholdService(repo)
	ctx := context.Background()

	hr, err := svc.CreateHousehold(ctx, "Casa", "Maria", "maria@example.com")
	if err != nil {
		t.Fatalf("CreateHousehold: %v", err)
	}
	members, _ := svc.ListMembers(ctx, hr.ID)
	admin := members[0]

	if _, err := svc.UpdateMemberRole(ctx, hr.ID, admin.ID, core.RoleMember); !errors.Is(err, core.ErrValidation) {
		t.Errorf("demoting the only admin should fail, got %v", err)
	}
	if err := svc.RemoveMember(ctx, hr.ID, admin.ID); !errors.Is(err, core.ErrValidation) {
		t.Errorf("removing the only admin should fail, got %v", err)
	}

	// With a second administrator both operations go through.
	if _, err := svc.RegisterUser(ctx, "João", "", "joao@example.com"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if _, err := svc.AddMember(ctx, hr.ID, "", "joao@example.com", core.RoleAdmin); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if _, err := svc.UpdateMemberRole(ctx, hr.ID, admin.ID, core.RoleMember); err != nil {
		t.Errorf("demotion with another admin present should pass: %v", err)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewHouseholdService(repo)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, homeID, "Contas", core.Expense)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	createExpense(t, repo, homeID, "Luz", 10000, core.NewDate(2025, 1, 1))

	if err := svc.DeleteCategory(ctx, homeID, cat.ID); !errors.Is(err, core.ErrValidation) {
		t.Errorf("category in use must not be deletable, got %v", err)
	}

	unused, err := svc.CreateCategory(ctx, homeID, "Lazer", core.Expense)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if err := svc.DeleteCategory(ctx, homeID, unused.ID); err != nil {
		t.Errorf("unused category should be deletable: %v", err)
	}
}

func TestUnitsAndItemCategories(t *testing.T) {
	repo, homeID := newTestStorage(t)
	svc := NewHouseholdService(repo)
	ctx := context.Background()

	if _, err := svc.CreateUnit(ctx, homeID, "Quilograma", "kg"); err != nil {
		t.Fatalf("CreateUnit: %v", err)
	}
	if _, err := svc.CreateUnit(ctx, homeID, "Quilo", "kg"); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate abbreviation should fail, got %v", err)
	}

	units, err := svc.ListUnits(ctx, homeID)
	if err != nil {
		t.Fatalf("ListUnits: %v", err)
	}
	if len(units) != 1 {
		t.Errorf("expected 1 unit, got %d", len(units))
	}

	ic, err := svc.CreateItemCategory(ctx, homeID, "Limpeza")
	if err != nil {
		t.Fatalf("CreateItemCategory: %v", err)
	}
	if err := svc.DeleteItemCategory(ctx, homeID, ic.ID); err != nil {
		t.Errorf("DeleteItemCategory: %v", err)
	}
}
