package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"contas/internal/core"
	"contas/internal/storage"
)

// HouseholdService manages households, their members and the reference
// data (categories, units, item categories) entries are classified with.
type HouseholdService struct {
	storage *storage.SQLiteRepository
}

func NewHouseholdService(st *storage.SQLiteRepository) *HouseholdService {
	return &HouseholdService{storage: st}
}

// CreateHousehold creates a home and enrolls its creator as administrator.
// The creator is registered on the fly when the email is unknown.
func (s *HouseholdService) CreateHousehold(ctx context.Context, name, creatorName, creatorEmail string) (storage.HouseholdRow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.HouseholdRow{}, fmt.Errorf("%w: household name is required", core.ErrValidation)
	}
	creatorEmail = normalizeEmail(creatorEmail)
	if creatorEmail == "" {
		return storage.HouseholdRow{}, fmt.Errorf("%w: creator email is required", core.ErrValidation)
	}

	var homeID int64
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		homeID, err = q.InsertHousehold(ctx, name)
		if err != nil {
			return err
		}

		userID, err := q.FindUserByEmail(ctx, creatorEmail)
		if errors.Is(err, core.ErrNotFound) {
			userID, err = q.InsertUser(ctx, creatorName, "", creatorEmail)
		}
		if err != nil {
			return err
		}

		_, err = q.InsertMembership(ctx, userID, homeID, core.RoleAdmin)
		return err
	})
	if err != nil {
		return storage.HouseholdRow{}, err
	}

	slog.InfoContext(ctx, "Household created", "home_id", homeID, "name", name)
	return s.storage.Queries().GetHousehold(ctx, homeID)
}

func (s *HouseholdService) GetHousehold(ctx context.Context, id int64) (storage.HouseholdRow, error) {
	return s.storage.Queries().GetHousehold(ctx, id)
}

func (s *HouseholdService) ListHouseholds(ctx context.Context) ([]storage.HouseholdRow, error) {
	return s.storage.Queries().ListHouseholds(ctx)
}

func (s *HouseholdService) RenameHousehold(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: household name is required", core.ErrValidation)
	}
	return s.storage.Queries().UpdateHouseholdName(ctx, id, name)
}

func (s *HouseholdService) DeleteHousehold(ctx context.Context, id int64) error {
	if err := s.storage.Queries().DeleteHousehold(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Household deleted", "home_id", id)
	return nil
}

// AddMember enrolls a user, found by email, into the household. Unknown
// emails get a user row created on the spot, named after the given name or,
// when that is empty, the email prefix.
func (s *HouseholdService) AddMember(ctx context.Context, homeID int64, name, email string, role core.Role) (core.Member, error) {
	email = normalizeEmail(email)
	if email == "" {
		return core.Member{}, fmt.Errorf("%w: email is required", core.ErrValidation)
	}
	if role != core.RoleAdmin && role != core.RoleMember {
		return core.Member{}, fmt.Errorf("%w: unknown role %q", core.ErrValidation, role)
	}
	name = strings.TrimSpace(name)

	var member core.Member
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetHousehold(ctx, homeID); err != nil {
			return err
		}

		userID, err := q.FindUserByEmail(ctx, email)
		if errors.Is(err, core.ErrNotFound) {
			if name == "" {
				name, _, _ = strings.Cut(email, "@")
			}
			userID, err = q.InsertUser(ctx, name, "", email)
		}
		if err != nil {
			return err
		}

		memberID, err := q.InsertMembership(ctx, userID, homeID, role)
		if err != nil {
			return err
		}
		member, err = q.GetMember(ctx, homeID, memberID)
		return err
	})
	if err != nil {
		return core.Member{}, err
	}
	return member, nil
}

func (s *HouseholdService) ListMembers(ctx context.Context, homeID int64) ([]core.Member, error) {
	if _, err := s.storage.Queries().GetHousehold(ctx, homeID); err != nil {
		return nil, err
	}
	return s.storage.Queries().ListMembers(ctx, homeID)
}

// UpdateMemberRole changes a member's role. Demoting the only remaining
// administrator is rejected.
func (s *HouseholdService) UpdateMemberRole(ctx context.Context, homeID, memberID int64, role core.Role) (core.Member, error) {
	if role != core.RoleAdmin && role != core.RoleMember {
		return core.Member{}, fmt.Errorf("%w: unknown role %q", core.ErrValidation, role)
	}

	var out core.Member
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		m, err := q.GetMember(ctx, homeID, memberID)
		if err != nil {
			return err
		}
		if m.Role == core.RoleAdmin && role != core.RoleAdmin {
			if err := s.requireAnotherAdmin(ctx, q, homeID); err != nil {
				return err
			}
		}
		if err := q.UpdateMemberRole(ctx, homeID, memberID, role); err != nil {
			return err
		}
		out, err = q.GetMember(ctx, homeID, memberID)
		return err
	})
	return out, err
}

// RemoveMember drops a member from the household, keeping the guarantee
// that at least one administrator remains.
func (s *HouseholdService) RemoveMember(ctx context.Context, homeID, memberID int64) error {
	return s.storage.WithTx(ctx, func(q *storage.Queries) error {
		m, err := q.GetMember(ctx, homeID, memberID)
		if err != nil {
			return err
		}
		if m.Role == core.RoleAdmin {
			if err := s.requireAnotherAdmin(ctx, q, homeID); err != nil {
				return err
			}
		}
		return q.DeleteMember(ctx, homeID, memberID)
	})
}

func (s *HouseholdService) requireAnotherAdmin(ctx context.Context, q *storage.Queries, homeID int64) error {
	admins, err := q.CountAdmins(ctx, homeID)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return fmt.Errorf("%w: household must keep at least one administrator", core.ErrValidation)
	}
	return nil
}

// RegisterUser creates a user account usable across households.
func (s *HouseholdService) RegisterUser(ctx context.Context, name, nickname, email string) (int64, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return 0, fmt.Errorf("%w: name and email are required", core.ErrValidation)
	}
	return s.storage.Queries().InsertUser(ctx, name, strings.TrimSpace(nickname), email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateCategory adds a category for one transaction type.
func (s *HouseholdService) CreateCategory(ctx context.Context, homeID int64, name string, txType core.TransactionType) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrEmptyCategory)
	}
	if !txType.Valid() {
		return core.Category{}, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrInvalidTxType)
	}

	home := s.storage.Queries().Home(homeID)
	id, err := home.InsertCategory(ctx, name, txType)
	if err != nil {
		return core.Category{}, err
	}
	return home.GetCategory(ctx, id)
}

func (s *HouseholdService) ListCategories(ctx context.Context, homeID int64, txType core.TransactionType) ([]core.Category, error) {
	if txType != "" && !txType.Valid() {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrInvalidTxType)
	}
	return s.storage.Queries().Home(homeID).ListCategories(ctx, txType)
}

// DeleteCategory removes a category that no transaction refers to.
func (s *HouseholdService) DeleteCategory(ctx context.Context, homeID, id int64) error {
	home := s.storage.Queries().Home(homeID)
	c, err := home.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if c.InUse {
		return fmt.Errorf("%w: category %q is in use", core.ErrValidation, c.Name)
	}
	return home.DeleteCategory(ctx, id)
}

func (s *HouseholdService) CreateUnit(ctx context.Context, homeID int64, name, abbreviation string) (core.Unit, error) {
	name = strings.TrimSpace(name)
	abbreviation = strings.TrimSpace(abbreviation)
	if name == "" || abbreviation == "" {
		return core.Unit{}, fmt.Errorf("%w: unit name and abbreviation are required", core.ErrValidation)
	}

	home := s.storage.Queries().Home(homeID)
	id, err := home.InsertUnit(ctx, name, abbreviation)
	if err != nil {
		return core.Unit{}, err
	}
	return core.Unit{ID: id, HomeID: homeID, Name: name, Abbreviation: abbreviation}, nil
}

func (s *HouseholdService) ListUnits(ctx context.Context, homeID int64) ([]core.Unit, error) {
	return s.storage.Queries().Home(homeID).ListUnits(ctx)
}

func (s *HouseholdService) DeleteUnit(ctx context.Context, homeID, id int64) error {
	return s.storage.Queries().Home(homeID).DeleteUnit(ctx, id)
}

func (s *HouseholdService) CreateItemCategory(ctx context.Context, homeID int64, name string) (core.ItemCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ItemCategory{}, fmt.Errorf("%w: item category name is required", core.ErrValidation)
	}

	home := s.storage.Queries().Home(homeID)
	id, err := home.InsertItemCategory(ctx, name)
	if err != nil {
		return core.ItemCategory{}, err
	}
	return core.ItemCategory{ID: id, HomeID: homeID, Name: name}, nil
}

func (s *HouseholdService) ListItemCategories(ctx context.Context, homeID int64) ([]core.ItemCategory, error) {
	return s.storage.Queries().Home(homeID).ListItemCategories(ctx)
}

func (s *HouseholdService) DeleteItemCategory(ctx context.Context, homeID, id int64) error {
	return s.storage.Queries().Home(homeID).DeleteItemCategory(ctx, id)
}
