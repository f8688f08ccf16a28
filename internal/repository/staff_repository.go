package repository

import (
	"context"
	"strings"

	"github.com/sbhdesk/complaint-engine/internal/domain"
	"github.com/sbhdesk/complaint-engine/internal/rowstore"
)

// StaffRepository is typed access to the staff directory sheet.
type StaffRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.StaffMember, error)
	List(ctx context.Context) ([]domain.StaffMember, error)
	// ListActiveByDepartment returns active staff whose department
	// matches, case-insensitively.
	ListActiveByDepartment(ctx context.Context, department string) ([]domain.StaffMember, error)
	ListActiveSuperAdmins(ctx context.Context) ([]domain.StaffMember, error)
}

type staffRepository struct {
	store rowstore.Store
}

// NewStaffRepository builds the repository.
func NewStaffRepository(store rowstore.Store) StaffRepository {
	return &staffRepository{store: store}
}

func (r *staffRepository) GetByUsername(ctx context.Context, username string) (*domain.StaffMember, error) {
	row, err := r.store.FindRow(ctx, SheetStaff, FieldUsername, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	staff := rowToStaff(row)
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context) ([]domain.StaffMember, error) {
	rows, err := r.store.ReadAll(ctx, SheetStaff)
	if err != nil {
		return nil, err
	}
	members := make([]domain.StaffMember, 0, len(rows))
	for i := range rows {
		members = append(members, rowToStaff(&rows[i]))
	}
	return members, nil
}

func (r *staffRepository) ListActiveByDepartment(ctx context.Context, department string) ([]domain.StaffMember, error) {
	members, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.StaffMember, 0)
	for _, member := range members {
		if member.Active && strings.EqualFold(member.Department, strings.TrimSpace(department)) {
			matched = append(matched, member)
		}
	}
	return matched, nil
}

func (r *staffRepository) ListActiveSuperAdmins(ctx context.Context) ([]domain.StaffMember, error) {
	members, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.StaffMember, 0)
	for _, member := range members {
		if member.Active && member.Role == domain.StaffRoleSuperAdmin {
			matched = append(matched, member)
		}
	}
	return matched, nil
}

func rowToStaff(row *rowstore.Row) domain.StaffMember {
	return domain.StaffMember{
		RowID:        row.ID,
		Rev:          row.Rev,
		Username:     strings.TrimSpace(row.Cells[FieldUsername]),
		Name:         strings.TrimSpace(row.Cells[FieldName]),
		Phone:        strings.TrimSpace(row.Cells[FieldPhone]),
		Role:         domain.NormalizeRole(row.Cells[FieldRole]),
		Department:   strings.TrimSpace(row.Cells[FieldDepartment]),
		Active:       parseFlag(row.Cells[FieldActive]),
		PasswordHash: strings.TrimSpace(row.Cells[FieldPasswordHash]),
	}
}
