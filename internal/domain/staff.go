package domain

import "strings"

// StaffRole enumerates staff directory roles.
type StaffRole string

const (
	StaffRoleStaff      StaffRole = "Staff"
	StaffRoleAdmin      StaffRole = "Admin"
	StaffRoleSuperAdmin StaffRole = "Super Admin"
)

// NormalizeRole maps free-text role cells onto canonical roles.
func NormalizeRole(raw string) StaffRole {
	trimmed := strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(trimmed, string(StaffRoleAdmin)), strings.EqualFold(trimmed, "administrator"):
		return StaffRoleAdmin
	case strings.EqualFold(trimmed, string(StaffRoleSuperAdmin)), strings.EqualFold(trimmed, "superadmin"):
		return StaffRoleSuperAdmin
	default:
		return StaffRoleStaff
	}
}

// IsAdministrative reports whether the role may force-close tickets,
// boost priority and see every ticket regardless of department.
func (r StaffRole) IsAdministrative() bool {
	return r == StaffRoleAdmin || r == StaffRoleSuperAdmin
}

// StaffMember is one row of the staff directory sheet.
type StaffMember struct {
	RowID        int64
	Rev          int64
	Username     string
	Name         string
	Phone        string
	Role         StaffRole
	Department   string
	Active       bool
	PasswordHash string
}
