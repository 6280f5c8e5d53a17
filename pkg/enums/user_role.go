package enums

import "fmt"

// UserRole represents a portal account role.
type UserRole string

const (
	UserRolePropertyOwner          UserRole = "property_owner"
	UserRoleDealingAssistant       UserRole = "dealing_assistant"
	UserRoleDistrictTourismOfficer UserRole = "district_tourism_officer"
	UserRoleStateOfficer           UserRole = "state_officer"
	UserRoleAdmin                  UserRole = "admin"
	UserRoleSuperAdmin             UserRole = "super_admin"
)

var validUserRoles = []UserRole{
	UserRolePropertyOwner,
	UserRoleDealingAssistant,
	UserRoleDistrictTourismOfficer,
	UserRoleStateOfficer,
	UserRoleAdmin,
	UserRoleSuperAdmin,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to department staff rather than an applicant.
func (u UserRole) IsStaff() bool {
	return u != UserRolePropertyOwner && u.IsValid()
}

// IsDistrictScoped reports whether record access is limited to the officer's district.
func (u UserRole) IsDistrictScoped() bool {
	return u == UserRoleDealingAssistant || u == UserRoleDistrictTourismOfficer
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	// district_officer survives in seed data from the old portal.
	if value == "district_officer" {
		return UserRoleDistrictTourismOfficer, nil
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
