// Package entity contains the core business objects of the project.
package entity

import "slices"

// Role represents a role flag a profile can hold.
type Role string

const (
	// RoleStudent indicates a student profile.
	RoleStudent Role = "student"
	// RoleTeacher indicates a teacher profile.
	RoleTeacher Role = "teacher"
	// RoleAdmin indicates a staff administrator.
	RoleAdmin Role = "admin"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

// ToStrings converts Roles to []string for JWT compatibility.
func (rs Roles) ToStrings() []string {
	result := make([]string, len(rs))
	for i, r := range rs {
		result[i] = r.String()
	}

	return result
}

// RolesFromStrings converts []string to Roles, filtering out invalid role strings.
func RolesFromStrings(ss []string) Roles {
	result := make(Roles, 0, len(ss))
	for _, s := range ss {
		role := Role(s)
		if role.IsValid() {
			result = append(result, role)
		}
	}

	return result
}

// Roles returns the role flags set on the profile.
func (p *Profile) Roles() Roles {
	roles := make(Roles, 0, 3)
	if p.IsStudent {
		roles = append(roles, RoleStudent)
	}
	if p.IsTeacher {
		roles = append(roles, RoleTeacher)
	}
	if p.IsAdmin {
		roles = append(roles, RoleAdmin)
	}

	return roles
}
