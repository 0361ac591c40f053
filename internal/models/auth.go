package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAccountAdministrator UserRole = "ACCOUNT_ADMINISTRATOR"
	RoleAdminOfficer         UserRole = "ADMIN_OFFICER"
	RoleWoodlandOfficer      UserRole = "WOODLAND_OFFICER"
	RoleFieldManager         UserRole = "FIELD_MANAGER"
	RoleApplicant            UserRole = "APPLICANT"
)

// Internal reports whether the role belongs to case-handling staff.
func (r UserRole) Internal() bool {
	switch r {
	case RoleAccountAdministrator, RoleAdminOfficer, RoleWoodlandOfficer, RoleFieldManager:
		return true
	}
	return false
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
