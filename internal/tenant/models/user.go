package models

import (
	"strings"
	"time"

	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
)

// Role controls what a clinic user may do within their tenant. Roles never
// widen the data a user can see; visibility is always the tenant's.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// User is a clinic staff account. Email is unique within the tenant only.
type User struct {
	ID           id.UserID   `json:"id"`
	TenantID     id.TenantID `json:"tenant_id"`
	Email        string      `json:"email"`
	FullName     string      `json:"full_name"`
	Role         Role        `json:"role"`
	PasswordHash string      `json:"-"` // Never serialize - contains bcrypt hash
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func NewUser(userID id.UserID, tenantID id.TenantID, email, fullName string, role Role, passwordHash string, now time.Time) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user email is not valid")
	}
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user full name cannot be empty")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown user role")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user password hash cannot be empty")
	}
	if tenantID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user must belong to a tenant")
	}
	return &User{
		ID:           userID,
		TenantID:     tenantID,
		Email:        email,
		FullName:     fullName,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
