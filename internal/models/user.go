package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents console user roles
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// User represents a console user
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	DisplayName  string             `bson:"display_name,omitempty" json:"display_name,omitempty"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	CreatedBy    string             `bson:"created_by,omitempty" json:"created_by,omitempty"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserRequest is what a super admin submits to add a console user
type CreateUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// UpdateUserRequest changes a console user's role or access. Nil fields are
// left as they are.
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Role        *Role   `json:"role"`
	IsActive    *bool   `json:"is_active"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Exp    int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleViewer, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// Rank orders roles so that a higher role satisfies any lower requirement.
func (r Role) Rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	default:
		return 0
	}
}

// Satisfies reports whether r is at least the required role.
func (r Role) Satisfies(required Role) bool {
	return r.Rank() > 0 && r.Rank() >= required.Rank()
}

// Permissions checked by HasPermission.
const (
	PermViewShipments  = "view_shipments"
	PermViewContainers = "view_containers"
	PermViewMessages   = "view_messages"
	PermViewAgents     = "view_agents"
	PermManageUsers    = "manage_users"
)

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	if !u.IsActive {
		return false
	}
	switch u.Role {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		return action != PermManageUsers
	case RoleViewer:
		return action == PermViewShipments || action == PermViewContainers ||
			action == PermViewMessages || action == PermViewAgents
	default:
		return false
	}
}
