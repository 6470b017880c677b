package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"viewer role", RoleViewer, true},
		{"admin role", RoleAdmin, true},
		{"super admin role", RoleSuperAdmin, true},
		{"legacy manager role", "manager", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidRole(tt.role))
		})
	}
}

func TestRole_Satisfies(t *testing.T) {
	tests := []struct {
		name     string
		have     Role
		need     Role
		expected bool
	}{
		{"super admin covers admin", RoleSuperAdmin, RoleAdmin, true},
		{"super admin covers viewer", RoleSuperAdmin, RoleViewer, true},
		{"admin covers admin", RoleAdmin, RoleAdmin, true},
		{"admin does not cover super admin", RoleAdmin, RoleSuperAdmin, false},
		{"viewer does not cover admin", RoleViewer, RoleAdmin, false},
		{"unknown covers nothing", "guest", RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.have.Satisfies(tt.need))
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	superAdmin := &User{Role: RoleSuperAdmin, IsActive: true}
	admin := &User{Role: RoleAdmin, IsActive: true}
	viewer := &User{Role: RoleViewer, IsActive: true}
	disabled := &User{Role: RoleSuperAdmin, IsActive: false}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		{"super admin can manage users", superAdmin, "manage_users", true},
		{"super admin can manage settings", superAdmin, "manage_settings", true},

		{"admin cannot manage users", admin, "manage_users", false},
		{"admin can manage shipments", admin, "manage_shipments", true},
		{"admin can generate documents", admin, "generate_documents", true},

		{"viewer can view shipments", viewer, "view_shipments", true},
		{"viewer can view containers", viewer, "view_containers", true},
		{"viewer cannot manage shipments", viewer, "manage_shipments", false},
		{"viewer cannot manage settings", viewer, "manage_settings", false},

		{"inactive user has no permissions", disabled, "view_shipments", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.HasPermission(tt.action),
				"role %s action %s", tt.user.Role, tt.action)
		})
	}
}
