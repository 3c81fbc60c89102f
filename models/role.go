package models

import (
	"strings"
	"time"
)

// RoleName is the closed set of roles the access gate understands.
type RoleName string

const (
	RoleAdmin    RoleName = "admin"
	RoleMechanic RoleName = "mechanic"
	RoleCustomer RoleName = "customer"

	// RoleUnknown is assigned to any stored role name outside the known set.
	// It carries no capabilities.
	RoleUnknown RoleName = ""
)

// DefaultRoles are seeded on startup and by the createadmin command.
var DefaultRoles = []Role{
	{Name: string(RoleAdmin), Description: "Administrator"},
	{Name: string(RoleMechanic), Description: "Mechanic"},
	{Name: string(RoleCustomer), Description: "Customer"},
}

// ParseRoleName maps a stored role name onto the closed enumeration.
func ParseRoleName(name string) RoleName {
	switch RoleName(strings.ToLower(strings.TrimSpace(name))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleMechanic:
		return RoleMechanic
	case RoleCustomer:
		return RoleCustomer
	default:
		return RoleUnknown
	}
}

// Role is a named capability tag attached to users
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:50" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Role model
func (Role) TableName() string {
	return "roles"
}
