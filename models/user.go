package models

import (
	"time"
)

// User represents an account in the system (admin, mechanic or customer)
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword string    `gorm:"not null" json:"-"`
	RoleID         uint      `gorm:"not null;index" json:"role_id"`
	Role           Role      `gorm:"foreignKey:RoleID;constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// RoleName returns the user's role on the closed enumeration.
// The Role association must be loaded.
func (u User) RoleName() RoleName {
	return ParseRoleName(u.Role.Name)
}

// Identity projects the user into the caller identity used by services.
func (u User) Identity() Identity {
	return Identity{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.RoleName(),
	}
}

// UserResponse is the public projection of a user
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToResponse converts the user into its public projection
func (u User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
