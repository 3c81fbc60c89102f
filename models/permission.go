package models

// Permission names a single operation guarded by the access gate.
type Permission string

const (
	PermCreateJob       Permission = "jobs:create"
	PermReadJobs        Permission = "jobs:read"
	PermUpdateJob       Permission = "jobs:update"
	PermUpdateJobStatus Permission = "jobs:update-status"
	PermUpdateJobCost   Permission = "jobs:update-cost"
	PermAssignMechanic  Permission = "jobs:assign"
	PermUploadPhotos    Permission = "photos:upload"
	PermReadParts       Permission = "parts:read"
	PermWriteParts      Permission = "parts:write"
	PermAdjustStock     Permission = "parts:adjust-stock"
	PermStockAlerts     Permission = "parts:alerts"
	PermManageUsers     Permission = "users:manage"
	PermManageRoles     Permission = "roles:manage"
)

var rolePermissions = map[RoleName]map[Permission]bool{
	RoleAdmin: {
		PermCreateJob:       true,
		PermReadJobs:        true,
		PermUpdateJob:       true,
		PermUpdateJobStatus: true,
		PermUpdateJobCost:   true,
		PermAssignMechanic:  true,
		PermUploadPhotos:    true,
		PermReadParts:       true,
		PermWriteParts:      true,
		PermAdjustStock:     true,
		PermStockAlerts:     true,
		PermManageUsers:     true,
		PermManageRoles:     true,
	},
	RoleMechanic: {
		PermCreateJob:       true,
		PermReadJobs:        true,
		PermUpdateJobStatus: true,
		PermUpdateJobCost:   true,
		PermUploadPhotos:    true,
		PermReadParts:       true,
		PermAdjustStock:     true,
		PermStockAlerts:     true,
	},
	RoleCustomer: {
		PermReadJobs:  true,
		PermReadParts: true,
	},
}

// Can reports whether the role holds the permission.
func (r RoleName) Can(p Permission) bool {
	return rolePermissions[r][p]
}

// Identity is the authenticated caller as seen by services.
type Identity struct {
	UserID uint     `json:"user_id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   RoleName `json:"role"`
}

// Can reports whether the identity's role holds the permission.
func (i Identity) Can(p Permission) bool {
	return i.Role.Can(p)
}
