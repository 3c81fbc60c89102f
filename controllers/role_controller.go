package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/makanika-api/services"
	"go.uber.org/zap"
)

// RoleController serves role management. Every route is admin only.
type RoleController struct {
	identity *services.IdentityService
	log      *zap.Logger
}

func NewRoleController(identity *services.IdentityService, log *zap.Logger) *RoleController {
	return &RoleController{identity: identity, log: log}
}

// CreateRole handles POST /api/v1/auth/roles
func (r *RoleController) CreateRole(c *gin.Context) {
	var req services.RoleInput
	if !bindJSON(c, &req) {
		return
	}

	role, err := r.identity.CreateRole(c.Request.Context(), req)
	if err != nil {
		handleError(c, r.log, err)
		return
	}
	respondSuccess(c, http.StatusCreated, role)
}

// ListRoles handles GET /api/v1/auth/roles
func (r *RoleController) ListRoles(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	roles, err := r.identity.ListRoles(c.Request.Context(), page)
	if err != nil {
		handleError(c, r.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, roles)
}

// GetRole handles GET /api/v1/auth/roles/:id
func (r *RoleController) GetRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	role, err := r.identity.GetRole(c.Request.Context(), id)
	if err != nil {
		handleError(c, r.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, role)
}

// UpdateRole handles PUT /api/v1/auth/roles/:id
func (r *RoleController) UpdateRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.RoleUpdate
	if !bindJSON(c, &req) {
		return
	}

	role, err := r.identity.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, r.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, role)
}

// DeleteRole handles DELETE /api/v1/auth/roles/:id. Roles still assigned to users are kept.
func (r *RoleController) DeleteRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := r.identity.DeleteRole(c.Request.Context(), id); err != nil {
		handleError(c, r.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Role deleted successfully"})
}
