package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/makanika-api/models"
	"github.com/kendall-kelly/makanika-api/services"
	"go.uber.org/zap"
)

// TokenRequest accepts OAuth2 password-form fields (username, password) or JSON (email, password)
type TokenRequest struct {
	Email    string `form:"username" json:"email" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// UpdateRoleRequest moves a user to another role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UserListQuery filters the user listing
type UserListQuery struct {
	Role string `form:"role"`
}

// UserController serves registration, login and user management
type UserController struct {
	identity *services.IdentityService
	tokens   *services.TokenManager
	log      *zap.Logger
}

func NewUserController(identity *services.IdentityService, tokens *services.TokenManager, log *zap.Logger) *UserController {
	return &UserController{identity: identity, tokens: tokens, log: log}
}

// Register handles POST /api/v1/auth/register - public customer self-registration
func (u *UserController) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := u.identity.RegisterCustomer(c.Request.Context(), req)
	if err != nil {
		handleError(c, u.log, err)
		return
	}

	respondSuccess(c, http.StatusCreated, user.ToResponse())
}

// Token handles POST /api/v1/auth/token - exchanges credentials for an access token
func (u *UserController) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required")
		return
	}

	user, err := u.identity.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, u.log, err)
		return
	}

	token, err := u.tokens.Issue(*user)
	if err != nil {
		handleError(c, u.log, err)
		return
	}

	u.log.Info("user logged in", zap.Uint("user_id", user.ID), zap.String("role", user.Role.Name))
	respondSuccess(c, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(u.tokens.TTL().Seconds()),
	})
}

// CreateUser handles POST /api/v1/auth/users - admin creates an account of any role
func (u *UserController) CreateUser(c *gin.Context) {
	var req services.CreateUserInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := u.identity.CreateUser(c.Request.Context(), req)
	if err != nil {
		handleError(c, u.log, err)
		return
	}

	respondSuccess(c, http.StatusCreated, user.ToResponse())
}

// ListUsers handles GET /api/v1/auth/users
func (u *UserController) ListUsers(c *gin.Context) {
	var q UserListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	result, err := u.identity.ListUsers(c.Request.Context(), q.Role, page)
	if err != nil {
		handleError(c, u.log, err)
		return
	}

	users := make([]models.UserResponse, len(result.Items))
	for i, user := range result.Items {
		users[i] = user.ToResponse()
	}
	respondSuccess(c, http.StatusOK, services.PagedResult[models.UserResponse]{
		Items:      users,
		Total:      result.Total,
		Page:       result.Page,
		Size:       result.Size,
		TotalPages: result.TotalPages,
	})
}

// GetUser handles GET /api/v1/auth/users/:id
func (u *UserController) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := u.identity.GetUser(c.Request.Context(), id)
	if err != nil {
		handleError(c, u.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, user.ToResponse())
}

// GetMyProfile handles GET /api/v1/auth/users/me - gets current user's profile
func (u *UserController) GetMyProfile(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}

	user, err := u.identity.GetUser(c.Request.Context(), me.UserID)
	if err != nil {
		handleError(c, u.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, user.ToResponse())
}

// UpdateMyProfile handles PUT /api/v1/auth/users/me - updates current user's name or password
func (u *UserController) UpdateMyProfile(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}

	var req services.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}

	user, err := u.identity.UpdateProfile(c.Request.Context(), me.UserID, req)
	if err != nil {
		handleError(c, u.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, user.ToResponse())
}

// UpdateUserRole handles PUT /api/v1/auth/users/:id/role
func (u *UserController) UpdateUserRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := u.identity.UpdateUserRole(c.Request.Context(), id, req.Role)
	if err != nil {
		handleError(c, u.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, user.ToResponse())
}
