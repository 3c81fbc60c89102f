package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/makanika-api/config"
	"github.com/kendall-kelly/makanika-api/models"
	"github.com/kendall-kelly/makanika-api/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RoleInput is the body for creating a role
type RoleInput struct {
	Name        string `json:"name" binding:"required,min=2,max=50"`
	Description string `json:"description" binding:"max=255"`
}

// RoleUpdate carries the role fields to change
type RoleUpdate struct {
	Name        *string `json:"name" binding:"omitnil,min=2,max=50"`
	Description *string `json:"description" binding:"omitnil,max=255"`
}

// RegisterInput is the body for public customer self-registration
type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// CreateUserInput is the body an admin uses to create an account of any role
type CreateUserInput struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"required"`
}

// ProfileUpdate carries the profile fields a user may change
type ProfileUpdate struct {
	Name     *string `json:"name" binding:"omitnil,min=2,max=100"`
	Password *string `json:"password" binding:"omitnil,min=8,max=72"`
}

// IdentityService manages users and roles
type IdentityService struct {
	db     *gorm.DB
	hasher PasswordHasher
	log    *zap.Logger
}

// NewIdentityService creates an identity service over db
func NewIdentityService(db *gorm.DB, hasher PasswordHasher, log *zap.Logger) *IdentityService {
	return &IdentityService{db: db, hasher: hasher, log: log}
}

func validateInput(in interface{}) error {
	if err := validation.ValidateStruct(in); err != nil {
		return invalid("VALIDATION_ERROR", "%s", validation.Describe(err))
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeRoleName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// findRoleByName returns the role or gorm.ErrRecordNotFound
func findRoleByName(tx *gorm.DB, name string) (*models.Role, error) {
	var role models.Role
	if err := tx.Where("name = ?", normalizeRoleName(name)).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// EnsureDefaultRoles creates the admin, mechanic and customer roles if missing
func (s *IdentityService) EnsureDefaultRoles(ctx context.Context) error {
	return config.SeedRoles(s.db.WithContext(ctx))
}

// CreateRole adds a new role
func (s *IdentityService) CreateRole(ctx context.Context, in RoleInput) (*models.Role, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	name := normalizeRoleName(in.Name)
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Role{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check role name: %w", err)
	}
	if count > 0 {
		return nil, conflict("ROLE_EXISTS", "Role '%s' already exists", name)
	}

	role := models.Role{Name: name, Description: in.Description}
	if err := db.Create(&role).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("ROLE_EXISTS", "Role '%s' already exists", name)
		}
		return nil, fmt.Errorf("create role: %w", err)
	}
	return &role, nil
}

// ListRoles returns a page of roles ordered by id
func (s *IdentityService) ListRoles(ctx context.Context, page Page) (PagedResult[models.Role], error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Role{}).Count(&total).Error; err != nil {
		return PagedResult[models.Role]{}, fmt.Errorf("count roles: %w", err)
	}

	var roles []models.Role
	if err := page.apply(db.Order("id")).Find(&roles).Error; err != nil {
		return PagedResult[models.Role]{}, fmt.Errorf("list roles: %w", err)
	}
	return newPagedResult(roles, total, page), nil
}

// GetRole returns the role with the given id
func (s *IdentityService) GetRole(ctx context.Context, id uint) (*models.Role, error) {
	return getRole(s.db.WithContext(ctx), id)
}

func getRole(tx *gorm.DB, id uint) (*models.Role, error) {
	var role models.Role
	if err := tx.First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ROLE_NOT_FOUND", "Role with ID %d not found", id)
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &role, nil
}

// UpdateRole renames or re-describes a role
func (s *IdentityService) UpdateRole(ctx context.Context, id uint, in RoleUpdate) (*models.Role, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var role *models.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		role, err = getRole(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			name := normalizeRoleName(*in.Name)
			if name != role.Name {
				var count int64
				if err := tx.Model(&models.Role{}).Where("name = ?", name).Count(&count).Error; err != nil {
					return fmt.Errorf("check role name: %w", err)
				}
				if count > 0 {
					return conflict("ROLE_EXISTS", "Role '%s' already exists", name)
				}
				updates["name"] = name
			}
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(role).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return conflict("ROLE_EXISTS", "Role '%s' already exists", updates["name"])
			}
			return fmt.Errorf("update role: %w", err)
		}
		return tx.First(role, id).Error
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// DeleteRole removes a role that no user holds.
// When users still reference it the error reports how many.
func (s *IdentityService) DeleteRole(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := getRole(tx, id)
		if err != nil {
			return err
		}

		var userCount int64
		if err := tx.Model(&models.User{}).Where("role_id = ?", id).Count(&userCount).Error; err != nil {
			return fmt.Errorf("count role users: %w", err)
		}
		if userCount > 0 {
			return invalid("ROLE_IN_USE",
				"Cannot delete role '%s' because it has %d user(s) assigned to it", role.Name, userCount)
		}

		if err := tx.Delete(role).Error; err != nil {
			return fmt.Errorf("delete role: %w", err)
		}
		s.log.Info("role deleted", zap.Uint("role_id", id), zap.String("role", role.Name))
		return nil
	})
}

// RegisterCustomer creates a customer account through public self-registration
func (s *IdentityService) RegisterCustomer(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := findRoleByName(tx, string(models.RoleCustomer))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return missingCustomerRole()
			}
			return fmt.Errorf("find customer role: %w", err)
		}
		user, err = s.insertUser(tx, in.Name, in.Email, in.Password, role)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("customer registered", zap.Uint("user_id", user.ID))
	return user, nil
}

// CreateUser creates an account with any existing role
func (s *IdentityService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := findRoleByName(tx, in.Role)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("UNKNOWN_ROLE", "Role '%s' does not exist", in.Role)
			}
			return fmt.Errorf("find role: %w", err)
		}
		user, err = s.insertUser(tx, in.Name, in.Email, in.Password, role)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.Uint("user_id", user.ID), zap.String("role", user.Role.Name))
	return user, nil
}

func (s *IdentityService) insertUser(tx *gorm.DB, name, email, password string, role *models.Role) (*models.User, error) {
	email = normalizeEmail(email)

	var count int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, conflict("EMAIL_EXISTS", "A user with email %s already exists", email)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:           strings.TrimSpace(name),
		Email:          email,
		HashedPassword: hash,
		RoleID:         role.ID,
	}
	if err := tx.Omit("Role").Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("EMAIL_EXISTS", "A user with email %s already exists", email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.Role = *role
	return &user, nil
}

// Authenticate checks an email and password pair
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err != nil || !s.hasher.Verify(password, user.HashedPassword) {
		return nil, &Error{Kind: KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "Incorrect email or password"}
	}
	return &user, nil
}

// GetUser returns the user with the given id
func (s *IdentityService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return getUser(s.db.WithContext(ctx), id)
}

func getUser(tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := tx.Preload("Role").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("USER_NOT_FOUND", "User with ID %d not found", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// ListUsers returns a page of users, optionally restricted to one role name
func (s *IdentityService) ListUsers(ctx context.Context, role string, page Page) (PagedResult[models.User], error) {
	role = normalizeRoleName(role)
	base := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.User{})
		if role != "" {
			query = query.Joins("JOIN roles ON roles.id = users.role_id").Where("roles.name = ?", role)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return PagedResult[models.User]{}, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	if err := page.apply(base().Preload("Role").Order("users.id")).Find(&users).Error; err != nil {
		return PagedResult[models.User]{}, fmt.Errorf("list users: %w", err)
	}
	return newPagedResult(users, total, page), nil
}

// UpdateProfile changes a user's name or password
func (s *IdentityService) UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) (*models.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = getUser(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Password != nil {
			hash, err := s.hasher.Hash(*in.Password)
			if err != nil {
				return err
			}
			updates["hashed_password"] = hash
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.User{ID: id}).Updates(updates).Error; err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		user, err = getUser(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUserRole moves a user to another existing role
func (s *IdentityService) UpdateUserRole(ctx context.Context, id uint, roleName string) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := getUser(tx, id)
		if err != nil {
			return err
		}
		role, err := findRoleByName(tx, roleName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("UNKNOWN_ROLE", "Role '%s' does not exist", roleName)
			}
			return fmt.Errorf("find role: %w", err)
		}
		if err := checkJobReferences(tx, current, models.RoleName(role.Name)); err != nil {
			return err
		}
		if err := tx.Model(&models.User{ID: id}).Update("role_id", role.ID).Error; err != nil {
			return fmt.Errorf("update user role: %w", err)
		}
		user, err = getUser(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user role changed", zap.Uint("user_id", id), zap.String("role", user.Role.Name))
	return user, nil
}

// checkJobReferences refuses a role change that would leave jobs pointing at a user
// who no longer holds the role the job expects
func checkJobReferences(tx *gorm.DB, user *models.User, next models.RoleName) error {
	current := user.RoleName()
	if current == next {
		return nil
	}

	var column string
	switch current {
	case models.RoleMechanic:
		column = "assigned_mechanic_id"
	case models.RoleCustomer:
		column = "customer_user_id"
	default:
		return nil
	}

	var jobCount int64
	if err := tx.Model(&models.Job{}).Where(column+" = ?", user.ID).Count(&jobCount).Error; err != nil {
		return fmt.Errorf("count referencing jobs: %w", err)
	}
	if jobCount > 0 {
		return invalid("ROLE_IN_USE",
			"Cannot move user from role '%s' because %d job(s) reference them as %s", current, jobCount, current)
	}
	return nil
}

// CurrentIdentity resolves an authenticated user id to the caller identity
func (s *IdentityService) CurrentIdentity(ctx context.Context, userID uint) (models.Identity, error) {
	user, err := getUser(s.db.WithContext(ctx), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Identity{}, &Error{
				Kind:    KindUnauthorized,
				Code:    "INVALID_TOKEN",
				Message: "Your session expired, log in again",
			}
		}
		return models.Identity{}, err
	}
	return user.Identity(), nil
}

func missingCustomerRole() *Error {
	return &Error{
		Kind:    KindConfiguration,
		Code:    "CONFIGURATION_ERROR",
		Message: "Customer role not found in the system",
	}
}
