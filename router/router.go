package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/makanika-api/controllers"
	"github.com/kendall-kelly/makanika-api/middleware"
	"github.com/kendall-kelly/makanika-api/models"
	"github.com/kendall-kelly/makanika-api/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the components the route table is built from
type Dependencies struct {
	DB        *gorm.DB
	Log       *zap.Logger
	Tokens    *services.TokenManager
	Identity  *services.IdentityService
	Jobs      *services.JobService
	Inventory *services.InventoryService
	Photos    *services.PhotoService
	Limiter   *middleware.RateLimiter

	// RateLimit and RateLimitWindow bound login, registration and the public phone search
	RateLimit       int
	RateLimitWindow time.Duration
	CORSOrigins     []string
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// New builds the gin engine with every API route registered
func New(deps Dependencies) *gin.Engine {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestLogger(deps.Log),
		middleware.SecurityHeaders(),
		cors.New(corsConfig(deps.CORSOrigins)),
	)

	health := controllers.NewHealthController(deps.DB, deps.Log)
	users := controllers.NewUserController(deps.Identity, deps.Tokens, deps.Log)
	roles := controllers.NewRoleController(deps.Identity, deps.Log)
	jobs := controllers.NewJobController(deps.Jobs, deps.Log)
	photos := controllers.NewPhotoController(deps.Photos, deps.Log)
	parts := controllers.NewSparePartController(deps.Inventory, deps.Log)

	limit := func(scope string) gin.HandlerFunc {
		return deps.Limiter.RateLimit(middleware.RateLimitConfig{
			Scope:  scope,
			Limit:  deps.RateLimit,
			Window: deps.RateLimitWindow,
		})
	}
	can := middleware.RequirePermission

	v1 := engine.Group("/api/v1")

	// Public routes
	v1.GET("/health", health.Health)
	v1.POST("/auth/register", limit("register"), users.Register)
	v1.POST("/auth/token", limit("token"), users.Token)
	v1.GET("/jobs/search/by-phone", limit("phone_search"), jobs.SearchByPhone)

	// Protected routes
	protected := v1.Group("",
		middleware.EnsureValidToken(deps.Tokens, deps.Log),
		middleware.LoadIdentity(deps.Identity, deps.Log),
	)

	auth := protected.Group("/auth")
	{
		auth.GET("/users/me", users.GetMyProfile)
		auth.PUT("/users/me", users.UpdateMyProfile)
		auth.POST("/users", can(models.PermManageUsers), users.CreateUser)
		auth.GET("/users", can(models.PermManageUsers), users.ListUsers)
		auth.GET("/users/:id", can(models.PermManageUsers), users.GetUser)
		auth.PUT("/users/:id/role", can(models.PermManageUsers), users.UpdateUserRole)

		auth.POST("/roles", can(models.PermManageRoles), roles.CreateRole)
		auth.GET("/roles", can(models.PermManageRoles), roles.ListRoles)
		auth.GET("/roles/:id", can(models.PermManageRoles), roles.GetRole)
		auth.PUT("/roles/:id", can(models.PermManageRoles), roles.UpdateRole)
		auth.DELETE("/roles/:id", can(models.PermManageRoles), roles.DeleteRole)
	}

	jobRoutes := protected.Group("/jobs")
	{
		jobRoutes.POST("", can(models.PermCreateJob), jobs.CreateJob)
		jobRoutes.GET("", can(models.PermReadJobs), jobs.ListJobs)
		jobRoutes.GET("/stats/summary", can(models.PermReadJobs), jobs.GetJobStats)
		jobRoutes.GET("/customer/my-jobs", can(models.PermReadJobs), jobs.GetMyJobs)
		jobRoutes.GET("/number/:number", can(models.PermReadJobs), jobs.GetJobByNumber)
		jobRoutes.GET("/:id", can(models.PermReadJobs), jobs.GetJob)
		jobRoutes.PUT("/:id", can(models.PermUpdateJob), jobs.UpdateJob)
		jobRoutes.PATCH("/:id/status", can(models.PermUpdateJobStatus), jobs.UpdateJobStatus)
		jobRoutes.PATCH("/:id/cost", can(models.PermUpdateJobCost), jobs.UpdateJobCost)
		jobRoutes.PATCH("/:id/assign", can(models.PermAssignMechanic), jobs.AssignMechanic)
		jobRoutes.GET("/:id/history", can(models.PermReadJobs), jobs.GetJobHistory)

		jobRoutes.POST("/:id/photos", can(models.PermUploadPhotos), photos.UploadPhoto)
		jobRoutes.GET("/:id/photos", can(models.PermReadJobs), photos.ListPhotos)
		jobRoutes.DELETE("/:id/photos/:photoId", can(models.PermUploadPhotos), photos.DeletePhoto)
	}

	partRoutes := protected.Group("/spare_parts")
	{
		partRoutes.POST("", can(models.PermWriteParts), parts.CreatePart)
		partRoutes.GET("", can(models.PermReadParts), parts.ListParts)
		partRoutes.GET("/alerts/low-stock", can(models.PermStockAlerts), parts.LowStockAlerts)
		partRoutes.GET("/categories/all", can(models.PermReadParts), parts.Categories)
		partRoutes.GET("/search/quick", can(models.PermReadParts), parts.QuickSearch)
		partRoutes.GET("/sku/:sku", can(models.PermReadParts), parts.GetPartBySKU)
		partRoutes.GET("/:id", can(models.PermReadParts), parts.GetPart)
		partRoutes.PUT("/:id", can(models.PermWriteParts), parts.UpdatePart)
		partRoutes.DELETE("/:id", can(models.PermWriteParts), parts.DeletePart)
		partRoutes.PATCH("/:id/stock", can(models.PermAdjustStock), parts.AdjustStock)
		partRoutes.GET("/:id/movements", can(models.PermReadParts), parts.ListMovements)
	}

	return engine
}
