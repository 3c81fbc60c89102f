package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthController reports service and database liveness
type HealthController struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewHealthController(db *gorm.DB, log *zap.Logger) *HealthController {
	return &HealthController{db: db, log: log}
}

// Health handles GET /api/v1/health
func (h *HealthController) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		h.log.Error("failed to get database instance", zap.Error(err))
		respondError(c, http.StatusServiceUnavailable, "DATABASE_ERROR", "Failed to get database instance")
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		h.log.Error("database ping failed", zap.Error(err))
		respondError(c, http.StatusServiceUnavailable, "DATABASE_CONNECTION_ERROR", "Database connection failed")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"status":   "healthy",
		"database": h.db.Dialector.Name(),
	})
}
