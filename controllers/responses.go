package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/makanika-api/middleware"
	"github.com/kendall-kelly/makanika-api/models"
	"github.com/kendall-kelly/makanika-api/services"
	"github.com/kendall-kelly/makanika-api/validation"
	"go.uber.org/zap"
)

// pageQuery is the skip/limit pair accepted by every listing
type pageQuery struct {
	Skip  int `form:"skip" binding:"gte=0"`
	Limit int `form:"limit" binding:"gte=0,lte=1000"`
}

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// statusFor maps a business error kind onto its HTTP status
func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindConflict:
		return http.StatusConflict
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes err as an error envelope. Errors that are not business errors
// are logged and reported without detail.
func handleError(c *gin.Context, log *zap.Logger, err error) {
	if svcErr, ok := services.AsError(err); ok {
		if svcErr.Kind == services.KindConfiguration {
			log.Error("configuration error", zap.String("path", c.FullPath()), zap.String("message", svcErr.Message))
			respondError(c, http.StatusInternalServerError, "CONFIGURATION_ERROR", svcErr.Message)
			return
		}
		respondError(c, statusFor(svcErr.Kind), svcErr.Code, svcErr.Message)
		return
	}

	_ = c.Error(err)
	log.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data: "+validation.Describe(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters: "+validation.Describe(err))
		return false
	}
	return true
}

func bindPage(c *gin.Context) (services.Page, bool) {
	var q pageQuery
	if !bindQuery(c, &q) {
		return services.Page{}, false
	}
	return services.NewPage(q.Skip, q.Limit), true
}

// pathID parses a positive integer path parameter
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// caller returns the authenticated identity set by the auth middleware
func caller(c *gin.Context) (models.Identity, bool) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return models.Identity{}, false
	}
	return identity, true
}
