package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/makanika-api/models"
	"github.com/kendall-kelly/makanika-api/services"
	"go.uber.org/zap"
)

const (
	claimsKey   = "validated_claims"
	identityKey = "identity"
)

// IdentityLoader resolves a token subject into the caller's identity
type IdentityLoader interface {
	CurrentIdentity(ctx context.Context, userID uint) (models.Identity, error)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
func EnsureValidToken(tokens *services.TokenManager, log *zap.Logger) gin.HandlerFunc {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Debug("rejected bearer token", zap.String("path", r.URL.Path), zap.Error(err))

		body := `{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			body = `{"success":false,"error":{"code":"MISSING_TOKEN","message":"Authorization header is required"}}`
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(body)); writeErr != nil {
			log.Warn("failed to write error response", zap.Error(writeErr))
		}
	}

	middleware := jwtmiddleware.New(
		tokens.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Set(claimsKey, r.Context().Value(jwtmiddleware.ContextKey{}))
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get(claimsKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// LoadIdentity resolves the token subject to a stored user. It must run after EnsureValidToken.
// A token whose user no longer exists is rejected.
func LoadIdentity(loader IdentityLoader, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "MISSING_CLAIMS", "Could not retrieve token claims")
			return
		}

		userID, err := services.SubjectUserID(claims)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", err.Error())
			return
		}

		identity, err := loader.CurrentIdentity(c.Request.Context(), userID)
		if err != nil {
			if svcErr, ok := services.AsError(err); ok {
				abortWithError(c, http.StatusUnauthorized, svcErr.Code, svcErr.Message)
				return
			}
			log.Error("failed to load identity", zap.Uint("user_id", userID), zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
			return
		}

		SetIdentity(c, identity)
		c.Next()
	}
}

// SetIdentity stores the caller's identity in the Gin context
func SetIdentity(c *gin.Context, identity models.Identity) {
	c.Set(identityKey, identity)
}

// GetIdentity extracts the caller's identity from the Gin context
func GetIdentity(c *gin.Context) (models.Identity, error) {
	value, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, &AuthError{Code: "UNAUTHORIZED", Message: "Authentication required"}
	}

	identity, ok := value.(models.Identity)
	if !ok {
		return models.Identity{}, &AuthError{Code: "UNAUTHORIZED", Message: "Identity is not in the expected format"}
	}

	return identity, nil
}

// RequirePermission is a middleware that checks the caller's role grants p
func RequirePermission(p models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := GetIdentity(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		if !identity.Can(p) {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions to access this resource")
			return
		}

		c.Next()
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
