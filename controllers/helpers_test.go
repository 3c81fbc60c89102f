package controllers

import (
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/makanika-api/middleware"
	"github.com/kendall-kelly/makanika-api/models"
	"github.com/kendall-kelly/makanika-api/services"
	"github.com/kendall-kelly/makanika-api/tests/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testHasher = services.BcryptHasher{Cost: bcrypt.MinCost}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockAuthMiddleware stands in for token validation and identity loading
func mockAuthMiddleware(user models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetIdentity(c, user.Identity())
		c.Next()
	}
}

type shop struct {
	db       *gorm.DB
	admin    models.User
	mechanic models.User
	customer models.User
}

func newShop(t *testing.T) shop {
	t.Helper()
	db := testutil.NewTestDB(t)
	return shop{
		db:       db,
		admin:    testutil.CreateUser(t, db, "Admin", "admin@makanika.test", models.RoleAdmin),
		mechanic: testutil.CreateUser(t, db, "Mike Mechanic", "mike@makanika.test", models.RoleMechanic),
		customer: testutil.CreateUser(t, db, "Carol Customer", "carol@example.com", models.RoleCustomer),
	}
}

func (s shop) jobService() *services.JobService {
	return services.NewJobService(s.db, testHasher, zap.NewNop(), "256")
}

func uintPath(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
