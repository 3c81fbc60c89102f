package integration

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/makanika-api/middleware"
	"github.com/kendall-kelly/makanika-api/models"
	"github.com/kendall-kelly/makanika-api/router"
	"github.com/kendall-kelly/makanika-api/services"
	"github.com/kendall-kelly/makanika-api/tests/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "integration-test-secret"

// apiSuite runs requests through the complete route table over an in-memory database
type apiSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	tokens   *services.TokenManager
	s3       *services.MockS3Service
	admin    models.User
	mechanic models.User
	customer models.User
}

func (s *apiSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(s.T())
}

func (s *apiSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.admin = testutil.CreateUser(s.T(), s.db, "Admin", "admin@makanika.test", models.RoleAdmin)
	s.mechanic = testutil.CreateUser(s.T(), s.db, "Mike Mechanic", "mike@makanika.test", models.RoleMechanic)
	s.customer = testutil.CreateUser(s.T(), s.db, "Carol Customer", "carol@example.com", models.RoleCustomer)

	tokens, err := services.NewTokenManager(testSecret, "makanika-api", "makanika-clients", time.Hour)
	s.Require().NoError(err)
	s.tokens = tokens
	s.s3 = services.NewMockS3Service()
	s.router = s.buildRouter(100)
}

// buildRouter wires the services the way the server does, with photos on mock storage
func (s *apiSuite) buildRouter(rateLimit int) *gin.Engine {
	log := zap.NewNop()
	hasher := services.BcryptHasher{Cost: bcrypt.MinCost}
	jobs := services.NewJobService(s.db, hasher, log, "256")

	return router.New(router.Dependencies{
		DB:              s.db,
		Log:             log,
		Tokens:          s.tokens,
		Identity:        services.NewIdentityService(s.db, hasher, log),
		Jobs:            jobs,
		Inventory:       services.NewInventoryService(s.db, log),
		Photos:          services.NewPhotoService(s.db, jobs, services.NewImageService(s.s3), log),
		Limiter:         middleware.NewRateLimiter(middleware.NewMemoryStore(), log),
		RateLimit:       rateLimit,
		RateLimitWindow: time.Minute,
		CORSOrigins:     []string{"*"},
	})
}

// tokenFor signs a token for user directly
func (s *apiSuite) tokenFor(user models.User) string {
	token, err := s.tokens.Issue(user)
	s.Require().NoError(err)
	return token
}

// login exchanges credentials through the token endpoint
func (s *apiSuite) login(email, password string) string {
	w := s.do(http.MethodPost, "/api/v1/auth/token", map[string]string{"email": email, "password": password}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return testutil.Data(s.T(), w)["access_token"].(string)
}

func (s *apiSuite) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	return testutil.PerformRequest(s.T(), s.router, method, path, body, token)
}

func (s *apiSuite) data(w *httptest.ResponseRecorder) map[string]interface{} {
	return testutil.Data(s.T(), w)
}

func (s *apiSuite) list(w *httptest.ResponseRecorder) []interface{} {
	return testutil.DataList(s.T(), w)
}

func (s *apiSuite) errorCode(w *httptest.ResponseRecorder) string {
	return testutil.ErrorCode(s.T(), w)
}
