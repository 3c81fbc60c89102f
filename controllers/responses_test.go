package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/makanika-api/services"
	"github.com/kendall-kelly/makanika-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"not found", &services.Error{Kind: services.KindNotFound, Code: "JOB_NOT_FOUND", Message: "Job not found"}, http.StatusNotFound, "JOB_NOT_FOUND"},
		{"forbidden", &services.Error{Kind: services.KindForbidden, Code: "FORBIDDEN", Message: "no"}, http.StatusForbidden, "FORBIDDEN"},
		{"validation", &services.Error{Kind: services.KindValidation, Code: "INSUFFICIENT_STOCK", Message: "low"}, http.StatusBadRequest, "INSUFFICIENT_STOCK"},
		{"conflict", &services.Error{Kind: services.KindConflict, Code: "EMAIL_EXISTS", Message: "taken"}, http.StatusConflict, "EMAIL_EXISTS"},
		{"unauthorized", &services.Error{Kind: services.KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "bad"}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"unavailable", &services.Error{Kind: services.KindUnavailable, Code: "PHOTO_STORAGE_DISABLED", Message: "off"}, http.StatusServiceUnavailable, "PHOTO_STORAGE_DISABLED"},
		{"configuration", &services.Error{Kind: services.KindConfiguration, Code: "X", Message: "Customer role not found in the system"}, http.StatusInternalServerError, "CONFIGURATION_ERROR"},
		{"wrapped business error", fmt.Errorf("outer: %w", &services.Error{Kind: services.KindNotFound, Code: "PART_NOT_FOUND", Message: "gone"}), http.StatusNotFound, "PART_NOT_FOUND"},
		{"storage failure", errors.New("database is locked"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			handleError(c, zap.NewNop(), tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCode, testutil.ErrorCode(t, w))
		})
	}
}

func TestHandleErrorHidesInternalDetail(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	handleError(c, zap.New(core), errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password authentication")
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
	assert.Len(t, c.Errors, 1)
}

func TestPathIDAndPageBinding(t *testing.T) {
	router := setupTestRouter()
	router.GET("/items/:id", func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		page, ok := bindPage(c)
		if !ok {
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"id": id, "skip": page.Skip, "limit": page.Limit})
	})

	w := testutil.PerformRequest(t, router, http.MethodGet, "/items/7?skip=20&limit=10", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	data := testutil.Data(t, w)
	assert.Equal(t, float64(7), data["id"])
	assert.Equal(t, float64(20), data["skip"])
	assert.Equal(t, float64(10), data["limit"])

	for path, code := range map[string]string{
		"/items/abc":           "INVALID_ID",
		"/items/0":             "INVALID_ID",
		"/items/-3":            "INVALID_ID",
		"/items/1?skip=-1":     "VALIDATION_ERROR",
		"/items/1?limit=5000":  "VALIDATION_ERROR",
		"/items/1?limit=three": "VALIDATION_ERROR",
	} {
		w := testutil.PerformRequest(t, router, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, code, testutil.ErrorCode(t, w), path)
	}
}

func TestCallerRequiresIdentity(t *testing.T) {
	router := setupTestRouter()
	router.GET("/me", func(c *gin.Context) {
		if _, ok := caller(c); !ok {
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := testutil.PerformRequest(t, router, http.MethodGet, "/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", testutil.ErrorCode(t, w))
}
