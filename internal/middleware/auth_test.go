package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"career_coach_backend/internal/model"
	"career_coach_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-test-secret-0123456789abcdef"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := r.Group("/", AuthMiddleware(secret))
	auth.GET("/me", func(c *gin.Context) {
		util.Success(c, gin.H{"id": util.GetUserFromContext(c).UserID})
	})
	auth.GET("/admin", RoleMiddleware(model.RoleAdmin), func(c *gin.Context) {
		util.Success(c, nil)
	})
	return r
}

func request(t *testing.T, r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()

	seeker, err := util.GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: 3}, Role: model.RoleSeeker}, secret, time.Hour)
	require.NoError(t, err)
	forged, err := util.GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: 3}}, "some-other-secret-value-for-tests", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, request(t, r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(t, r, "/me", forged).Code)
	assert.Equal(t, http.StatusUnauthorized, request(t, r, "/me", "garbage").Code)

	w := request(t, r, "/me", seeker)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":3`)
}

func TestRoleMiddleware(t *testing.T) {
	r := newRouter()

	seeker, err := util.GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: 1}, Role: model.RoleSeeker}, secret, time.Hour)
	require.NoError(t, err)
	admin, err := util.GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: 2}, Role: model.RoleAdmin}, secret, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, request(t, r, "/admin", seeker).Code)
	assert.Equal(t, http.StatusOK, request(t, r, "/admin", admin).Code)
}
