package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/farm-market-backend/internal/domain/entity"
	"github.com/ignatzorin/farm-market-backend/internal/domain/valueobject"
	"github.com/ignatzorin/farm-market-backend/internal/interface/http/response"
	"github.com/ignatzorin/farm-market-backend/internal/logger"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/farm-market-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)
}

func newTokens() *service.TokenManager {
	return service.NewTokenManager("access-secret-for-tests-0123456789", "refresh-secret-for-tests-0123456789", time.Minute, time.Hour)
}

func accessToken(t *testing.T, tokens *service.TokenManager, role valueobject.Role) (uuid.UUID, string) {
	t.Helper()
	user := &entity.User{ID: uuid.New(), Name: "Ravi", Phone: "+919876500001", Role: role}
	pair, err := tokens.GeneratePair(user)
	require.NoError(t, err)
	return user.ID, pair.AccessToken
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens()
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		require.True(t, ok)
		role, _ := CurrentRole(c)
		c.JSON(http.StatusOK, gin.H{"id": userID, "role": role})
	})

	w := perform(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))

	w = perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	userID, token := accessToken(t, tokens, valueobject.RoleFarmer)
	w = perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), `"role":"farmer"`)
}

func TestAuthMiddleware_RejectsRefreshToken(t *testing.T) {
	tokens := newTokens()
	user := &entity.User{ID: uuid.New(), Role: valueobject.RoleBuyer}
	pair, err := tokens.GeneratePair(user)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	tokens := newTokens()
	r := gin.New()
	r.POST("/listings", AuthMiddleware(tokens), RequireRole(valueobject.RoleFarmer), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	_, farmerToken := accessToken(t, tokens, valueobject.RoleFarmer)
	_, buyerToken := accessToken(t, tokens, valueobject.RoleBuyer)

	w := perform(r, http.MethodPost, "/listings", map[string]string{"Authorization": "Bearer " + farmerToken})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = perform(r, http.MethodPost, "/listings", map[string]string{"Authorization": "Bearer " + buyerToken})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRole(valueobject.RoleBuyer), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUUIDValidator(t *testing.T) {
	r := gin.New()
	r.GET("/listings/:id", UUIDValidator("id"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/listings/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", errorCode(t, w))

	w = perform(r, http.MethodGet, "/listings/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimitMiddleware(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/login", nil).Code)
	w := perform(r, http.MethodPost, "/login", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = perform(r, http.MethodPost, "/login", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, w))
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/attached", func(c *gin.Context) { _ = c.Error(apperror.ErrOfferNotFound) })
	r.GET("/raw", func(c *gin.Context) { _ = c.Error(errors.New("sql: connection refused")) })

	w := perform(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))

	w = perform(r, http.MethodGet, "/attached", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(r, http.MethodGet, "/raw", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:5173"}))
	r.GET("/api/listings", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodOptions, "/api/listings", map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": "GET",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, http.MethodGet, "/api/listings", map[string]string{"Origin": "http://evil.example"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
