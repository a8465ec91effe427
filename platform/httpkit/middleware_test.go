package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"telesales_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testJWTConfig struct{}

func (testJWTConfig) GetJWTAccessSecret() string { return "test-secret" }

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(AuthRequired(testJWTConfig{}))
	engine.GET("/me", func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		OK(c, gin.H{"id": id.UserID().String(), "manager": id.HasRole("manager")})
	})
	engine.POST("/admin", RequireAnyRole("super_admin", "manager"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return engine
}

func TestAuthRequired_AcceptsAccessTokenAndExposesIdentity(t *testing.T) {
	engine := newTestEngine()
	userID := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"sub":   userID.String(),
		"type":  "access",
		"roles": []string{"manager"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
	assert.Contains(t, rec.Body.String(), `"manager":true`)
}

func TestAuthRequired_RejectsMissingAndRefreshTokens(t *testing.T) {
	engine := newTestEngine()

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	refresh := signToken(t, jwt.MapClaims{"sub": uuid.NewString(), "type": "refresh"})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAnyRole_ForbidsAgents(t *testing.T) {
	engine := newTestEngine()
	token := signToken(t, jwt.MapClaims{"sub": uuid.NewString(), "type": "access", "roles": []string{"agent"}})

	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleError_UsesKindAndCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/leads", nil)

	err := apperr.Conflict("lead already exists").
		WithCode(apperr.CodeDuplicateLead).
		WithDetails(map[string]string{"existingLeadId": "abc"})
	require.True(t, HandleError(c, err))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"lead already exists","code":"duplicate_lead","details":{"existingLeadId":"abc"}}`, rec.Body.String())
}
