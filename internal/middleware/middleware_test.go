package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trainer-availability-api/internal/models"
	"github.com/noah-isme/trainer-availability-api/internal/service"
)

func newAuthRouter(t *testing.T, tokens *service.TokenService, handlers ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append([]gin.HandlerFunc{JWT(tokens)}, handlers...)
	chain = append(chain, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/protected", chain...)
	return r
}

func doRequest(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	tokens := service.NewTokenService(service.TokenConfig{Secret: "secret"})
	r := newAuthRouter(t, tokens)

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "Bearer garbage").Code)

	token, err := tokens.IssueToken("5", models.RoleTrainer, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, doRequest(r, "Bearer "+token).Code)
}

func TestRequireRoles(t *testing.T) {
	tokens := service.NewTokenService(service.TokenConfig{Secret: "secret"})
	r := newAuthRouter(t, tokens, RequireRoles(models.RoleAdmin, models.RoleCoordinator))

	trainer, err := tokens.IssueToken("5", models.RoleTrainer, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, doRequest(r, "Bearer "+trainer).Code)

	admin, err := tokens.IssueToken("1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, doRequest(r, "Bearer "+admin).Code)
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(0.001, 2, nil)
	r := gin.New()
	r.GET("/protected", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, doRequest(r, "").Code)
	assert.Equal(t, http.StatusNoContent, doRequest(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, "").Code)
}

func TestRateLimiterPrunesIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1, 1, nil)
	start := time.Now()
	limiter.now = func() time.Time { return start }
	for i := 0; i < limiterPruneSize; i++ {
		limiter.allow(string(rune('a'+i%26)) + time.Duration(i).String())
	}
	require.Len(t, limiter.limiters, limiterPruneSize)

	limiter.now = func() time.Time { return start.Add(limiterIdleTTL + time.Second) }
	assert.True(t, limiter.allow("fresh"))
	assert.Len(t, limiter.limiters, 1)
}

func TestMetricsMiddlewareRecords(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/protected", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	doRequest(r, "")
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}
