package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"energy-server/auth"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(tokens *auth.TokenIssuer, reached *bool) *gin.Engine {
	r := gin.New()
	r.GET("/private", Auth(tokens), func(c *gin.Context) {
		*reached = true
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "email": Email(c)})
	})
	return r
}

func TestAuthMissingTokenIs401(t *testing.T) {
	reached := false
	r := protectedRouter(auth.NewTokenIssuer("k", time.Hour), &reached)

	for _, header := range []string{"", "Token abc", "Bearer"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
	assert.False(t, reached)
}

func TestAuthInvalidTokenIs403(t *testing.T) {
	reached := false
	r := protectedRouter(auth.NewTokenIssuer("k", time.Hour), &reached)

	other, err := auth.NewTokenIssuer("other", time.Hour).Issue("u1", "a@b.com")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
}

func TestAuthExpiredTokenIs403(t *testing.T) {
	reached := false
	r := protectedRouter(auth.NewTokenIssuer("k", time.Hour), &reached)

	expired, err := auth.NewTokenIssuer("k", -time.Minute).Issue("u1", "a@b.com")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token expired.")
	assert.False(t, reached)
}

func TestAuthValidToken(t *testing.T) {
	tokens := auth.NewTokenIssuer("k", time.Hour)
	reached := false
	r := protectedRouter(tokens, &reached)

	token, err := tokens.Issue("u1", "a@b.com")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.JSONEq(t, `{"user":"u1","email":"a@b.com"}`, rec.Body.String())
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Equal(t, "abc", BearerToken("BEARER  abc "))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken("Bearer"))
	assert.Empty(t, BearerToken(""))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, rec.Header().Get(RequestIDHeader), rec.Body.String())

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Body.String())
}

func TestRateLimitMemory(t *testing.T) {
	limiter := NewMemoryLimiter(0.001, 2)
	r := gin.New()
	r.POST("/signin", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signin", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, limiter.Len())

	assert.Equal(t, 1, limiter.Cleanup(0))
	assert.Equal(t, 0, limiter.Len())
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := gin.New()
	r.POST("/signin", RateLimit(failingLimiter{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signin", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRedisLimiterUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	_, err := NewRedisLimiter(client, 5, time.Minute).Allow(context.Background(), "1.2.3.4")
	assert.Error(t, err)
}
