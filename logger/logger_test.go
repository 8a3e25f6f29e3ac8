package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewBuildsForEachEnvironment(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		l, err := New(Config{Level: "debug", Environment: env, ServiceName: "energy-server"})
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}

func TestMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	r := gin.New()
	r.Use(Middleware(base))
	r.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, FromGin(c))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "HTTP request", entry.Message)
	assert.Equal(t, int64(http.StatusNoContent), entry.ContextMap()["status"])
	assert.Equal(t, "/ping", entry.ContextMap()["path"])
}
