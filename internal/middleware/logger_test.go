package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/charlesng35/gatepass/pkg/logger"
)

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	original := logger.Logger()
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(original) })

	token := strings.Repeat("a", 64)

	r := gin.New()
	r.Use(Logger())
	r.GET("/validate/:token", func(c *gin.Context) {
		c.String(http.StatusConflict, "used")
	})
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/validate/"+token, nil))
	require.Equal(t, http.StatusConflict, w.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, "/validate/:token", entries[1].ContextMap()["path"])
	for _, entry := range entries {
		for _, value := range entry.ContextMap() {
			if s, ok := value.(string); ok {
				require.NotContains(t, s, token)
			}
		}
	}
}
