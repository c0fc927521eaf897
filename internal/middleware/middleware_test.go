package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cadastro-api/internal/redis"
	"cadastro-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestIDMiddleware())

	var seen string
	engine.GET("/x", func(c *gin.Context) {
		seen, _ = c.Request.Context().Value(logger.RequestIdKey).(string)
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, seen, 32)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-Id"))
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	l := &logger.Logger{Logger: zap.New(core)}

	engine := gin.New()
	engine.Use(RecoveryMiddleware(l))
	engine.GET("/boom", func(c *gin.Context) {
		panic("secret internals")
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Erro interno do servidor.","code":"INTERNAL_ERROR"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &logger.Logger{Logger: zap.New(core)}

	engine := gin.New()
	engine.Use(RequestIDMiddleware(), LoggingMiddleware(l))
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-Id", "req-1")
	engine.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request completed").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "/ok", fields["path"])
		assert.EqualValues(t, 200, fields["status"])
		assert.Equal(t, "req-1", fields["request_id"])
	}
}

func TestErrorHandler(t *testing.T) {
	engine := gin.New()
	engine.Use(ErrorHandler(logger.NewNop()))
	engine.GET("/err", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/err", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestExtractBearer(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"Basic abc":   "",
		"abc":         "",
		"":            "",
	}
	for header, want := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			c.Request.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, extractBearer(c), header)
	}
}

func TestIsAuthEndpoint(t *testing.T) {
	assert.True(t, isAuthEndpoint("/api/login"))
	assert.True(t, isAuthEndpoint("/api/cadastrar"))
	assert.True(t, isAuthEndpoint("/api/confirmar"))
	assert.False(t, isAuthEndpoint("/health"))
	assert.False(t, isAuthEndpoint("/api/sessao"))
}

func TestRateLimitMiddleware_NilLimiter(t *testing.T) {
	engine := gin.New()
	engine.Use(RateLimitMiddleware(nil, nil))
	engine.POST("/api/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

type stubLimiter struct {
	resetErr error
	resets   []string
}

func (s *stubLimiter) AllowAuth(context.Context, string) (*redis.RateLimitResult, error) {
	return &redis.RateLimitResult{Allowed: true, Remaining: 9, Limit: 10}, nil
}

func (s *stubLimiter) ResetAuth(_ context.Context, ip string) error {
	s.resets = append(s.resets, ip)
	return s.resetErr
}

func TestRateLimitMiddleware_ResetOnLogin(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	limiter := &stubLimiter{resetErr: errors.New("redis down")}

	engine := gin.New()
	engine.Use(RateLimitMiddleware(limiter, &logger.Logger{Logger: zap.New(core)}))
	engine.POST("/api/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.POST("/api/cadastrar", func(c *gin.Context) { c.Status(http.StatusCreated) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cadastrar", nil))
	assert.Empty(t, limiter.resets)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Len(t, limiter.resets, 1)
	assert.Equal(t, 1, logs.FilterMessage("rate limit reset failed").Len())
}
