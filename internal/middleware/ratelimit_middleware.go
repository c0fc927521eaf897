package middleware

import (
	"context"
	"net/http"
	"strconv"

	"cadastro-api/internal/redis"
	cadastro_errors "cadastro-api/pkg/errors"
	"cadastro-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgRateLimited = "Muitas tentativas. Aguarde e tente novamente."

const loginPath = "/api/login"

// AuthLimiter is satisfied by *redis.RateLimiter.
type AuthLimiter interface {
	AllowAuth(ctx context.Context, ip string) (*redis.RateLimitResult, error)
	ResetAuth(ctx context.Context, ip string) error
}

// RateLimitMiddleware applies the per-IP auth limit to the auth endpoints.
// A limiter failure is logged and the request goes through. A successful
// login clears the caller's counter.
func RateLimitMiddleware(limiter AuthLimiter, l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || !isAuthEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		result, err := limiter.AllowAuth(c.Request.Context(), c.ClientIP())
		if err != nil {
			if l != nil {
				l.WarnCtx(c.Request.Context(), "rate limit check skipped", zap.Error(err))
			}
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.Header("Retry-After", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
			abortWithError(c, cadastro_errors.New(cadastro_errors.ErrRateLimited, msgRateLimited), "RATE_LIMITED")
			return
		}

		c.Next()

		if c.Request.URL.Path == loginPath && c.Writer.Status() == http.StatusOK {
			if err := limiter.ResetAuth(c.Request.Context(), c.ClientIP()); err != nil && l != nil {
				l.WarnCtx(c.Request.Context(), "rate limit reset failed", zap.Error(err))
			}
		}
	}
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}

// isAuthEndpoint checks if the request path is an auth endpoint
func isAuthEndpoint(path string) bool {
	authPaths := []string{
		"/api/cadastrar",
		loginPath,
		"/api/confirmar",
	}
	for _, p := range authPaths {
		if path == p {
			return true
		}
	}
	return false
}
