package middleware

import (
	"fmt"
	"net/http"

	"cadastro-api/internal/services"
	"cadastro-api/internal/transport/httpdto"
	"cadastro-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInternal = "Erro interno do servidor."

// ErrorHandler answers with a generic 500 when a handler attached errors to
// the context without writing a response.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.ErrorCtx(c.Request.Context(), "request error", zap.Error(err))
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(msgInternal, "INTERNAL_ERROR"))
	}
}

// abortWithError answers with the status mapped from err's kind and err's
// message as the client-facing text.
func abortWithError(c *gin.Context, err error, code string) {
	c.AbortWithStatusJSON(services.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), code))
}

// RecoveryMiddleware turns a panic into a generic 500 and logs it.
func RecoveryMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				if l != nil {
					l.ErrorCtx(c.Request.Context(), "panic recovered",
						zap.String("panic", fmt.Sprint(rec)),
						zap.Stack("stack"),
					)
				}
				if !c.Writer.Written() {
					c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(msgInternal, "INTERNAL_ERROR"))
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
