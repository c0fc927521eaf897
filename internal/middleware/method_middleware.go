package middleware

import (
	"strings"

	cadastro_errors "cadastro-api/pkg/errors"

	"github.com/gin-gonic/gin"
)

// MethodNotAllowedHandler is installed as the engine's NoMethod handler. It
// lists the methods the path accepts in the Allow header.
func MethodNotAllowedHandler(engine *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var allowed []string
		for _, route := range engine.Routes() {
			if route.Path == c.Request.URL.Path {
				allowed = append(allowed, route.Method)
			}
		}

		message := "Método não permitido."
		if len(allowed) > 0 {
			c.Header("Allow", strings.Join(allowed, ", "))
			message = "Método não permitido. Use " + strings.Join(allowed, " ou ") + "."
		}
		abortWithError(c, cadastro_errors.New(cadastro_errors.ErrMethodNotAllowed, message), "METHOD_NOT_ALLOWED")
	}
}
