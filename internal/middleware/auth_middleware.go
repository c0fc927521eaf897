package middleware

import (
	"context"
	"strings"

	"cadastro-api/internal/services"
	cadastro_errors "cadastro-api/pkg/errors"
	"cadastro-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

const msgUnauthorized = "Sessão inválida ou expirada."

var errSession = cadastro_errors.New(cadastro_errors.ErrUnauthorized, msgUnauthorized)

// AuthMiddleware requires a bearer access token minted by Login and puts the
// account id on the request context.
func AuthMiddleware(service *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := service.ParseAccessToken(extractBearer(c))
		if err != nil {
			abortWithError(c, errSession, "UNAUTHORIZED")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			abortWithError(c, errSession, "UNAUTHORIZED")
			return
		}

		ctx := services.WithUserContext(c.Request.Context(), userID)
		ctx = context.WithValue(ctx, logger.UserIdKey, userID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
