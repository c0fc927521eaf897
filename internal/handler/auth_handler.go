// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"cadastro-api/internal/services"
	"cadastro-api/internal/transport/httpdto"
	cadastro_errors "cadastro-api/pkg/errors"
	"cadastro-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	MsgMalformedRequest = "Requisição inválida. O corpo deve ser JSON."
	MsgUnauthorized     = "Sessão inválida ou expirada."
)

// Redirect targets of the confirmation link.
const (
	confirmRedirectMissing = "Token_ausente"
	confirmRedirectInvalid = "Token_invalido"
	confirmRedirectFailed  = "Erro_na_confirmacao"
	confirmRedirectOK      = "Email_confirmado"
)

// AuthHandler handles authentication HTTP endpoints.
type AuthHandler struct {
	service *services.AuthService
	logger  *logger.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service *services.AuthService, l *logger.Logger) *AuthHandler {
	if l == nil {
		l = logger.NewNop()
	}
	return &AuthHandler{service: service, logger: l}
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req httpdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err, services.MsgRegisterMissingFields), services.MsgRegisterFailed)
		return
	}

	res, err := h.service.Register(c.Request.Context(), services.RegisterInput{
		Email:          req.Email,
		Senha:          req.Senha,
		CPF:            req.CPF,
		TermosAceitos:  bool(req.TermosAceitos),
		Nome:           req.DisplayName(),
		Telefone:       req.Telefone,
		DataNascimento: req.BirthDate(),
		CEP:            req.CEP,
		Logradouro:     req.Logradouro,
		Numero:         req.Numero,
		Complemento:    req.Complemento,
		Bairro:         req.Bairro,
		Cidade:         req.Cidade,
		Estado:         req.Estado,
	})
	if err != nil {
		h.writeError(c, err, services.MsgRegisterFailed)
		return
	}

	c.JSON(http.StatusCreated, httpdto.RegisterResponse{
		Message: services.MsgRegistered,
		Email:   res.Email,
	})
}

// Login handles user authentication.
func (h *AuthHandler) Login(c *gin.Context) {
	var req httpdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err, services.MsgLoginMissingFields), services.MsgLoginFailed)
		return
	}

	res, err := h.service.Login(c.Request.Context(), services.LoginInput{
		Email: req.Email,
		Senha: req.Senha,
	})
	if err != nil {
		h.writeError(c, err, services.MsgLoginFailed)
		return
	}

	c.JSON(http.StatusOK, httpdto.LoginResponse{
		Success:     true,
		Message:     services.MsgLoggedIn,
		UserID:      res.UserID.String(),
		AccessToken: res.AccessToken,
		ExpiresIn:   res.ExpiresIn,
	})
}

// Confirm resolves an email confirmation link and redirects to the login
// page with the outcome.
func (h *AuthHandler) Confirm(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		redirectToLogin(c, "error", confirmRedirectMissing)
		return
	}

	id, err := h.service.ConfirmEmail(c.Request.Context(), token)
	switch {
	case err == nil:
		h.logger.InfoCtx(c.Request.Context(), "email confirmed", zap.String("account_id", id.String()))
		redirectToLogin(c, "sucesso", confirmRedirectOK)
	case errors.Is(err, cadastro_errors.ErrNotFound):
		redirectToLogin(c, "error", confirmRedirectInvalid)
	default:
		h.logger.ErrorCtx(c.Request.Context(), "email confirmation failed", zap.Error(err))
		redirectToLogin(c, "error", confirmRedirectFailed)
	}
}

// Session reports the account behind a valid bearer token.
func (h *AuthHandler) Session(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse(MsgUnauthorized, "UNAUTHORIZED"))
		return
	}

	c.JSON(http.StatusOK, httpdto.SessionResponse{
		Success: true,
		UserID:  userID.String(),
	})
}

func redirectToLogin(c *gin.Context, status, message string) {
	q := url.Values{}
	q.Set("status", status)
	q.Set("mensagem", message)
	c.Redirect(http.StatusFound, "/login?"+q.Encode())
}

// writeError answers with the error's public message. Server-side failures
// are logged and replaced by fallback.
func (h *AuthHandler) writeError(c *gin.Context, err error, fallback string) {
	status := services.HTTPStatus(err)
	message := cadastro_errors.PublicMessage(err, fallback)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorCtx(c.Request.Context(), "request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		message = fallback
	}
	c.JSON(status, httpdto.NewErrorResponse(message, errorCode(status)))
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}
