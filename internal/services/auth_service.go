package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cadastro-api/config"
	"cadastro-api/internal/domain/account"
	"cadastro-api/internal/repository"
	cadastro_errors "cadastro-api/pkg/errors"
	"cadastro-api/pkg/events"
	"cadastro-api/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client-facing messages.
const (
	MsgRegisterMissingFields = "Dados essenciais (e-mail, senha, termos e CPF) ausentes."
	MsgInvalidEmail          = "O formato do e-mail é inválido. Verifique o endereço."
	MsgInvalidCPFLength      = "CPF inválido. Certifique-se de que tem 11 dígitos."
	MsgInvalidCPFDigits      = "O CPF fornecido é inválido. Verifique os números."
	MsgInvalidBirthDate      = "Data de nascimento inválida. Use o formato AAAA-MM-DD."
	MsgPasswordTooLong       = "A senha excede o tamanho máximo permitido."
	MsgAlreadyRegistered     = "E-mail ou CPF já cadastrado."
	MsgRegisterFailed        = "Erro interno ao salvar os dados."
	MsgRegistered            = "Cadastro realizado com sucesso! Redirecionando..."

	MsgLoginMissingFields  = "E-mail e senha são obrigatórios."
	MsgInvalidCredentials  = "Credenciais inválidas. Verifique seu e-mail ou senha."
	MsgEmailNotConfirmed   = "E-mail ainda não confirmado. Verifique sua caixa de entrada."
	MsgLoginFailed         = "Falha no servidor ao processar o login."
	MsgLoggedIn            = "Login bem-sucedido! Redirecionando..."
	MsgMissingConfirmToken = "Token de confirmação ausente."
)

const birthDateLayout = "2006-01-02"

type AuthService struct {
	accounts repository.AccountRepository
	hasher   PasswordHasher
	logger   *logger.Logger

	jwtSecret []byte
	accessTTL time.Duration

	verifyCPFCheckDigits     bool
	requireEmailConfirmation bool

	events        events.Publisher
	eventsChannel string

	now func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(accounts repository.AccountRepository, hasher PasswordHasher, cfg *config.Config, l *logger.Logger) *AuthService {
	if l == nil {
		l = logger.NewNop()
	}
	return &AuthService{
		accounts:                 accounts,
		hasher:                   hasher,
		logger:                   l,
		jwtSecret:                []byte(cfg.JWTSecret),
		accessTTL:                time.Duration(cfg.JWTExpiryMin) * time.Minute,
		verifyCPFCheckDigits:     cfg.VerifyCPFCheckDigits,
		requireEmailConfirmation: cfg.RequireEmailConfirmation,
		now:                      time.Now,
	}
}

type RegisterInput struct {
	Email          string
	Senha          string
	CPF            string
	TermosAceitos  bool
	Nome           string
	Telefone       string
	DataNascimento string
	CEP            string
	Logradouro     string
	Numero         string
	Complemento    string
	Bairro         string
	Cidade         string
	Estado         string
}

type RegisterResult struct {
	UserID               uuid.UUID
	Email                string
	ConfirmationRequired bool
}

type LoginInput struct {
	Email string
	Senha string
}

type LoginResult struct {
	UserID      uuid.UUID
	AccessToken string
	ExpiresIn   int64
}

// SetEventPublisher makes the service announce registrations and
// confirmations on channel. Publish failures are logged and never fail the
// request.
func (s *AuthService) SetEventPublisher(p events.Publisher, channel string) {
	if channel == "" {
		channel = events.DefaultChannel
	}
	s.events = p
	s.eventsChannel = channel
}

// TokensEnabled reports whether Login mints access tokens.
func (s *AuthService) TokensEnabled() bool {
	return len(s.jwtSecret) > 0
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	in.Email = normalizeEmail(in.Email)
	cpf, err := s.validateRegister(in)
	if err != nil {
		return RegisterResult{}, err
	}

	hash, err := s.hasher.Hash(in.Senha)
	if err != nil {
		if isPasswordTooLong(err) {
			return RegisterResult{}, cadastro_errors.New(cadastro_errors.ErrInvalidInput, MsgPasswordTooLong)
		}
		return RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}

	a := &account.Account{
		ID:              uuid.New(),
		Nome:            strings.TrimSpace(in.Nome),
		Email:           in.Email,
		Telefone:        strings.TrimSpace(in.Telefone),
		DataNascimento:  toNullString(in.DataNascimento),
		CPF:             cpf,
		SenhaHash:       hash,
		CEP:             strings.TrimSpace(in.CEP),
		Logradouro:      strings.TrimSpace(in.Logradouro),
		Numero:          strings.TrimSpace(in.Numero),
		Complemento:     strings.TrimSpace(in.Complemento),
		Bairro:          strings.TrimSpace(in.Bairro),
		Cidade:          strings.TrimSpace(in.Cidade),
		Estado:          strings.TrimSpace(in.Estado),
		TermosAceitos:   in.TermosAceitos,
		EmailConfirmado: !s.requireEmailConfirmation,
		CreatedAt:       s.now().UTC(),
	}

	if s.requireEmailConfirmation {
		token, err := generateToken(32)
		if err != nil {
			return RegisterResult{}, fmt.Errorf("generate confirmation token: %w", err)
		}
		a.ConfirmacaoToken = &token
	}

	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, cadastro_errors.ErrAlreadyExists) || errors.Is(err, cadastro_errors.ErrConflict) {
			return RegisterResult{}, cadastro_errors.New(cadastro_errors.ErrAlreadyExists, MsgAlreadyRegistered)
		}
		return RegisterResult{}, fmt.Errorf("create account: %w", err)
	}

	payload := events.AccountRegisteredPayload{AccountID: a.ID.String(), Email: a.Email}
	if a.ConfirmacaoToken != nil {
		payload.ConfirmationPath = "/api/confirmar?token=" + *a.ConfirmacaoToken
		s.logger.InfoCtx(ctx, "confirmation token issued",
			zap.String("account_id", a.ID.String()),
			zap.String("confirmation_path", payload.ConfirmationPath),
		)
	}
	s.publish(ctx, events.AccountRegistered, payload)

	return RegisterResult{
		UserID:               a.ID,
		Email:                a.Email,
		ConfirmationRequired: s.requireEmailConfirmation,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if err := validateLogin(in); err != nil {
		return LoginResult{}, err
	}

	creds, err := s.accounts.GetCredentialsByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, cadastro_errors.ErrNotFound) {
			// burn the same bcrypt time as a real comparison
			s.hasher.Check(in.Senha, s.dummyPasswordHash())
			return LoginResult{}, cadastro_errors.New(cadastro_errors.ErrUnauthorized, MsgInvalidCredentials)
		}
		return LoginResult{}, fmt.Errorf("lookup account: %w", err)
	}

	if creds.SenhaHash == "" || !s.hasher.Check(in.Senha, creds.SenhaHash) {
		return LoginResult{}, cadastro_errors.New(cadastro_errors.ErrUnauthorized, MsgInvalidCredentials)
	}

	if s.requireEmailConfirmation && !creds.EmailConfirmado {
		return LoginResult{}, cadastro_errors.New(cadastro_errors.ErrForbidden, MsgEmailNotConfirmed)
	}

	res := LoginResult{UserID: creds.ID}
	if s.TokensEnabled() {
		res.AccessToken, res.ExpiresIn, err = s.newAccessToken(creds.ID)
		if err != nil {
			return LoginResult{}, fmt.Errorf("sign access token: %w", err)
		}
	}
	return res, nil
}

func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, cadastro_errors.New(cadastro_errors.ErrInvalidInput, MsgMissingConfirmToken)
	}

	id, err := s.accounts.ConfirmEmail(ctx, token)
	if err != nil {
		if errors.Is(err, cadastro_errors.ErrNotFound) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("confirm email: %w", err)
	}
	s.publish(ctx, events.AccountConfirmed, events.AccountConfirmedPayload{AccountID: id.String()})
	return id, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, s.eventsChannel, events.Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: s.now().Unix(),
	})
	if err != nil {
		s.logger.WarnCtx(ctx, "event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}

func (s *AuthService) Ping(ctx context.Context) error {
	return s.accounts.Ping(ctx)
}

// validateRegister checks the registration payload and returns the
// normalized CPF.
func (s *AuthService) validateRegister(in RegisterInput) (string, error) {
	if in.Email == "" || in.Senha == "" || strings.TrimSpace(in.CPF) == "" || !in.TermosAceitos {
		return "", cadastro_errors.New(cadastro_errors.ErrInvalidInput, MsgRegisterMissingFields)
	}
	if !account.ValidEmail(in.Email) {
		return "", cadastro_errors.New(cadastro_errors.ErrInvalidInput, MsgInvalidEmail)
	}

	cpf := account.NormalizeCPF(in.CPF)
	if !account.ValidCPFLength(cpf) {
		return "", cadastro_errors.New(cadastro_errors.ErrInvalidInput, MsgInvalidCPFLength)
	}
	if s.verifyCPFCheckDigits && !account.ValidCPFCheckDigits(cpf) {
		return "", cadastro_errors.New(cadastro_errors.ErrInvalidInput, MsgInvalidCPFDigits)
	}

	if birth := strings.TrimSpace(in.DataNascimento); birth != "" {
		if _, err := time.Parse(birthDateLayout, birth); err != nil {
			return "", cadastro_errors.New(cadastro_errors.ErrInvalidInput, MsgInvalidBirthDate)
		}
	}

	return cpf, nil
}

func validateLogin(in LoginInput) error {
	if strings.TrimSpace(in.Email) == "" || in.Senha == "" {
		return cadastro_errors.New(cadastro_errors.ErrInvalidInput, MsgLoginMissingFields)
	}
	return nil
}

func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("cadastro-dummy-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func toNullString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, cadastro_errors.ErrInvalidInput), errors.Is(err, cadastro_errors.ErrMalformedRequest):
		return 400
	case errors.Is(err, cadastro_errors.ErrUnauthorized):
		return 401
	case errors.Is(err, cadastro_errors.ErrForbidden):
		return 403
	case errors.Is(err, cadastro_errors.ErrNotFound):
		return 404
	case errors.Is(err, cadastro_errors.ErrMethodNotAllowed):
		return 405
	case errors.Is(err, cadastro_errors.ErrAlreadyExists), errors.Is(err, cadastro_errors.ErrConflict):
		return 409
	case errors.Is(err, cadastro_errors.ErrRateLimited):
		return 429
	case errors.Is(err, cadastro_errors.ErrServiceUnavailable):
		return 503
	default:
		return 500
	}
}

type ctxKey string

var userIDKey ctxKey = "user_id"

func WithUserContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(userIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
