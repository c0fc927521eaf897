package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cadastro-api/internal/domain/account"
	cadastro_errors "cadastro-api/pkg/errors"

	"github.com/google/uuid"
)

const cadastroTable = "cadastro"

// PostgRESTAccountRepository talks to the cadastro table through the
// Supabase REST endpoint (/rest/v1), authenticating with the project key.
type PostgRESTAccountRepository struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewPostgRESTAccountRepository(baseURL, apiKey string, client *http.Client) AccountRepository {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PostgRESTAccountRepository{baseURL: baseURL, apiKey: apiKey, client: client}
}

// postgrestError is the body PostgREST returns on failure.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *postgrestError) Error() string {
	return fmt.Sprintf("postgrest %s: %s", e.Code, e.Message)
}

type cadastroRow struct {
	ID               uuid.UUID `json:"id"`
	Nome             string    `json:"nome"`
	Email            string    `json:"email"`
	Telefone         string    `json:"telefone"`
	DataNascimento   *string   `json:"data_nascimento"`
	CPF              string    `json:"cpf"`
	SenhaHash        string    `json:"senha_hash"`
	CEP              string    `json:"cep"`
	Logradouro       string    `json:"logradouro"`
	Numero           string    `json:"numero"`
	Complemento      string    `json:"complemento"`
	Bairro           string    `json:"bairro"`
	Cidade           string    `json:"cidade"`
	Estado           string    `json:"estado"`
	TermosAceitos    bool      `json:"termos_aceitos"`
	EmailConfirmado  bool      `json:"email_confirmado"`
	ConfirmacaoToken *string   `json:"confirmacao_token"`
	CreatedAt        time.Time `json:"created_at"`
}

type credentialsRow struct {
	ID              uuid.UUID `json:"id"`
	SenhaHash       string    `json:"senha_hash"`
	EmailConfirmado bool      `json:"email_confirmado"`
}

func (r *PostgRESTAccountRepository) Create(ctx context.Context, a *account.Account) error {
	row := cadastroRow{
		ID:               a.ID,
		Nome:             a.Nome,
		Email:            a.Email,
		Telefone:         a.Telefone,
		DataNascimento:   a.DataNascimento,
		CPF:              a.CPF,
		SenhaHash:        a.SenhaHash,
		CEP:              a.CEP,
		Logradouro:       a.Logradouro,
		Numero:           a.Numero,
		Complemento:      a.Complemento,
		Bairro:           a.Bairro,
		Cidade:           a.Cidade,
		Estado:           a.Estado,
		TermosAceitos:    a.TermosAceitos,
		EmailConfirmado:  a.EmailConfirmado,
		ConfirmacaoToken: a.ConfirmacaoToken,
		CreatedAt:        a.CreatedAt,
	}

	err := r.do(ctx, http.MethodPost, nil, []cadastroRow{row}, "return=minimal", nil)
	if err != nil {
		var pgErr *postgrestError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: email or cpf", cadastro_errors.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *PostgRESTAccountRepository) GetCredentialsByEmail(ctx context.Context, email string) (account.Credentials, error) {
	q := url.Values{}
	q.Set("select", "id,senha_hash,email_confirmado")
	q.Set("email", "eq."+email)
	q.Set("limit", "1")

	var rows []credentialsRow
	if err := r.do(ctx, http.MethodGet, q, nil, "", &rows); err != nil {
		return account.Credentials{}, fmt.Errorf("failed to query account: %w", err)
	}
	if len(rows) == 0 {
		return account.Credentials{}, cadastro_errors.ErrNotFound
	}
	return account.Credentials{
		ID:              rows[0].ID,
		SenhaHash:       rows[0].SenhaHash,
		EmailConfirmado: rows[0].EmailConfirmado,
	}, nil
}

func (r *PostgRESTAccountRepository) ConfirmEmail(ctx context.Context, token string) (uuid.UUID, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("confirmacao_token", "eq."+token)

	patch := map[string]any{
		"email_confirmado":  true,
		"confirmacao_token": nil,
	}

	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	if err := r.do(ctx, http.MethodPatch, q, patch, "return=representation", &rows); err != nil {
		return uuid.Nil, fmt.Errorf("failed to confirm email: %w", err)
	}
	if len(rows) == 0 {
		return uuid.Nil, cadastro_errors.ErrNotFound
	}
	return rows[0].ID, nil
}

func (r *PostgRESTAccountRepository) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")

	var rows []json.RawMessage
	return r.do(ctx, http.MethodGet, q, nil, "", &rows)
}

// do issues one request against the cadastro table. A non-2xx answer is
// decoded into *postgrestError when the body allows it.
func (r *PostgRESTAccountRepository) do(ctx context.Context, method string, query url.Values, body any, prefer string, out any) error {
	endpoint := r.baseURL + "/rest/v1/" + cadastroTable
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		pgErr := &postgrestError{}
		if jsonErr := json.Unmarshal(raw, pgErr); jsonErr != nil || pgErr.Code == "" {
			return fmt.Errorf("postgrest: unexpected status %d", resp.StatusCode)
		}
		return pgErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
