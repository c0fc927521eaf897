package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cadastro-api/internal/domain/account"
	cadastro_errors "cadastro-api/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgRESTRepo(t *testing.T, h http.HandlerFunc) AccountRepository {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewPostgRESTAccountRepository(srv.URL, "anon-key", srv.Client())
}

func TestPostgREST_Create_SendsRow(t *testing.T) {
	id := uuid.New()
	birth := "1990-05-01"

	repo := newPostgRESTRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/cadastro", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

		body, _ := io.ReadAll(r.Body)
		var rows []map[string]any
		if !assert.NoError(t, json.Unmarshal(body, &rows)) || !assert.Len(t, rows, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, id.String(), rows[0]["id"])
		assert.Equal(t, "a@b.com", rows[0]["email"])
		assert.Equal(t, "12345678909", rows[0]["cpf"])
		assert.Equal(t, "1990-05-01", rows[0]["data_nascimento"])
		assert.Nil(t, rows[0]["confirmacao_token"])
		assert.Equal(t, true, rows[0]["termos_aceitos"])

		w.WriteHeader(http.StatusCreated)
	})

	err := repo.Create(context.Background(), &account.Account{
		ID:             id,
		Email:          "a@b.com",
		CPF:            "12345678909",
		SenhaHash:      "$2a$10$hash",
		DataNascimento: &birth,
		TermosAceitos:  true,
		CreatedAt:      time.Now(),
	})
	require.NoError(t, err)
}

func TestPostgREST_Create_UniqueViolation(t *testing.T) {
	repo := newPostgRESTRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint \"cadastro_email_key\""}`))
	})

	err := repo.Create(context.Background(), &account.Account{ID: uuid.New()})
	assert.ErrorIs(t, err, cadastro_errors.ErrAlreadyExists)
}

func TestPostgREST_Create_OtherError(t *testing.T) {
	repo := newPostgRESTRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"PGRST204","message":"column not found"}`))
	})

	err := repo.Create(context.Background(), &account.Account{ID: uuid.New()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, cadastro_errors.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "PGRST204")
}

func TestPostgREST_Create_NonJSONError(t *testing.T) {
	repo := newPostgRESTRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	err := repo.Create(context.Background(), &account.Account{ID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestPostgREST_GetCredentialsByEmail(t *testing.T) {
	id := uuid.New()

	repo := newPostgRESTRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "eq.a+b@c.com", r.URL.Query().Get("email"))
		assert.Equal(t, "id,senha_hash,email_confirmado", r.URL.Query().Get("select"))
		_, _ = w.Write([]byte(`[{"id":"` + id.String() + `","senha_hash":"$2a$10$x","email_confirmado":true}]`))
	})

	c, err := repo.GetCredentialsByEmail(context.Background(), "a+b@c.com")
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, "$2a$10$x", c.SenhaHash)
	assert.True(t, c.EmailConfirmado)
}

func TestPostgREST_GetCredentialsByEmail_NotFound(t *testing.T) {
	repo := newPostgRESTRepo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := repo.GetCredentialsByEmail(context.Background(), "ghost@b.com")
	assert.ErrorIs(t, err, cadastro_errors.ErrNotFound)
}

func TestPostgREST_ConfirmEmail(t *testing.T) {
	id := uuid.New()

	repo := newPostgRESTRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.tok-1", r.URL.Query().Get("confirmacao_token"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var patch map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		assert.Equal(t, true, patch["email_confirmado"])
		assert.Contains(t, patch, "confirmacao_token")
		assert.Nil(t, patch["confirmacao_token"])

		_, _ = w.Write([]byte(`[{"id":"` + id.String() + `"}]`))
	})

	got, err := repo.ConfirmEmail(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestPostgREST_ConfirmEmail_UnknownToken(t *testing.T) {
	repo := newPostgRESTRepo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := repo.ConfirmEmail(context.Background(), "nope")
	assert.ErrorIs(t, err, cadastro_errors.ErrNotFound)
}

func TestPostgREST_Ping(t *testing.T) {
	repo := newPostgRESTRepo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	assert.NoError(t, repo.Ping(context.Background()))

	down := newPostgRESTRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"PGRST301","message":"JWT invalid"}`))
	})
	assert.Error(t, down.Ping(context.Background()))
}
