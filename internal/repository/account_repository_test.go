package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"cadastro-api/internal/domain/account"
	cadastro_errors "cadastro-api/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB records the last statement and answers with the configured
// results.
type fakeDB struct {
	execErr error
	row     fakeRow

	sql  string
	args []any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql, f.args = sql, args
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.sql, f.args = sql, args
	return f.row
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = r.values[i].(uuid.UUID)
		case *string:
			*p = r.values[i].(string)
		case *bool:
			*p = r.values[i].(bool)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

type pingingDB struct {
	fakeDB
	pingErr error
	pinged  bool
}

func (p *pingingDB) Ping(context.Context) error {
	p.pinged = true
	return p.pingErr
}

func TestPostgresCreate(t *testing.T) {
	db := &fakeDB{}
	repo := NewAccountRepository(db)

	a := &account.Account{
		ID:            uuid.New(),
		Email:         "a@b.com",
		CPF:           "12345678909",
		SenhaHash:     "$2a$10$hash",
		TermosAceitos: true,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), a))

	assert.Contains(t, db.sql, "INSERT INTO cadastro")
	assert.Contains(t, db.sql, "$5::text::date")
	require.Len(t, db.args, 18)
	assert.Equal(t, a.ID, db.args[0])
	assert.Equal(t, "a@b.com", db.args[2])
	assert.Equal(t, (*string)(nil), db.args[4])
	assert.Equal(t, "12345678909", db.args[5])
	assert.Equal(t, (*string)(nil), db.args[16])
}

func TestPostgresCreate_BirthDate(t *testing.T) {
	db := &fakeDB{}
	birth := "1990-05-01"

	err := NewAccountRepository(db).Create(context.Background(), &account.Account{ID: uuid.New(), DataNascimento: &birth})
	require.NoError(t, err)

	got, ok := db.args[4].(*string)
	require.True(t, ok)
	assert.Equal(t, "1990-05-01", *got)
}

func TestPostgresCreate_Errors(t *testing.T) {
	t.Run("unique violation", func(t *testing.T) {
		db := &fakeDB{execErr: &pgconn.PgError{Code: "23505", ConstraintName: "cadastro_email_key"}}

		err := NewAccountRepository(db).Create(context.Background(), &account.Account{ID: uuid.New()})
		assert.ErrorIs(t, err, cadastro_errors.ErrAlreadyExists)
	})

	t.Run("other postgres error", func(t *testing.T) {
		db := &fakeDB{execErr: &pgconn.PgError{Code: "23514"}}

		err := NewAccountRepository(db).Create(context.Background(), &account.Account{ID: uuid.New()})
		require.Error(t, err)
		assert.NotErrorIs(t, err, cadastro_errors.ErrAlreadyExists)
	})

	t.Run("connection error", func(t *testing.T) {
		cause := errors.New("connection reset")
		db := &fakeDB{execErr: cause}

		err := NewAccountRepository(db).Create(context.Background(), &account.Account{ID: uuid.New()})
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "failed to insert account")
	})
}

func TestPostgresGetCredentialsByEmail(t *testing.T) {
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{values: []any{id, "$2a$10$hash", true}}}

		c, err := NewAccountRepository(db).GetCredentialsByEmail(context.Background(), "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, id, c.ID)
		assert.Equal(t, "$2a$10$hash", c.SenhaHash)
		assert.True(t, c.EmailConfirmado)
		assert.Equal(t, []any{"a@b.com"}, db.args)
	})

	t.Run("no rows", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}

		_, err := NewAccountRepository(db).GetCredentialsByEmail(context.Background(), "x@y.com")
		assert.ErrorIs(t, err, cadastro_errors.ErrNotFound)
	})

	t.Run("query error", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{err: errors.New("timeout")}}

		_, err := NewAccountRepository(db).GetCredentialsByEmail(context.Background(), "x@y.com")
		require.Error(t, err)
		assert.NotErrorIs(t, err, cadastro_errors.ErrNotFound)
	})
}

func TestPostgresConfirmEmail(t *testing.T) {
	id := uuid.New()

	t.Run("confirmed", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{values: []any{id}}}

		got, err := NewAccountRepository(db).ConfirmEmail(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, id, got)
		assert.Contains(t, db.sql, "confirmacao_token = NULL")
		assert.Equal(t, []any{"tok"}, db.args)
	})

	t.Run("unknown token", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}

		_, err := NewAccountRepository(db).ConfirmEmail(context.Background(), "nope")
		assert.ErrorIs(t, err, cadastro_errors.ErrNotFound)
	})

	t.Run("update error", func(t *testing.T) {
		db := &fakeDB{row: fakeRow{err: errors.New("deadlock")}}

		_, err := NewAccountRepository(db).ConfirmEmail(context.Background(), "tok")
		require.Error(t, err)
		assert.NotErrorIs(t, err, cadastro_errors.ErrNotFound)
	})
}

func TestPostgresPing(t *testing.T) {
	t.Run("pool ping", func(t *testing.T) {
		db := &pingingDB{pingErr: errors.New("down")}

		err := NewAccountRepository(db).Ping(context.Background())
		assert.EqualError(t, err, "down")
		assert.True(t, db.pinged)
	})

	t.Run("select fallback", func(t *testing.T) {
		db := &fakeDB{}

		require.NoError(t, NewAccountRepository(db).Ping(context.Background()))
		assert.Equal(t, "SELECT 1", db.sql)
	})
}
