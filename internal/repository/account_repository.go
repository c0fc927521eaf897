package repository

import (
	"context"
	"errors"
	"fmt"

	"cadastro-api/internal/domain/account"
	cadastro_errors "cadastro-api/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PostgresAccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) AccountRepository {
	return &PostgresAccountRepository{db: db}
}

func (r *PostgresAccountRepository) Create(ctx context.Context, a *account.Account) error {
	query := `
		INSERT INTO cadastro (
			id, nome, email, telefone, data_nascimento, cpf, senha_hash,
			cep, logradouro, numero, complemento, bairro, cidade, estado,
			termos_aceitos, email_confirmado, confirmacao_token, created_at
		)
		VALUES ($1, $2, $3, $4, $5::text::date, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.db.Exec(ctx, query,
		a.ID,
		a.Nome,
		a.Email,
		a.Telefone,
		a.DataNascimento,
		a.CPF,
		a.SenhaHash,
		a.CEP,
		a.Logradouro,
		a.Numero,
		a.Complemento,
		a.Bairro,
		a.Cidade,
		a.Estado,
		a.TermosAceitos,
		a.EmailConfirmado,
		a.ConfirmacaoToken,
		a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email or cpf", cadastro_errors.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepository) GetCredentialsByEmail(ctx context.Context, email string) (account.Credentials, error) {
	query := `SELECT id, senha_hash, email_confirmado FROM cadastro WHERE email = $1`

	var c account.Credentials
	if err := r.db.QueryRow(ctx, query, email).Scan(&c.ID, &c.SenhaHash, &c.EmailConfirmado); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Credentials{}, cadastro_errors.ErrNotFound
		}
		return account.Credentials{}, fmt.Errorf("failed to query account: %w", err)
	}
	return c, nil
}

func (r *PostgresAccountRepository) ConfirmEmail(ctx context.Context, token string) (uuid.UUID, error) {
	query := `
		UPDATE cadastro
		SET email_confirmado = true, confirmacao_token = NULL
		WHERE confirmacao_token = $1
		RETURNING id
	`

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, query, token).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, cadastro_errors.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to confirm email: %w", err)
	}
	return id, nil
}

func (r *PostgresAccountRepository) Ping(ctx context.Context) error {
	if p, ok := r.db.(pinger); ok {
		return p.Ping(ctx)
	}
	_, err := r.db.Exec(ctx, "SELECT 1")
	return err
}
