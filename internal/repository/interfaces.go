package repository

import (
	"context"

	"cadastro-api/internal/domain/account"

	"github.com/google/uuid"
)

// AccountRepository persists cadastro rows. Implementations report
// uniqueness violations as ErrAlreadyExists and missing rows as ErrNotFound.
type AccountRepository interface {
	Create(ctx context.Context, a *account.Account) error
	GetCredentialsByEmail(ctx context.Context, email string) (account.Credentials, error)
	ConfirmEmail(ctx context.Context, token string) (uuid.UUID, error)
	Ping(ctx context.Context) error
}
