package repository

import (
	"context"
	"fmt"
	"sync"

	"cadastro-api/internal/domain/account"
	cadastro_errors "cadastro-api/pkg/errors"

	"github.com/google/uuid"
)

// MemoryAccountRepository keeps accounts in process memory. It enforces the
// same unique keys as the cadastro table and is used for local runs and tests.
type MemoryAccountRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]account.Account
	byEmail map[string]uuid.UUID
	byCPF   map[string]uuid.UUID
	byToken map[string]uuid.UUID
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:    make(map[uuid.UUID]account.Account),
		byEmail: make(map[string]uuid.UUID),
		byCPF:   make(map[string]uuid.UUID),
		byToken: make(map[string]uuid.UUID),
	}
}

func (r *MemoryAccountRepository) Create(ctx context.Context, a *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; ok {
		return fmt.Errorf("%w: id", cadastro_errors.ErrAlreadyExists)
	}
	if _, ok := r.byEmail[a.Email]; ok {
		return fmt.Errorf("%w: email", cadastro_errors.ErrAlreadyExists)
	}
	if _, ok := r.byCPF[a.CPF]; ok {
		return fmt.Errorf("%w: cpf", cadastro_errors.ErrAlreadyExists)
	}
	if a.ConfirmacaoToken != nil {
		if _, ok := r.byToken[*a.ConfirmacaoToken]; ok {
			return fmt.Errorf("%w: confirmation token", cadastro_errors.ErrAlreadyExists)
		}
		r.byToken[*a.ConfirmacaoToken] = a.ID
	}

	r.byID[a.ID] = *a
	r.byEmail[a.Email] = a.ID
	r.byCPF[a.CPF] = a.ID
	return nil
}

func (r *MemoryAccountRepository) GetCredentialsByEmail(ctx context.Context, email string) (account.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return account.Credentials{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return account.Credentials{}, cadastro_errors.ErrNotFound
	}
	a := r.byID[id]
	return account.Credentials{ID: a.ID, SenhaHash: a.SenhaHash, EmailConfirmado: a.EmailConfirmado}, nil
}

func (r *MemoryAccountRepository) ConfirmEmail(ctx context.Context, token string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byToken[token]
	if !ok {
		return uuid.Nil, cadastro_errors.ErrNotFound
	}
	a := r.byID[id]
	a.EmailConfirmado = true
	a.ConfirmacaoToken = nil
	r.byID[id] = a
	delete(r.byToken, token)
	return id, nil
}

func (r *MemoryAccountRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Get returns a copy of the stored account.
func (r *MemoryAccountRepository) Get(id uuid.UUID) (account.Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}
