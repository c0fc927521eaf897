package main

import (
	"context"
	"testing"

	"cadastro-api/config"
	"cadastro-api/internal/domain/account"
	"cadastro-api/internal/repository"
	"cadastro-api/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDevCPF_IsValid(t *testing.T) {
	for i := 1; i <= 20; i++ {
		cpf := devCPF(i)
		assert.Len(t, cpf, 11)
		assert.True(t, account.ValidCPFCheckDigits(cpf), cpf)
	}
}

func TestSeedDevelopment_SkipsExisting(t *testing.T) {
	cfg := &config.Config{BCryptCost: bcrypt.MinCost, VerifyCPFCheckDigits: true}
	svc := services.NewAuthService(repository.NewMemoryAccountRepository(), services.NewBcryptHasher(cfg.BCryptCost), cfg, nil)
	ctx := context.Background()

	created, err := seedDevelopment(ctx, svc, 3, "senha123")
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	created, err = seedDevelopment(ctx, svc, 4, "senha123")
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	_, err = svc.Login(ctx, services.LoginInput{Email: "dev2@cadastro.local", Senha: "senha123"})
	assert.NoError(t, err)
}
