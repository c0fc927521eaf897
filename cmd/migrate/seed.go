package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cadastro-api/internal/domain/account"
	"cadastro-api/internal/services"
	cadastro_errors "cadastro-api/pkg/errors"
)

// registrar is the part of AuthService the seeder needs.
type registrar interface {
	Register(ctx context.Context, in services.RegisterInput) (services.RegisterResult, error)
}

// seedDevelopment registers count accounts named dev1@cadastro.local and so
// on. Accounts that already exist are skipped.
func seedDevelopment(ctx context.Context, svc registrar, count int, password string) (int, error) {
	created := 0
	for i := 1; i <= count; i++ {
		in := services.RegisterInput{
			Email:         fmt.Sprintf("dev%d@cadastro.local", i),
			Senha:         password,
			CPF:           devCPF(i),
			TermosAceitos: true,
			Nome:          fmt.Sprintf("Usuário Dev %d", i),
			Cidade:        "São Paulo",
			Estado:        "SP",
		}

		res, err := svc.Register(ctx, in)
		if err != nil {
			if errors.Is(err, cadastro_errors.ErrAlreadyExists) {
				log.Printf("Skipping %s: already registered", in.Email)
				continue
			}
			return created, fmt.Errorf("register %s: %w", in.Email, err)
		}
		log.Printf("Created %s (ID: %s)", res.Email, res.UserID)
		created++
	}
	return created, nil
}

// devCPF builds a checksum-valid CPF from a nine digit base derived from i.
func devCPF(i int) string {
	return account.CompleteCPF(fmt.Sprintf("%09d", 100000000+i*7919))
}
