package account

import (
	"time"

	"github.com/google/uuid"
)

// Account represents the cadastro table
type Account struct {
	ID               uuid.UUID
	Nome             string
	Email            string
	Telefone         string
	DataNascimento   *string // ISO date as sent by the client, nullable
	CPF              string  // digits only
	SenhaHash        string
	CEP              string
	Logradouro       string
	Numero           string
	Complemento      string
	Bairro           string
	Cidade           string
	Estado           string
	TermosAceitos    bool
	EmailConfirmado  bool
	ConfirmacaoToken *string
	CreatedAt        time.Time
}

// Credentials is the slice of an Account read at login.
type Credentials struct {
	ID              uuid.UUID
	SenhaHash       string
	EmailConfirmado bool
}

