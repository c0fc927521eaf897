package httpdto

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RegisterRequest is used for POST /api/cadastrar
type RegisterRequest struct {
	Email         string `json:"email" binding:"required"`
	Senha         string `json:"senha" binding:"required"`
	CPF           string `json:"cpf" binding:"required"`
	TermosAceitos Flag   `json:"termos_aceitos" binding:"required"`

	Nome           string `json:"nome,omitempty"`
	NomeCompleto   string `json:"nome_completo,omitempty"`
	Telefone       string `json:"telefone,omitempty"`
	DataNascimento string `json:"data_nascimento,omitempty"`
	// older forms post the birth date with a hyphenated key
	DataNascimentoAlt string `json:"data-nascimento,omitempty"`
	CEP               string `json:"cep,omitempty"`
	Logradouro        string `json:"logradouro,omitempty"`
	Numero            string `json:"numero,omitempty"`
	Complemento       string `json:"complemento,omitempty"`
	Bairro            string `json:"bairro,omitempty"`
	Cidade            string `json:"cidade,omitempty"`
	Estado            string `json:"estado,omitempty"`
}

// DisplayName prefers nome over nome_completo.
func (r RegisterRequest) DisplayName() string {
	if strings.TrimSpace(r.Nome) != "" {
		return r.Nome
	}
	return r.NomeCompleto
}

func (r RegisterRequest) BirthDate() string {
	if strings.TrimSpace(r.DataNascimento) != "" {
		return r.DataNascimento
	}
	return r.DataNascimentoAlt
}

// RegisterResponse is returned after successful registration
type RegisterResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// LoginRequest is used for POST /api/login
type LoginRequest struct {
	Email string `json:"email" binding:"required"`
	Senha string `json:"senha" binding:"required"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

type SessionResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id"`
}

// Flag is a JSON boolean that also accepts the truthy values HTML forms
// send: "true", "on", "1", "sim" and non-zero numbers.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = false
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "on", "1", "sim", "yes":
			*f = true
		default:
			*f = false
		}
		return nil
	case len(data) > 0 && (data[0] == 't' || data[0] == 'f'):
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = Flag(b)
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = n != 0
		return nil
	}
}
