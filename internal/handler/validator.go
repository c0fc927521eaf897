package handler

import (
	"errors"

	cadastro_errors "cadastro-api/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// bindError turns a ShouldBindJSON failure into a typed error. Validation
// failures become ErrInvalidInput with the endpoint's message, anything else
// is a body that could not be decoded. Format checks (email, CPF, birth
// date) belong to the service so they run in a fixed order.
func bindError(err error, missingMessage string) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return cadastro_errors.New(cadastro_errors.ErrMalformedRequest, MsgMalformedRequest)
	}
	return cadastro_errors.New(cadastro_errors.ErrInvalidInput, missingMessage)
}
