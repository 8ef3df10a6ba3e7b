package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterRequest carries the credentials of a registration attempt.
// The username bound matches the relay's own identity rule: names longer
// than 24 characters are not accepted here because the chat layer would
// silently truncate them.
type RegisterRequest struct {
	Username string `validate:"required,max=24"`
	Password string `validate:"required,min=8,max=72"`
}

func ValidateRegister(req RegisterRequest) error {
	return validate.Struct(req)
}
