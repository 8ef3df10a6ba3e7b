package errors

import "fmt"

var (
	ErrEmptyUsername      = fmt.Errorf("empty username")
	ErrNoIdentity         = fmt.Errorf("no username set")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidToken       = fmt.Errorf("invalid token")
)
