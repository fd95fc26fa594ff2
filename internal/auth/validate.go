package auth

import (
	"errors"
	"net/mail"
	"strings"
)

// MinPasswordLen is the shortest password accepted at signup.
const MinPasswordLen = 6

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email address is invalid")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// ValidateLogin checks login input before it reaches the backend.
func ValidateLogin(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return ErrUsernameRequired
	}
	if password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// ValidateSignup checks signup input before it reaches the backend.
func ValidateSignup(username, email, password, confirm string) error {
	if strings.TrimSpace(username) == "" {
		return ErrUsernameRequired
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return ErrEmailInvalid
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	if len(password) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	return nil
}

// IsValidation reports whether err came from local input validation.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrUsernameRequired, ErrEmailRequired, ErrEmailInvalid,
		ErrPasswordRequired, ErrPasswordMismatch, ErrPasswordTooShort,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
