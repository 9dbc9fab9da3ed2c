package accounts_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassifiers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		classifier func(error) bool
		want       bool
	}{
		{"duplicate email", accounts.ErrDuplicateEmail, accounts.IsDuplicateEmail, true},
		{"wrapped duplicate email", fmt.Errorf("create failed: %w", accounts.ErrDuplicateEmail), accounts.IsDuplicateEmail, true},
		{"not a duplicate", accounts.ErrAccountNotFound, accounts.IsDuplicateEmail, false},
		{"expired token", accounts.ErrTokenExpired, accounts.IsTokenExpiredError, true},
		{"expired token is invalid too", accounts.ErrTokenExpired, accounts.IsInvalidToken, true},
		{"malformed token", accounts.ErrTokenMalformed, accounts.IsInvalidToken, true},
		{"malformed is not expired", accounts.ErrTokenMalformed, accounts.IsTokenExpiredError, false},
		{"validation error", accounts.NewValidationError("email", "email must be valid"), accounts.IsValidationError, true},
		{"notification error", accounts.NewNotificationError(errors.New("smtp down")), accounts.IsNotificationFailed, true},
		{"nil is nothing", nil, accounts.IsValidationError, false},
		{"plain error is nothing", errors.New("boom"), accounts.IsDuplicateEmail, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.classifier(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	// These strings are part of the API surface; clients match on them.
	assert.Contains(t, accounts.ErrDuplicateEmail.Error(), "email already exists, try another one")
	assert.Contains(t, accounts.ErrAccountNotFound.Error(), "email not found")
	assert.Contains(t, accounts.ErrResetTokenNotFound.Error(), "account with this token does not exist")
	assert.Contains(t, accounts.ErrInvalidCredentials.Error(), "invalid password")
	assert.Contains(t, accounts.ErrTokenExpired.Error(), "incorrect or expired link")
	assert.Contains(t, accounts.ErrTokenMalformed.Error(), "incorrect or expired link")
}

func TestValidationErrorCarriesField(t *testing.T) {
	err := accounts.NewValidationError("password", "password must contain at least one digit")

	var richErr *goerrors.Error
	assert.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	assert.Equal(t, "password", richErr.Metadata["field"])
}

func TestNotificationErrorPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := accounts.NewNotificationError(cause)

	assert.True(t, accounts.IsNotificationFailed(err))
	assert.True(t, goerrors.Is(err, cause))
}
