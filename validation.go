package accounts

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	hasDigitRe     = regexp.MustCompile(`[0-9]`)
	hasUppercaseRe = regexp.MustCompile(`[A-Z]`)
)

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(8, 100),
		validation.Match(hasDigitRe).Error("must contain at least one digit"),
		validation.Match(hasUppercaseRe).Error("must contain at least one uppercase letter"),
	}
}

// RegisterPayload is the registration request body.
type RegisterPayload struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules. Name and email are normalized
// first, so the rules see the same values the flows persist.
func (r RegisterPayload) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(5, 30), is.Alphanumeric),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, passwordRules()...),
	)
	return firstValidationError(err, "name", "email", "password")
}

// LoginPayload is the login request body.
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
	return firstValidationError(err, "email", "password")
}

// ResetRequestPayload asks for a password reset link.
type ResetRequestPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r ResetRequestPayload) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
	return firstValidationError(err, "email")
}

// ResetCompletePayload carries the replacement password.
type ResetCompletePayload struct {
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r ResetCompletePayload) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Password, passwordRules()...),
	)
	return firstValidationError(err, "password")
}

// firstValidationError reduces an ozzo validation result to a single
// rich error naming the first violated field, in the declared field
// order. Callers resubmit one fix at a time, matching the upstream
// contract of reporting the first failure only.
func firstValidationError(err error, fieldOrder ...string) error {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return NewValidationError("", err.Error())
	}

	for _, field := range fieldOrder {
		if ferr, ok := verrs[field]; ok && ferr != nil {
			return NewValidationError(field, fmt.Sprintf("%s %s", field, ferr.Error()))
		}
	}

	// A field failed that is not in the declared order; report it as-is.
	return NewValidationError("", verrs.Error())
}
