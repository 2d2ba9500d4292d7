package auth

import (
	"collab-chat/errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CredentialsRequest is the payload of both register and login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,min=6,max=50"`
	Password string `json:"password" validate:"required,min=3,max=72"`
}

// NormalizeEmail trims and lowercases an email the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCredentials normalizes the email then checks the request against its rules.
func ValidateCredentials(req CredentialsRequest) (CredentialsRequest, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if ok := asValidationErrors(err, &fieldErrs); ok && len(fieldErrs) > 0 {
			if fieldErrs[0].Field() == "Email" {
				return req, fmt.Errorf("%w: %s", errors.ErrInvalidEmail, fieldErrs[0].Tag())
			}
			return req, fmt.Errorf("%w: %s", errors.ErrInvalidPassword, fieldErrs[0].Tag())
		}
		return req, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return req, nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	v, ok := err.(validator.ValidationErrors)
	if ok {
		*target = v
	}
	return ok
}
