package util

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct checks the struct's `validate` tags.
func ValidateStruct(payload interface{}) error {
	return validate.Struct(payload)
}

// ValidateEmail checks a single address with the same rules as the DTO tags.
func ValidateEmail(email string) error {
	return validate.Var(email, "required,email,max=255")
}
