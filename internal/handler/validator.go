package handler

import (
	"github.com/go-playground/validator/v10"
)

// RequestValidator adapts go-playground/validator to Echo's Validator
// interface so that handlers can call c.Validate on bound request
// bodies and rely on the struct tags declared in the model package.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator builds a validator with the default tag set.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
