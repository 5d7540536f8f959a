package echoapi

import (
	"github.com/go-playground/validator/v10"
)

// requestValidator plugs the shared validator into echo.Context.Validate.
type requestValidator struct {
	validate *validator.Validate
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}
