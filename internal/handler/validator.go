package handler

import (
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
)

// Validator adapts validator/v10 to echo.Validator.  Field names in errors
// are the JSON names.
type Validator struct {
    v *validator.Validate
}

// NewValidator returns the validator installed as echo.Echo.Validator.
func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
        if name == "-" || name == "" {
            return f.Name
        }
        return name
    })
    return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
    return cv.v.Struct(i)
}
