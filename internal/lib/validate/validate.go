package validate

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasDigit   = regexp.MustCompile(`[0-9]`)
	hasSpecial = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

const minPasswordLen = 8

// * New создает валидатор с зарегистрированным тегом password
func New() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})

	return v
}

func IsStrongPassword(pass string) bool {
	if len(pass) < minPasswordLen {
		return false
	}

	return hasLower.MatchString(pass) &&
		hasUpper.MatchString(pass) &&
		hasDigit.MatchString(pass) &&
		hasSpecial.MatchString(pass)
}
