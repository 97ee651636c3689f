package user

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

const (
	MinLoginLen = 3
	MaxLoginLen = 32
)

type Validator interface {
	ValidateLogin(login string) error
}

// LoginValidator допускает буквы, цифры и символы _ - .
type LoginValidator struct{}

func NewLoginValidator() *LoginValidator {
	return &LoginValidator{}
}

func (v *LoginValidator) ValidateLogin(login string) error {
	switch n := utf8.RuneCountInString(login); {
	case n < MinLoginLen:
		return fmt.Errorf("login must be at least %d characters", MinLoginLen)
	case n > MaxLoginLen:
		return fmt.Errorf("login must be at most %d characters", MaxLoginLen)
	}

	for i, r := range login {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		if r == '_' || r == '-' || r == '.' {
			continue
		}
		return fmt.Errorf("login has forbidden character %q at position %d", r, i)
	}
	return nil
}
