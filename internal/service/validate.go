package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxUsername    = 20
	maxEmail       = 50
	maxPassword    = 20
	maxDescription = 100
)

func checkLength(field, v string, max int) error {
	n := utf8.RuneCountInString(v)
	if n == 0 {
		return newErr(ErrValidation, "%s must not be empty", field)
	}
	if n > max {
		return newErr(ErrValidation, "%s must be at most %d characters", field, max)
	}
	return nil
}

func checkEmail(v string) error {
	if err := checkLength("email", v, maxEmail); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v || !strings.Contains(v[strings.LastIndex(v, "@"):], ".") {
		return newErr(ErrValidation, "%q is not a valid email address", v)
	}
	return nil
}

func checkPage(offset, limit int) error {
	if offset < 0 {
		return newErr(ErrValidation, "offset must be greater than or equal to 0")
	}
	if limit < 1 {
		return newErr(ErrValidation, "limit must be greater than or equal to 1")
	}
	return nil
}
