package api

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/gunuduru/assignment-auth/internal/agegroup"
)

var (
	phonePattern = regexp.MustCompile(`^01[016789]-?[0-9]{3,4}-?[0-9]{4}$`)

	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the custom binding tags used by request DTOs:
// phone, ssn and strongpw. Field errors report json names.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				name, _, _ = strings.Cut(f.Tag.Get("form"), ",")
			}
			return name
		})
		registerErr = errors.Join(
			v.RegisterValidation("phone", validatePhone),
			v.RegisterValidation("ssn", validateSSN),
			v.RegisterValidation("strongpw", validateStrongPassword),
		)
	})
	return registerErr
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

// validateSSN accepts only identifiers the age classifier can read.
func validateSSN(fl validator.FieldLevel) bool {
	_, err := agegroup.AgeFromIdentifier(fl.Field().String(), time.Now())
	return err == nil
}

// validateStrongPassword requires a letter, a digit and a symbol.
func validateStrongPassword(fl validator.FieldLevel) bool {
	var letter, digit, symbol bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return letter && digit && symbol
}
