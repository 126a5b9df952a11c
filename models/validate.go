package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the invasion table's custom rules registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("settlement", func(fl validator.FieldLevel) bool {
			_, ok := Settlements[fl.Field().String()]
			return ok
		})
		_ = validate.RegisterValidation("faction", func(fl validator.FieldLevel) bool {
			return IsFaction(fl.Field().String())
		})
		_ = validate.RegisterValidation("yyyymmdd", func(fl validator.FieldLevel) bool {
			return ValidDate(int(fl.Field().Int()))
		})
		_ = validate.RegisterValidation("rank", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
				return false
			}
			return s != "00"
		})
	})
	return validate
}

// Validate checks v and converts validator errors into a single readable error.
func Validate(v interface{}) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

var ErrInvalid = errors.New("invalid input")

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "settlement":
		return fmt.Sprintf("unknown settlement %q", fe.Value())
	case "faction":
		return fmt.Sprintf("faction %q must be one of %s", fe.Value(), strings.Join(Factions, ", "))
	case "yyyymmdd":
		return fmt.Sprintf("%s %v is not a valid date", field, fe.Value())
	case "rank":
		return fmt.Sprintf("rank %q must be two digits 01-99", fe.Value())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// IsFaction reports whether f is a known faction.
func IsFaction(f string) bool {
	for _, known := range Factions {
		if f == known {
			return true
		}
	}
	return false
}

// ValidDate reports whether a YYYYMMDD integer is a real calendar date.
func ValidDate(date int) bool {
	if date < 20200101 || date > 99991231 {
		return false
	}
	_, err := time.Parse(DateLayout, fmt.Sprintf("%08d", date))
	return err == nil
}

// DateInt builds the YYYYMMDD integer for a day, month and year after checking it exists.
func DateInt(day, month, year int) (int, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return 0, fmt.Errorf("%w: %04d-%02d-%02d is not a valid date", ErrInvalid, year, month, day)
	}
	return year*10000 + month*100 + day, nil
}
