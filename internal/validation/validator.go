// Package validation wraps go-playground/validator with the rules the API
// needs (phone numbers, OTP codes, age bounds) and turns field errors into
// messages a mobile client can show as-is.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	// phonePattern accepts a leading + followed by 10 to 15 digits.
	phonePattern = regexp.MustCompile(`^\+[0-9]{10,15}$`)
	codePattern  = regexp.MustCompile(`^[0-9]{6}$`)
)

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return ValidatePhoneNumber(fl.Field().String())
		})
		_ = validate.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
			return ValidateOTPCode(fl.Field().String())
		})
	})
	return validate
}

// ValidatePhoneNumber reports whether phone looks like an international
// number: leading +, digits only, at least 10 digits.
func ValidatePhoneNumber(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

// ValidateOTPCode reports whether code is exactly six digits.
func ValidateOTPCode(code string) bool {
	return codePattern.MatchString(code)
}

// ValidateAge returns a descriptive error for ages outside 18..99.
func ValidateAge(age int) error {
	if age < domain.MinAge || age > domain.MaxAge {
		return fmt.Errorf("%w: age must be between %d and %d", domain.ErrInvalidInput, domain.MinAge, domain.MaxAge)
	}
	return nil
}

// ValidateStruct validates s and returns an error wrapping
// domain.ErrInvalidInput whose message lists every failing field.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describe(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(messages, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "phone":
		return fmt.Sprintf("%s must be an international phone number like +15551234567", field)
	case "otp":
		return fmt.Sprintf("%s must be exactly 6 digits", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at least %s items or characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at most %s items or characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
