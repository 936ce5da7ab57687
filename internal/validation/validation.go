package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPasswordLength is the shortest password accepted on reset
const MinPasswordLength = 6

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors collects the field errors of one form
type Errors []ValidationError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, v := range e {
		msgs = append(msgs, v.Error())
	}
	return strings.Join(msgs, "; ")
}

// ByField indexes the messages for template lookup
func (e Errors) ByField() map[string]string {
	out := make(map[string]string, len(e))
	for _, v := range e {
		if _, ok := out[v.Field]; !ok {
			out[v.Field] = v.Message
		}
	}
	return out
}

// IsValidationError reports whether err is a local validation failure
func IsValidationError(err error) bool {
	var single ValidationError
	var many Errors
	return errors.As(err, &single) || errors.As(err, &many)
}

// Message extracts the first user-facing message from a validation error
func Message(err error) string {
	var single ValidationError
	if errors.As(err, &single) {
		return single.Message
	}
	var many Errors
	if errors.As(err, &many) && len(many) > 0 {
		return many[0].Message
	}
	return ""
}

// ValidateRequired fails when value is blank
func ValidateRequired(field, value, message string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: message}
	}
	return nil
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return ValidationError{Field: "email", Message: "Por favor, ingresa tu correo"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "Correo electrónico inválido"}
	}
	return nil
}

// ValidateNewPassword checks the minimum length of a new password
func ValidateNewPassword(password string) error {
	if len(password) < MinPasswordLength {
		return ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("La contraseña debe tener al menos %d caracteres", MinPasswordLength),
		}
	}
	return nil
}

// ValidatePasswordConfirmation checks that both password inputs match
func ValidatePasswordConfirmation(password, confirm string) error {
	if password != confirm {
		return ValidationError{Field: "confirmPassword", Message: "Las contraseñas no coinciden"}
	}
	return nil
}

// ValidateBirthDate rejects missing and future dates
func ValidateBirthDate(d time.Time, now time.Time) error {
	if d.IsZero() {
		return ValidationError{Field: "fechaNacimiento", Message: "La fecha de nacimiento es obligatoria"}
	}
	if d.After(now) {
		return ValidationError{Field: "fechaNacimiento", Message: "La fecha de nacimiento no puede ser futura"}
	}
	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct runs the validate tags of v and returns Errors with Spanish messages
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: messageFor(fe)})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Este campo es obligatorio"
	case "max":
		return fmt.Sprintf("Máximo %s caracteres", fe.Param())
	case "url":
		return "Debe ser una URL válida"
	case "oneof":
		return "Valor no permitido"
	default:
		return "Valor inválido"
	}
}
