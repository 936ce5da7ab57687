package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "user@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "missing local part",
			email:   "@example.com",
			wantErr: true,
		},
		{
			name:    "no dot in domain",
			email:   "nope@localhost",
			wantErr: true,
		},
		{
			name:    "plain word",
			email:   "nope",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
		{
			name:    "spaces in email",
			email:   "test @example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmailMessages(t *testing.T) {
	assert.Equal(t, "Por favor, ingresa tu correo", Message(ValidateEmail("  ")))
	assert.Equal(t, "Correo electrónico inválido", Message(ValidateEmail("nope")))
}

func TestValidateNewPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "valid password",
			password: "password123",
			wantErr:  false,
		},
		{
			name:     "password exactly 6 characters",
			password: "pass12",
			wantErr:  false,
		},
		{
			name:     "password too short",
			password: "pass1",
			wantErr:  true,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNewPassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNewPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePasswordConfirmation(t *testing.T) {
	assert.NoError(t, ValidatePasswordConfirmation("secret1", "secret1"))
	err := ValidatePasswordConfirmation("secret1", "secret2")
	assert.Equal(t, "Las contraseñas no coinciden", Message(err))
}

func TestValidateBirthDate(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.Error(t, ValidateBirthDate(time.Time{}, now))
	assert.Error(t, ValidateBirthDate(now.AddDate(0, 0, 1), now))
	assert.NoError(t, ValidateBirthDate(now.AddDate(-8, 0, 0), now))
}

type childForm struct {
	Names  string `json:"nombres" validate:"required,max=5"`
	Photo  string `json:"urlFotoPrincipal" validate:"omitempty,url"`
	Status string `json:"estado" validate:"required,oneof=DISPONIBLE APADRINADO"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(childForm{Names: "Ana", Status: "DISPONIBLE"}))

	err := Struct(childForm{Names: "Anastasia", Photo: "not a url", Status: "OTRO"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	fields := err.(Errors).ByField()
	assert.Equal(t, "Máximo 5 caracteres", fields["nombres"])
	assert.Equal(t, "Debe ser una URL válida", fields["urlFotoPrincipal"])
	assert.Equal(t, "Valor no permitido", fields["estado"])
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(ValidateRequired("email", "", "Email requerido")))
	assert.False(t, IsValidationError(assert.AnError))
	assert.Nil(t, ValidateRequired("email", "a", "Email requerido"))
}
