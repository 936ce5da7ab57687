package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"huahuacuna/internal/api"
	"huahuacuna/internal/models"
	"huahuacuna/internal/session"
	"huahuacuna/internal/validation"
)

// Fallback messages when the backend sends none
const (
	msgInvalidCredentials = "Email o contraseña incorrectos"
	msgMissingCredentials = "Por favor, completa todos los campos"
	msgInvalidResponse    = "Respuesta inválida del servidor"
	msgForgotFailed       = "No se pudo procesar la solicitud"
	msgResetFailed        = "No se pudo restablecer la contraseña"
	msgInvalidResetToken  = "Token inválido o expirado"
	msgRequestFailed      = "No se pudo completar la solicitud"
	msgTimeout            = "La solicitud tardó demasiado tiempo"
	msgInProgress         = "Ya hay una solicitud en curso"
	msgForgotSent         = "Si el correo está registrado, recibirás un enlace para restablecer tu contraseña"
)

// AuthError is a failure reported by the backend
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// ResetMailer delivers reset links out of band
type ResetMailer interface {
	IsEnabled() bool
	SendPasswordResetEmail(ctx context.Context, toEmail, resetToken string) error
}

// ForgotResult is what the forgot-password page shows. Token is set only
// when reset tokens may be displayed.
type ForgotResult struct {
	Message string
	Token   string
	Emailed bool
}

// VerifyResult is the outcome of a reset-token lookup
type VerifyResult struct {
	Valid bool
	Email string
}

// AuthService translates auth intents into backend calls and Store updates
type AuthService struct {
	client         *api.Client
	store          *session.Store
	flows          *Flows
	mailer         ResetMailer
	showResetToken bool
}

// NewAuthService creates a new auth service. mailer may be nil.
func NewAuthService(client *api.Client, store *session.Store, flows *Flows, mailer ResetMailer, showResetToken bool) *AuthService {
	if flows == nil {
		flows = NewFlows()
	}
	return &AuthService{
		client:         client,
		store:          store,
		flows:          flows,
		mailer:         mailer,
		showResetToken: showResetToken,
	}
}

// Flows exposes the per-form state for rendering
func (s *AuthService) Flows() *Flows { return s.flows }

// run drives one flow: Begin, fn, then Succeed or Fail with the normalized message.
// The error is returned to the caller as well.
func (s *AuthService) run(sid, name string, fn func() error) error {
	if err := s.flows.Begin(sid, name); err != nil {
		return err
	}
	if err := fn(); err != nil {
		s.flows.Fail(sid, name, ErrorMessage(err))
		return err
	}
	s.flows.Succeed(sid, name)
	return nil
}

// Login authenticates against the backend and stores the session for sid
func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*session.Session, error) {
	var sess *session.Session
	err := s.run(sid, FlowLogin, func() error {
		email = strings.TrimSpace(email)
		if email == "" || password == "" {
			return validation.ValidationError{Field: "credentials", Message: msgMissingCredentials}
		}

		resp, err := s.client.Auth.Login(ctx, api.LoginRequest{Email: email, Password: password})
		if err != nil {
			return backendError(err, msgInvalidCredentials)
		}
		if !resp.Success {
			return &AuthError{Message: messageOr(resp.Message, msgInvalidCredentials)}
		}
		if resp.Data == nil || resp.Data.Token == "" {
			return &AuthError{Message: msgInvalidResponse}
		}

		user := NormalizeUser(resp.Data)
		sess, err = s.store.Set(ctx, sid, user, resp.Data.Token)
		if err != nil {
			if errors.Is(err, session.ErrTokenExpired) {
				return &AuthError{Message: msgInvalidResponse, Err: err}
			}
			return fmt.Errorf("failed to store session: %w", err)
		}
		log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("login succeeded")
		return nil
	})
	return sess, err
}

// NormalizeUser maps the backend login payload to a User
func NormalizeUser(data *api.LoginData) models.User {
	id := string(data.UserID)
	if id == "" {
		id = data.Email
	}
	name := strings.TrimSpace(data.FullName)
	if name == "" {
		name = data.Email
	}
	markers := append(append([]string{}, data.Role...), data.Roles...)
	return models.User{
		ID:    id,
		Email: data.Email,
		Name:  name,
		Role:  models.RoleFromMarkers(markers),
	}
}

// Logout clears the session for sid. The backend is not contacted.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	s.flows.Forget(sid)
	return s.store.Clear(ctx, sid)
}

// ForgotPassword requests a reset token for email
func (s *AuthService) ForgotPassword(ctx context.Context, sid, email string) (*ForgotResult, error) {
	var result *ForgotResult
	err := s.run(sid, FlowForgotPassword, func() error {
		email = strings.TrimSpace(email)
		if err := validation.ValidateEmail(email); err != nil {
			return err
		}

		resp, err := s.client.Auth.ForgotPassword(ctx, email)
		if err != nil {
			return backendError(err, msgForgotFailed)
		}
		if !resp.Success {
			return &AuthError{Message: messageOr(resp.Message, msgForgotFailed)}
		}

		result = &ForgotResult{Message: msgForgotSent}
		if s.showResetToken {
			result.Message = messageOr(resp.Message, msgForgotSent)
			result.Token = resp.Token
			return nil
		}
		if resp.Token != "" && s.mailer != nil && s.mailer.IsEnabled() {
			if err := s.mailer.SendPasswordResetEmail(ctx, email, resp.Token); err != nil {
				log.Error().Err(err).Msg("failed to send password reset email")
				return nil
			}
			result.Emailed = true
		}
		return nil
	})
	return result, err
}

// VerifyResetToken never fails: any error reads as an invalid token
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) VerifyResult {
	if strings.TrimSpace(token) == "" {
		return VerifyResult{}
	}
	resp, err := s.client.Auth.VerifyToken(ctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("reset token verification failed")
		return VerifyResult{}
	}
	return VerifyResult{Valid: resp.Valid, Email: resp.Email}
}

// ResetPassword sets a new password with a reset token
func (s *AuthService) ResetPassword(ctx context.Context, sid, token, newPassword string) error {
	return s.run(sid, FlowResetPassword, func() error {
		if strings.TrimSpace(token) == "" {
			return validation.ValidationError{Field: "token", Message: msgInvalidResetToken}
		}
		if err := validation.ValidateNewPassword(newPassword); err != nil {
			return err
		}

		resp, err := s.client.Auth.ResetPassword(ctx, api.ResetPasswordRequest{Token: token, NewPassword: newPassword})
		if err != nil {
			return backendError(err, msgResetFailed)
		}
		if !resp.Success {
			return &AuthError{Message: messageOr(resp.Message, msgResetFailed)}
		}
		return nil
	})
}

// ErrorMessage normalizes any auth failure to one user-facing string
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if validation.IsValidationError(err) {
		return validation.Message(err)
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	switch {
	case errors.Is(err, ErrSubmissionInProgress):
		return msgInProgress
	case errors.Is(err, api.ErrTimeout):
		return msgTimeout
	default:
		return msgRequestFailed
	}
}

// backendError keeps transport errors as they are and wraps backend
// rejections in AuthError with the backend's message or fallback.
func backendError(err error, fallback string) error {
	apiErr, ok := api.AsError(err)
	if !ok {
		return err
	}
	msg := apiErr.Message
	if msg == http.StatusText(apiErr.StatusCode) {
		msg = ""
	}
	return &AuthError{Message: messageOr(msg, fallback), Err: err}
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
