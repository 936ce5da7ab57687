package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"huahuacuna/internal/api"
	"huahuacuna/internal/security"
	"huahuacuna/internal/service"
	"huahuacuna/internal/validation"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	cookies     *security.CookieSessions
	view        *Renderer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, cookies *security.CookieSessions, view *Renderer) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
		view:        view,
	}
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	page := h.view.Page(w, r, "Iniciar Sesión")
	next := safeNext(r.URL.Query().Get("next"))
	if page.User != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	state := h.authService.Flows().State(security.SessionID(r.Context()), service.FlowLogin)
	h.view.Render(w, http.StatusOK, "login.tmpl", LoginViewData{
		PageData: page,
		Next:     r.URL.Query().Get("next"),
		Error:    state.Error,
		Loading:  state.IsLoading(),
	})
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	sid := security.SessionID(r.Context())
	email := r.FormValue("email")
	next := r.FormValue("next")

	_, err := h.authService.Login(r.Context(), sid, email, r.FormValue("password"))
	if err != nil {
		state := h.authService.Flows().State(sid, service.FlowLogin)
		msg := state.Error
		if msg == "" {
			msg = service.ErrorMessage(err)
		}
		h.view.Render(w, statusForError(err), "login.tmpl", LoginViewData{
			PageData: h.view.Page(w, r, "Iniciar Sesión"),
			Email:    email,
			Next:     next,
			Error:    msg,
			Loading:  state.IsLoading(),
		})
		return
	}

	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

// DismissLoginError clears the login error without submitting again
func (h *AuthHandler) DismissLoginError(w http.ResponseWriter, r *http.Request) {
	h.authService.Flows().ClearError(security.SessionID(r.Context()), service.FlowLogin)

	target := PathLogin
	if next := r.PostFormValue("next"); next != "" {
		target += "?" + url.Values{"next": {next}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout handles logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sid := security.SessionID(r.Context())
	if err := h.authService.Logout(r.Context(), sid); err != nil {
		log.Error().Err(err).Msg("failed to clear persisted session")
	}

	if _, err := h.cookies.Rotate(w, r); err != nil {
		log.Error().Err(err).Msg("failed to rotate session cookie")
	}
	h.view.Flash(w, r, security.FlashSuccess, "Has cerrado sesión")

	http.Redirect(w, r, PathHome, http.StatusSeeOther)
}

// ShowForgotPassword renders the forgot-password form
func (h *AuthHandler) ShowForgotPassword(w http.ResponseWriter, r *http.Request) {
	state := h.authService.Flows().State(security.SessionID(r.Context()), service.FlowForgotPassword)
	h.view.Render(w, http.StatusOK, "forgot_password.tmpl", ForgotPasswordViewData{
		PageData: h.view.Page(w, r, "Recuperar Contraseña"),
		Error:    state.Error,
	})
}

// ForgotPassword requests a reset token
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	result, err := h.authService.ForgotPassword(r.Context(), security.SessionID(r.Context()), email)
	data := ForgotPasswordViewData{
		PageData: h.view.Page(w, r, "Recuperar Contraseña"),
		Email:    email,
	}
	if err != nil {
		data.Error = service.ErrorMessage(err)
		h.view.Render(w, statusForError(err), "forgot_password.tmpl", data)
		return
	}

	data.Success = result.Message
	if result.Token != "" {
		data.Token = result.Token
		data.ResetURL = PathResetPassword + "?" + url.Values{"token": {result.Token}}.Encode()
	}
	h.view.Render(w, http.StatusOK, "forgot_password.tmpl", data)
}

// ShowResetPassword verifies the token before showing the form
func (h *AuthHandler) ShowResetPassword(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		http.Redirect(w, r, PathForgot, http.StatusSeeOther)
		return
	}

	page := h.view.Page(w, r, "Restablecer Contraseña")
	result := h.authService.VerifyResetToken(r.Context(), token)
	if !result.Valid {
		h.view.Render(w, http.StatusOK, "reset_password.tmpl", ResetPasswordViewData{
			PageData: page,
			Invalid:  true,
			Error:    "Token inválido o expirado",
		})
		return
	}

	h.view.Render(w, http.StatusOK, "reset_password.tmpl", ResetPasswordViewData{
		PageData: page,
		Token:    token,
		Email:    result.Email,
	})
}

// ResetPassword sets the new password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	token := strings.TrimSpace(r.FormValue("token"))
	if token == "" {
		http.Redirect(w, r, PathForgot, http.StatusSeeOther)
		return
	}
	password := r.FormValue("password")

	err := validation.ValidatePasswordConfirmation(password, r.FormValue("confirmPassword"))
	if err == nil {
		err = h.authService.ResetPassword(r.Context(), security.SessionID(r.Context()), token, password)
	}
	if err != nil {
		h.view.Render(w, statusForError(err), "reset_password.tmpl", ResetPasswordViewData{
			PageData: h.view.Page(w, r, "Restablecer Contraseña"),
			Token:    token,
			Email:    r.FormValue("email"),
			Error:    service.ErrorMessage(err),
		})
		return
	}

	h.view.Flash(w, r, security.FlashSuccess, "Contraseña actualizada. Ya puedes iniciar sesión.")
	http.Redirect(w, r, PathLogin, http.StatusSeeOther)
}

// statusForError picks the response code for a failed auth form
func statusForError(err error) int {
	var authErr *service.AuthError
	switch {
	case validation.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrSubmissionInProgress):
		return http.StatusConflict
	case errors.Is(err, api.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &authErr):
		if apiErr, ok := api.AsError(err); ok && apiErr.StatusCode >= http.StatusInternalServerError {
			return http.StatusBadGateway
		}
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

// safeNext only follows local paths
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return PathDashboard
	}
	return next
}
