package handlers

const (
	PathHome          = "/"
	PathLogin         = "/login"
	PathDashboard     = "/dashboard"
	PathChildren      = "/dashboard/apadrinamiento"
	PathForgot        = "/forgot-password"
	PathResetPassword = "/reset-password"

	ErrInvalidFormData     = "Datos de formulario inválidos"
	ErrInvalidCSRF         = "Token CSRF inválido"
	ErrTooManyRequests     = "Demasiados intentos. Inténtalo de nuevo más tarde."
	ErrInternalServerError = "Error interno del servidor"
	ErrNotFound            = "Página no encontrada"
	ErrSessionExpired      = "Tu sesión ha expirado. Inicia sesión de nuevo."
)
