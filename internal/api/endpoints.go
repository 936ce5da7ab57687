package api

import (
	"net/url"
	"strconv"
	"strings"

	"huahuacuna/internal/models"
)

// DefaultBaseURL is used when no API_URL is configured
const DefaultBaseURL = "http://localhost:8080/api"

// Endpoints maps logical backend operations to absolute URLs
type Endpoints struct {
	base string
}

// NewEndpoints builds the registry once from a base address
func NewEndpoints(base string) Endpoints {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return Endpoints{base: base}
}

// Base returns the configured base address
func (e Endpoints) Base() string { return e.base }

func (e Endpoints) Login() string          { return e.base + "/auth/login" }
func (e Endpoints) Register() string       { return e.base + "/auth/register" }
func (e Endpoints) ForgotPassword() string { return e.base + "/auth/forgot-password" }
func (e Endpoints) ResetPassword() string  { return e.base + "/auth/reset-password" }

// VerifyToken escapes the reset token into the path
func (e Endpoints) VerifyToken(token string) string {
	return e.base + "/auth/verify-token/" + url.PathEscape(token)
}

// Children lists child records, optionally filtered by status
func (e Endpoints) Children(status models.ChildStatus) string {
	u := e.base + "/v1/ninos"
	if status != "" {
		u += "?" + url.Values{"estado": {string(status)}}.Encode()
	}
	return u
}

func (e Endpoints) Child(id int64) string {
	return e.base + "/v1/ninos/" + strconv.FormatInt(id, 10)
}

// ChildStatus is the dedicated status-change operation
func (e Endpoints) ChildStatus(id int64) string {
	return e.Child(id) + "/estado"
}
