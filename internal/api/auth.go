package api

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
)

// AuthService wraps the backend authentication endpoints. The responses are
// returned in the backend's own shape; normalization happens in the service layer.
type AuthService struct {
	client *Client
}

// FlexibleID accepts a JSON number or string identifier
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*id = FlexibleID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = FlexibleID(n.String())
	return nil
}

// Roles accepts a single role string, a list of strings, or a list of
// {"authority": "..."} objects.
type Roles []string

func (r *Roles) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Roles{s}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(Roles, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var granted struct {
			Authority string `json:"authority"`
			Name      string `json:"name"`
		}
		if err := json.Unmarshal(item, &granted); err != nil {
			return err
		}
		if granted.Authority != "" {
			out = append(out, granted.Authority)
		} else if granted.Name != "" {
			out = append(out, granted.Name)
		}
	}
	*r = out
	return nil
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginData is the payload of a successful login
type LoginData struct {
	Token    string     `json:"token"`
	UserID   FlexibleID `json:"userId"`
	Email    string     `json:"email"`
	FullName string     `json:"fullName"`
	Role     Roles      `json:"role"`
	Roles    Roles      `json:"roles"`
}

// LoginResponse is {success, message, data}
type LoginResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    *LoginData `json:"data"`
}

// RegisterRequest creates an account
type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// RegisterResponse is {success, message, data}
type RegisterResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    *LoginData `json:"data"`
}

// ForgotPasswordResponse carries a reset token only in development backends
type ForgotPasswordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	Note    string `json:"note,omitempty"`
}

// VerifyTokenResponse reports whether a reset token is usable
type VerifyTokenResponse struct {
	Valid bool   `json:"valid"`
	Email string `json:"email,omitempty"`
}

// ResetPasswordRequest sets a new password with a reset token
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ResetPasswordResponse is {success, message}
type ResetPasswordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Login posts credentials. A non-2xx status yields *Error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := s.client.post(ctx, s.client.endpoints.Login(), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a backend account
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := s.client.post(ctx, s.client.endpoints.Register(), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword asks the backend to issue a reset token for email
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResponse, error) {
	var resp ForgotPasswordResponse
	body := map[string]string{"email": email}
	if err := s.client.post(ctx, s.client.endpoints.ForgotPassword(), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyToken looks up a reset token
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*VerifyTokenResponse, error) {
	var resp VerifyTokenResponse
	if err := s.client.get(ctx, s.client.endpoints.VerifyToken(token), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword confirms a password reset
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*ResetPasswordResponse, error) {
	var resp ResetPasswordResponse
	if err := s.client.post(ctx, s.client.endpoints.ResetPassword(), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
