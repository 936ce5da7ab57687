package security

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestCSRFGenerator(t *testing.T) {
	g := NewCSRFGenerator("secret")

	token, err := g.GenerateToken("sid-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	again, _ := g.GenerateToken("sid-1")
	if token != again {
		t.Error("tokens for one session id should be stable")
	}

	tests := []struct {
		name  string
		sid   string
		token string
		want  bool
	}{
		{name: "valid", sid: "sid-1", token: token, want: true},
		{name: "other session", sid: "sid-2", token: token, want: false},
		{name: "empty token", sid: "sid-1", token: "", want: false},
		{name: "empty session", sid: "", token: token, want: false},
		{name: "tampered", sid: "sid-1", token: tamper(token), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.ValidateToken(tt.sid, tt.token); got != tt.want {
				t.Errorf("ValidateToken() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := g.GenerateToken(""); err == nil {
		t.Error("expected error for empty session id")
	}
}

func TestCSRFValidateRequest(t *testing.T) {
	g := NewCSRFGenerator("secret")
	token, _ := g.GenerateToken("sid")

	form := url.Values{CSRFFieldName: {token}}
	r := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if !g.ValidateRequest(r, "sid") {
		t.Error("form token should validate")
	}

	r = httptest.NewRequest("POST", "/login", nil)
	r.Header.Set(CSRFHeaderName, token)
	if !g.ValidateRequest(r, "sid") {
		t.Error("header token should validate")
	}

	r = httptest.NewRequest("POST", "/login", nil)
	if g.ValidateRequest(r, "sid") {
		t.Error("missing token should not validate")
	}
}

func tamper(token string) string {
	last := token[len(token)-1]
	if last == 'a' {
		return token[:len(token)-1] + "b"
	}
	return token[:len(token)-1] + "a"
}
