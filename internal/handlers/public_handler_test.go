package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicPagesRender(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	tests := []struct {
		path string
		want string
	}{
		{"/", "Conectando Corazones, Transformando Vidas"},
		{"/apadrinar", "Conviértete en Padrino o Madrina"},
		{"/donaciones", "Formulario de Donación"},
		{"/voluntariado", "Proceso de Selección"},
		{"/proyectos", "Nuestros Proyectos"},
		{PathLogin, "Iniciar Sesión"},
		{PathForgot, "Recuperar Contraseña"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := h.get(tt.path)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, tt.want)
			assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
		})
	}
}

func TestUnknownPageIsNotFound(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	resp, body := h.get("/no-existe")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, ErrNotFound)
}

func TestPublicFormValidation(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	resp, body := h.post("/apadrinar", url.Values{"nombres": {"Ana"}, "email": {"ana@"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Ingresa tus apellidos")
	assert.Contains(t, body, "Correo electrónico inválido")
	assert.Contains(t, body, `value="Ana"`)

	resp, _ = h.post("/apadrinar", url.Values{
		"nombres":   {"Ana"},
		"apellidos": {"Pérez"},
		"email":     {"ana@example.org"},
		"tipo":      {sponsorPage.options[0]},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/apadrinar", resp.Header.Get("Location"))

	_, body = h.get("/apadrinar")
	assert.Contains(t, body, "¡Gracias!")
}

func TestDonationNeedsAmountOrGoods(t *testing.T) {
	errs := donationPage.validate(map[string]string{"nombre": "Ana", "email": "ana@example.org"})
	require.Len(t, errs, 1)
	assert.Equal(t, "monto", errs[0].Field)

	errs = donationPage.validate(map[string]string{"nombre": "Ana", "email": "ana@example.org", "descripcion": "Ropa"})
	assert.Empty(t, errs)
}

func TestPublicFormsNeverReachBackend(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	h.post("/voluntariado", url.Values{
		"nombre": {"Ana"}, "email": {"ana@example.org"}, "area": {"Eventos"},
		"disponibilidad": {"Sábados"}, "acepto": {"si"},
	})
	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	assert.Empty(t, h.backend.calls)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, harnessOptions{skipInitialize: true})

	resp, body := h.get("/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, false, payload["sessionsReady"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.get("/")

	resp, body := h.get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "huahuacuna_http_requests_total")
}
