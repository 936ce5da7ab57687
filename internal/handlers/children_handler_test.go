package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huahuacuna/internal/models"
	"huahuacuna/internal/validation"
)

func TestChildrenRequireAdmin(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	require.Equal(t, http.StatusSeeOther, h.login("beto@huahuacuna.org").StatusCode)

	resp, _ := h.get(PathDashboard)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.get(PathChildren)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), PathLogin)
	assert.Empty(t, h.backend.callsTo(http.MethodGet, "/api/v1/ninos"))
}

func TestChildrenListSendsBearerAndFilter(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.login("admin@huahuacuna.org")

	resp, body := h.get(PathChildren)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Lucía Gómez")
	assert.Contains(t, body, "Mateo Ríos")

	calls := h.backend.callsTo(http.MethodGet, "/api/v1/ninos")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer tok-admin", calls[0].Auth)

	_, body = h.get(PathChildren + "?estado=APADRINADO")
	assert.NotContains(t, body, "Lucía Gómez")
	assert.Contains(t, body, "Mateo Ríos")
	calls = h.backend.callsTo(http.MethodGet, "/api/v1/ninos")
	assert.Equal(t, "estado=APADRINADO", calls[len(calls)-1].Query)

	_, _ = h.get(PathChildren + "?estado=bogus")
	calls = h.backend.callsTo(http.MethodGet, "/api/v1/ninos")
	assert.Empty(t, calls[len(calls)-1].Query)
}

func TestCreateChildValidatesBeforeCallingBackend(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.login("admin@huahuacuna.org")

	tests := []struct {
		name    string
		modify  func(url.Values)
		message string
	}{
		{"missing names", func(f url.Values) { f.Set("nombres", "") }, "Este campo es obligatorio"},
		{"bad photo url", func(f url.Values) { f.Set("urlFotoPrincipal", "no es url") }, "Debe ser una URL válida"},
		{"future birth date", func(f url.Values) {
			f.Set("fechaNacimiento", time.Now().AddDate(1, 0, 0).Format("2006-01-02"))
		}, "no puede ser futura"},
		{"missing birth date", func(f url.Values) { f.Set("fechaNacimiento", "") }, "obligatoria"},
		{"bad status", func(f url.Values) { f.Set("estado", "PERDIDO") }, "Valor no permitido"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validChildForm()
			tt.modify(form)
			resp, body := h.post(PathChildren+"/crear", form)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			assert.Contains(t, body, tt.message)
		})
	}
	assert.Empty(t, h.backend.callsTo(http.MethodPost, "/api/v1/ninos"))
}

func TestCreateChild(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.login("admin@huahuacuna.org")

	resp, _ := h.post(PathChildren+"/crear", validChildForm())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, PathChildren, resp.Header.Get("Location"))

	calls := h.backend.callsTo(http.MethodPost, "/api/v1/ninos")
	require.Len(t, calls, 1)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(calls[0].Body), &body))
	assert.Equal(t, "Sofía", body["nombres"])
	assert.Equal(t, "2016-05-10", body["fechaNacimiento"])
	assert.Equal(t, "DISPONIBLE", body["estado"])
	assert.NotContains(t, body, "id")

	_, page := h.get(PathChildren)
	assert.Contains(t, page, "Niño creado exitosamente.")
}

func TestEditChild(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.login("admin@huahuacuna.org")

	resp, body := h.get(PathChildren + "/editar/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="Lucía"`)
	assert.Contains(t, body, `value="2015-03-02"`)
	assert.NotContains(t, body, `name="estado"`)

	resp, _ = h.get(PathChildren + "/editar/99")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.get(PathChildren + "/editar/abc")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	form := validChildForm()
	resp, _ = h.post(PathChildren+"/editar/1", form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	calls := h.backend.callsTo(http.MethodPut, "/api/v1/ninos/1")
	require.Len(t, calls, 1)
	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(calls[0].Body), &sent))
	assert.Equal(t, "Sofía", sent["nombres"])
	assert.NotContains(t, sent, "estado")
	assert.NotContains(t, sent, "id")
}

func TestChangeStatusAndDelete(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.login("admin@huahuacuna.org")

	resp, _ := h.post(PathChildren+"/1/estado", url.Values{"estado": {"APADRINADO"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	calls := h.backend.callsTo(http.MethodPatch, "/api/v1/ninos/1/estado")
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"nuevoEstado":"APADRINADO"}`, calls[0].Body)

	_, body := h.get(PathChildren)
	assert.Contains(t, body, "Estado actualizado a Apadrinado.")

	resp, _ = h.post(PathChildren+"/1/estado", url.Values{"estado": {"PERDIDO"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Len(t, h.backend.callsTo(http.MethodPatch, "/api/v1/ninos/1/estado"), 1)

	resp, _ = h.post(PathChildren+"/1/eliminar", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Len(t, h.backend.callsTo(http.MethodDelete, "/api/v1/ninos/1"), 1)

	_, body = h.get(PathChildren)
	assert.Contains(t, body, "Registro eliminado.")
}

func TestRejectedTokenEndsSession(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.login("expired@huahuacuna.org")
	require.Equal(t, 1, h.store.Len())

	resp, _ := h.get(PathChildren)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, PathLogin, resp.Header.Get("Location"))
	assert.Equal(t, 0, h.store.Len())

	_, body := h.get(PathLogin)
	assert.Contains(t, body, "Tu sesión ha expirado")
}

func TestChildFromForm(t *testing.T) {
	form := validChildForm()
	form.Set("fechaNacimiento", "2016-05-10T00:00:00Z")
	r := httptestForm(form)

	child, errs := childFromForm(r, false)
	assert.Empty(t, errs)
	assert.Equal(t, "2016-05-10", child.BirthDate.String())
	assert.Empty(t, child.Status)

	form.Set("fechaNacimiento", "10/05/2016")
	child, errs = childFromForm(httptestForm(form), true)
	require.Len(t, errs, 1)
	assert.Equal(t, "fechaNacimiento", errs[0].Field)
	assert.Equal(t, models.StatusAvailable, child.Status)
	assert.True(t, validation.IsValidationError(errs))
}
