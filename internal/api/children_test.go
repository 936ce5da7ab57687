package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huahuacuna/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

func newChildrenServer(t *testing.T, reqs *[]recordedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
		*reqs = append(*reqs, rec)

		child := `{"id":7,"nombres":"Luz","apellidos":"Quispe","fechaNacimiento":"2015-03-09","historia":"","urlFotoPrincipal":"","estado":"DISPONIBLE"}`
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/ninos":
			w.Write([]byte("[" + child + "]"))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/api/v1/ninos/404":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status":404,"error":"Not Found","message":"Niño no encontrado"}`))
		default:
			w.Write([]byte(child))
		}
	}))
}

func TestChildrenService(t *testing.T) {
	var reqs []recordedRequest
	srv := newChildrenServer(t, &reqs)
	defer srv.Close()

	c := NewClient(srv.URL + "/api").WithToken("tok")
	ctx := context.Background()
	birth, _ := models.ParseDate("2015-03-09")

	list, err := c.Children.List(ctx, models.StatusAvailable)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Luz", list[0].GivenNames)

	_, err = c.Children.Get(ctx, 7)
	require.NoError(t, err)

	created, err := c.Children.Create(ctx, models.CreateChildRequest{
		GivenNames: "Luz", Surnames: "Quispe", BirthDate: birth, Status: models.StatusAvailable,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)

	_, err = c.Children.Update(ctx, 7, models.UpdateChildRequest{GivenNames: "Luz", Surnames: "Quispe", BirthDate: birth})
	require.NoError(t, err)

	_, err = c.Children.ChangeStatus(ctx, 7, models.StatusSponsored)
	require.NoError(t, err)

	require.NoError(t, c.Children.Delete(ctx, 7))

	require.Len(t, reqs, 6)
	for _, r := range reqs {
		assert.Equal(t, "Bearer tok", r.Auth, "%s %s", r.Method, r.Path)
	}

	assert.Equal(t, "estado=DISPONIBLE", reqs[0].Query)
	assert.Equal(t, "POST", reqs[2].Method)
	assert.NotContains(t, reqs[2].Body, "id")
	assert.Equal(t, "2015-03-09", reqs[2].Body["fechaNacimiento"])

	assert.Equal(t, "PUT", reqs[3].Method)
	assert.Equal(t, "/api/v1/ninos/7", reqs[3].Path)
	assert.NotContains(t, reqs[3].Body, "estado")
	assert.NotContains(t, reqs[3].Body, "id")

	assert.Equal(t, "PATCH", reqs[4].Method)
	assert.Equal(t, "/api/v1/ninos/7/estado", reqs[4].Path)
	assert.Equal(t, map[string]any{"nuevoEstado": "APADRINADO"}, reqs[4].Body)

	assert.Equal(t, "DELETE", reqs[5].Method)
}

func TestChildrenServiceNotFound(t *testing.T) {
	var reqs []recordedRequest
	srv := newChildrenServer(t, &reqs)
	defer srv.Close()

	_, err := NewClient(srv.URL+"/api").WithToken("tok").Children.Get(context.Background(), 404)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "Niño no encontrado", apiErr.Message)
}
