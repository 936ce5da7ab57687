package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"huahuacuna/internal/api"
	"huahuacuna/internal/models"
	"huahuacuna/internal/security"
	"huahuacuna/internal/service"
	"huahuacuna/internal/session"
)

const testSecret = "handlers-test-secret"

type recordedCall struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

// fakeBackend mimics the remote API
type fakeBackend struct {
	mu    sync.Mutex
	calls []recordedCall
	mux   *http.ServeMux
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{mux: http.NewServeMux()}

	b.mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Credenciales inválidas"})
			return
		}
		role, token, name := "USER", "tok-user", "Beto Usuario"
		switch req.Email {
		case "admin@huahuacuna.org":
			role, token, name = "ADMIN", "tok-admin", "Ana Admin"
		case "expired@huahuacuna.org":
			role, token, name = "ADMIN", "tok-expired", "Eva Expirada"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"token": token, "userId": 7, "email": req.Email, "fullName": name, "role": role,
			},
		})
	})

	b.mux.HandleFunc("POST /api/auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Token generado", "token": "reset-123"})
	})

	b.mux.HandleFunc("GET /api/auth/verify-token/{token}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("token") != "reset-123" {
			writeJSON(w, http.StatusOK, map[string]any{"valid": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"valid": true, "email": "ana@huahuacuna.org"})
	})

	b.mux.HandleFunc("POST /api/auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Contraseña actualizada"})
	})

	b.mux.HandleFunc("GET /api/v1/ninos", func(w http.ResponseWriter, r *http.Request) {
		children := []map[string]any{
			{"id": 1, "nombres": "Lucía", "apellidos": "Gómez", "fechaNacimiento": "2015-03-02", "historia": "Le gusta pintar", "estado": "DISPONIBLE"},
			{"id": 2, "nombres": "Mateo", "apellidos": "Ríos", "fechaNacimiento": "2013-11-20", "historia": "", "estado": "APADRINADO"},
		}
		if estado := r.URL.Query().Get("estado"); estado != "" {
			filtered := children[:0:0]
			for _, c := range children {
				if c["estado"] == estado {
					filtered = append(filtered, c)
				}
			}
			children = filtered
		}
		writeJSON(w, http.StatusOK, children)
	})

	b.mux.HandleFunc("POST /api/v1/ninos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": 3, "nombres": "Nueva", "apellidos": "Niña", "estado": "DISPONIBLE"})
	})

	b.mux.HandleFunc("GET /api/v1/ninos/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "error": "Not Found", "message": "Niño no encontrado"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "nombres": "Lucía", "apellidos": "Gómez", "fechaNacimiento": "2015-03-02", "historia": "Le gusta pintar", "estado": "DISPONIBLE"})
	})

	b.mux.HandleFunc("PUT /api/v1/ninos/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "nombres": "Lucía", "apellidos": "Gómez", "estado": "DISPONIBLE"})
	})

	b.mux.HandleFunc("PATCH /api/v1/ninos/{id}/estado", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "nombres": "Lucía", "apellidos": "Gómez", "estado": "APADRINADO"})
	})

	b.mux.HandleFunc("DELETE /api/v1/ninos/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return b
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, recordedCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	b.mu.Unlock()
	r.Body = io.NopCloser(bytes.NewReader(body))

	if r.Header.Get("Authorization") == "Bearer tok-expired" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"status": 401, "error": "Unauthorized"})
		return
	}
	b.mux.ServeHTTP(w, r)
}

// callsTo returns the recorded calls matching method and path prefix
func (b *fakeBackend) callsTo(method, pathPrefix string) []recordedCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedCall
	for _, c := range b.calls {
		if c.Method == method && strings.HasPrefix(c.Path, pathPrefix) {
			out = append(out, c)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type harnessOptions struct {
	skipInitialize bool
	limiter        *security.RateLimiter
	trustProxy     bool
}

type harness struct {
	t       *testing.T
	server  *httptest.Server
	client  *http.Client
	store   *session.Store
	backend *fakeBackend
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()

	backend := newFakeBackend()
	apiServer := httptest.NewServer(backend)
	t.Cleanup(apiServer.Close)

	client := api.NewClient(apiServer.URL+"/api", api.WithTimeout(2*time.Second))
	sealer, err := session.NewSealer(testSecret)
	require.NoError(t, err)
	store := session.NewStore(session.NewMemoryStorage(), sealer)
	if !opts.skipInitialize {
		_, err := store.Initialize(context.Background())
		require.NoError(t, err)
	}

	templates, err := LoadTemplates()
	require.NoError(t, err)

	router := NewRouter(Deps{
		Auth:       service.NewAuthService(client, store, service.NewFlows(), nil, true),
		Client:     client,
		Store:      store,
		Cookies:    security.NewCookieSessions("huahuacuna_test", testSecret, 3600),
		CSRF:       security.NewCSRFGenerator(testSecret),
		Limiter:    opts.limiter,
		Templates:  templates,
		TrustProxy: opts.trustProxy,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &harness{
		t:      t,
		server: server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		store:   store,
		backend: backend,
	}
}

func (h *harness) do(req *http.Request) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp, string(body)
}

func (h *harness) get(path string) (*http.Response, string) {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.server.URL+path, nil)
	require.NoError(h.t, err)
	return h.do(req)
}

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([0-9a-f]+)"`)

// csrfToken reads the token from a page that always carries a form
func (h *harness) csrfToken() string {
	h.t.Helper()
	_, body := h.get("/apadrinar")
	m := csrfPattern.FindStringSubmatch(body)
	require.Len(h.t, m, 2, "no csrf token on page")
	return m[1]
}

// post submits form with a valid CSRF token unless one is already present
func (h *harness) post(path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	return h.postWithHeaders(path, form, nil)
}

func (h *harness) postWithHeaders(path string, form url.Values, headers map[string]string) (*http.Response, string) {
	h.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if _, ok := form[security.CSRFFieldName]; !ok {
		form.Set(security.CSRFFieldName, h.csrfToken())
	}
	req, err := http.NewRequest(http.MethodPost, h.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return h.do(req)
}

func (h *harness) login(email string) *http.Response {
	h.t.Helper()
	resp, _ := h.post(PathLogin, url.Values{"email": {email}, "password": {"secret"}})
	return resp
}

func validChildForm() url.Values {
	return url.Values{
		"nombres":         {"Sofía"},
		"apellidos":       {"Martínez"},
		"fechaNacimiento": {"2016-05-10"},
		"historia":        {"Quiere ser doctora"},
		"estado":          {string(models.StatusAvailable)},
	}
}

func httptestForm(form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}
