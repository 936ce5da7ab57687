package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"huahuacuna/internal/guard"
	"huahuacuna/internal/models"
	"huahuacuna/internal/security"
)

//go:embed templates
var templateFS embed.FS

const siteName = "Fundación Huahuacuna"

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"statuses": models.ChildStatuses,
		"formatDate": func(d models.Date) string {
			if d.IsZero() {
				return ""
			}
			return d.Format("02/01/2006")
		},
		"truncate": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return strings.TrimSpace(string(r[:n])) + "…"
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS,
		"templates/*.tmpl",
		"templates/*/*.tmpl",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// Renderer builds the common page data and executes templates
type Renderer struct {
	templates *template.Template
	sessions  guard.SessionSource
	cookies   *security.CookieSessions
	csrf      *security.CSRFGenerator
	startup   *Startup
}

// NewRenderer creates a renderer. startup may be nil.
func NewRenderer(templates *template.Template, sessions guard.SessionSource, cookies *security.CookieSessions, csrf *security.CSRFGenerator, startup *Startup) *Renderer {
	return &Renderer{
		templates: templates,
		sessions:  sessions,
		cookies:   cookies,
		csrf:      csrf,
		startup:   startup,
	}
}

// Page collects what every layout needs. It drains pending flashes, so it
// must run before anything is written to w.
func (v *Renderer) Page(w http.ResponseWriter, r *http.Request, title string) PageData {
	ctx := r.Context()
	sid := security.SessionID(ctx)

	data := PageData{Title: siteName, Path: r.URL.Path}
	if title != "" {
		data.Title = title + " - " + siteName
	}

	if sess, ok := guard.FromContext(ctx); ok {
		user := sess.User
		data.User = &user
	} else if v.sessions.Ready() {
		if sess, ok := v.sessions.Get(ctx, sid); ok {
			user := sess.User
			data.User = &user
		}
	}

	if sid != "" {
		data.CSRFToken, _ = v.csrf.GenerateToken(sid)
	}
	data.Flashes = v.cookies.Flashes(w, r)
	return data
}

// Render executes name into a buffer so a failing template never leaves a
// half-written page
func (v *Renderer) Render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := v.templates.ExecuteTemplate(&buf, name, data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to render "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Flash queues a message for the next page
func (v *Renderer) Flash(w http.ResponseWriter, r *http.Request, kind, message string) {
	if err := v.cookies.AddFlash(w, r, kind, message); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to store flash", err)
	}
}

// Loading is the neutral page shown while sessions are being restored
func (v *Renderer) Loading(w http.ResponseWriter, r *http.Request) {
	data := LoadingViewData{
		PageData: PageData{Title: "Cargando... - " + siteName, Path: r.URL.Path},
		Startup:  v.startup.Status(),
	}
	w.Header().Set("Retry-After", "1")
	v.Render(w, http.StatusServiceUnavailable, "loading.tmpl", data)
}

// NotFound renders the error page with a 404
func (v *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	v.Error(w, r, http.StatusNotFound, ErrNotFound)
}

// Error renders the error page
func (v *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	v.Render(w, status, "error.tmpl", ErrorViewData{
		PageData: v.Page(w, r, "Error"),
		Status:   status,
		Message:  message,
	})
}
