package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"huahuacuna/internal/api"
	"huahuacuna/internal/guard"
	"huahuacuna/internal/models"
	"huahuacuna/internal/security"
	"huahuacuna/internal/service"
	"huahuacuna/internal/session"
)

// Deps is everything the router wires together
type Deps struct {
	Auth       *service.AuthService
	Client     *api.Client
	Store      *session.Store
	Cookies    *security.CookieSessions
	CSRF       *security.CSRFGenerator
	Limiter    *security.RateLimiter
	Templates  *template.Template
	Startup    *Startup
	StaticPath string
	// TrustProxy lets forwarded headers set the client address
	TrustProxy bool
}

// NewRouter builds the HTTP handler tree
func NewRouter(d Deps) http.Handler {
	view := NewRenderer(d.Templates, d.Store, d.Cookies, d.CSRF, d.Startup)
	mw := NewMiddleware(d.Cookies, d.CSRF, d.Limiter)
	gate := guard.New(d.Store, PathLogin, http.HandlerFunc(view.Loading))

	public := NewPublicHandler(view)
	auth := NewAuthHandler(d.Auth, d.Cookies, view)
	children := NewChildrenHandler(d.Client, d.Store, view)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(Logging)
	r.Use(chimw.Recoverer)

	r.Get("/health", Health(d.Store, d.Startup))
	r.Handle("/metrics", promhttp.Handler())
	if d.StaticPath != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(d.StaticPath))))
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.SessionID)
		r.Use(mw.CSRFProtect)

		r.Get("/", public.Home)
		r.Get("/apadrinar", public.ShowSponsor)
		r.Post("/apadrinar", public.SubmitSponsor)
		r.Get("/donaciones", public.ShowDonation)
		r.Post("/donaciones", public.SubmitDonation)
		r.Get("/voluntariado", public.ShowVolunteer)
		r.Post("/voluntariado", public.SubmitVolunteer)
		r.Get("/proyectos", public.ShowProjects)

		r.Get(PathLogin, auth.ShowLogin)
		r.With(mw.RateLimit).Post(PathLogin, auth.Login)
		r.Post(PathLogin+"/dismiss", auth.DismissLoginError)
		r.Post("/logout", auth.Logout)
		r.Get(PathForgot, auth.ShowForgotPassword)
		r.With(mw.RateLimit).Post(PathForgot, auth.ForgotPassword)
		r.Get(PathResetPassword, auth.ShowResetPassword)
		r.With(mw.RateLimit).Post(PathResetPassword, auth.ResetPassword)

		r.Route(PathDashboard, func(r chi.Router) {
			r.With(gate.RequireSession).Get("/", Dashboard(view))

			r.Route("/apadrinamiento", func(r chi.Router) {
				r.Use(gate.RequireRole(models.RoleAdmin))
				r.Get("/", children.List)
				r.Get("/crear", children.ShowCreate)
				r.Post("/crear", children.Create)
				r.Get("/editar/{id}", children.ShowEdit)
				r.Post("/editar/{id}", children.Update)
				r.Post("/{id}/estado", children.ChangeStatus)
				r.Post("/{id}/eliminar", children.Delete)
			})
		})

		r.NotFound(public.NotFound)
	})

	return r
}

// Health reports liveness and whether sessions have been restored
func Health(store *session.Store, startup *Startup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":        "ok",
			"sessionsReady": store.Ready(),
			"sessions":      store.Len(),
			"startup":       startup.Status().Progress,
		})
	}
}
