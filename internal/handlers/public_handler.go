package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"huahuacuna/internal/guard"
	"huahuacuna/internal/security"
	"huahuacuna/internal/validation"
)

// field is one input of a public form
type field struct {
	name     string
	message  string
	required bool
	email    bool
}

// publicPage describes a marketing page and its optional form
type publicPage struct {
	template string
	title    string
	heading  string
	intro    string
	features []Feature
	options  []string
	fields   []field
	success  string
}

var (
	sponsorPage = publicPage{
		template: "apadrinar.tmpl",
		title:    "Apadrinar",
		heading:  "Conviértete en Padrino o Madrina",
		intro:    "Tu apadrinamiento hace posible que niños en situación vulnerable reciban educación, alimentación y apoyo integral para su desarrollo.",
		features: []Feature{
			{"Educación Integral", "Apoyo en educación formal, útiles escolares y actividades extracurriculares."},
			{"Salud y Bienestar", "Atención médica, complementos alimenticios y seguimiento nutricional."},
			{"Desarrollo Personal", "Talleres de habilidades, actividades recreativas y apoyo emocional."},
			{"Apoyo Familiar", "Orientación a padres y talleres para el desarrollo familiar."},
			{"Recursos Materiales", "Provisión de uniformes, calzado y materiales necesarios."},
			{"Seguimiento Continuo", "Monitoreo del progreso y comunicación regular con padrinos."},
		},
		options: []string{
			"Apadrinamiento Individual ($100.000 mensual)",
			"Apadrinamiento Compartido ($50.000 mensual)",
		},
		fields: []field{
			{name: "nombres", message: "Ingresa tus nombres", required: true},
			{name: "apellidos", message: "Ingresa tus apellidos", required: true},
			{name: "email", required: true, email: true},
			{name: "telefono"},
			{name: "tipo", message: "Selecciona un tipo de apadrinamiento", required: true},
		},
		success: "¡Gracias! Nos pondremos en contacto contigo para completar tu apadrinamiento.",
	}

	donationPage = publicPage{
		template: "donaciones.tmpl",
		title:    "Donaciones",
		heading:  "Haz una Donación",
		intro:    "Cada aporte se convierte en alimentación, educación y salud para los niños de la fundación.",
		features: []Feature{
			{"Programa de alimentación", "Complementos alimenticios y seguimiento nutricional."},
			{"Educación y útiles escolares", "Uniformes, útiles y refuerzo escolar."},
			{"Construcción de viviendas", "Mejoras de vivienda para las familias."},
			{"Apoyo médico y salud", "Atención médica y controles periódicos."},
			{"Desarrollo comunitario", "Talleres y actividades para la comunidad."},
		},
		options: []string{"Alimentos", "Ropa y Calzado", "Útiles Escolares", "Juguetes", "Otros"},
		fields: []field{
			{name: "monto"},
			{name: "tipo"},
			{name: "descripcion"},
			{name: "nombre", message: "Ingresa tu nombre", required: true},
			{name: "email", required: true, email: true},
			{name: "telefono"},
		},
		success: "¡Gracias por tu donación! Te enviaremos los detalles para completarla.",
	}

	volunteerPage = publicPage{
		template: "voluntariado.tmpl",
		title:    "Voluntariado",
		heading:  "Únete como Voluntario",
		intro:    "Comparte tu tiempo y tus talentos con los niños y las familias de la fundación.",
		features: []Feature{
			{"Tutor Educativo", "Refuerzo escolar y acompañamiento en tareas."},
			{"Instructor de Arte", "Talleres de música, pintura y expresión."},
			{"Apoyo en Eventos", "Logística en jornadas y actividades recreativas."},
			{"Mentor Digital", "Formación en herramientas digitales."},
		},
		options: []string{"Apoyo Educativo", "Arte y Cultura", "Eventos", "Apoyo Digital"},
		fields: []field{
			{name: "nombre", message: "Ingresa tu nombre", required: true},
			{name: "email", required: true, email: true},
			{name: "telefono"},
			{name: "area", message: "Selecciona un área", required: true},
			{name: "disponibilidad", message: "Cuéntanos tu disponibilidad", required: true},
			{name: "experiencia"},
			{name: "acepto", message: "Debes aceptar las condiciones del voluntariado", required: true},
		},
		success: "¡Gracias por postularte! Revisaremos tu perfil y te contactaremos.",
	}

	projectsPage = publicPage{
		template: "proyectos.tmpl",
		title:    "Proyectos",
		heading:  "Nuestros Proyectos",
		intro:    "Programas que transforman la vida de los niños y sus comunidades.",
		features: []Feature{
			{"Escuela de Música e Inglés", "Formación artística y en idiomas los fines de semana."},
			{"Talleres de Lectura y Desarrollo Emocional", "Espacios de lectura y acompañamiento emocional."},
			{"Formación Técnica SENA", "Cursos técnicos para jóvenes y padres de familia."},
			{"Taller de Emprendimiento", "Herramientas para iniciar proyectos productivos."},
			{"Jornada de Voluntariado", "Encuentros con voluntarios y actividades comunitarias."},
		},
	}
)

// PublicHandler serves the marketing pages. Their forms are acknowledged
// locally and never reach the backend.
type PublicHandler struct {
	view *Renderer
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(view *Renderer) *PublicHandler {
	return &PublicHandler{view: view}
}

// Home renders the landing page
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, http.StatusOK, "home.tmpl", h.view.Page(w, r, ""))
}

// ShowSponsor renders the sponsorship page
func (h *PublicHandler) ShowSponsor(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, sponsorPage)
}

// SubmitSponsor acknowledges a sponsorship inquiry
func (h *PublicHandler) SubmitSponsor(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, sponsorPage)
}

func (h *PublicHandler) ShowDonation(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, donationPage)
}

func (h *PublicHandler) SubmitDonation(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, donationPage)
}

func (h *PublicHandler) ShowVolunteer(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, volunteerPage)
}

func (h *PublicHandler) SubmitVolunteer(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, volunteerPage)
}

func (h *PublicHandler) ShowProjects(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, projectsPage)
}

// Loading renders the neutral page guarded routes show before sessions are restored
func (h *PublicHandler) Loading(w http.ResponseWriter, r *http.Request) {
	h.view.Loading(w, r)
}

// NotFound renders the 404 page
func (h *PublicHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.view.NotFound(w, r)
}

func (h *PublicHandler) show(w http.ResponseWriter, r *http.Request, p publicPage) {
	h.view.Render(w, http.StatusOK, p.template, h.data(w, r, p, nil, nil))
}

func (h *PublicHandler) submit(w http.ResponseWriter, r *http.Request, p publicPage) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	form := make(map[string]string, len(p.fields))
	for _, f := range p.fields {
		form[f.name] = strings.TrimSpace(r.PostFormValue(f.name))
	}

	errs := p.validate(form)
	if len(errs) > 0 {
		h.view.Render(w, http.StatusUnprocessableEntity, p.template, h.data(w, r, p, form, errs.ByField()))
		return
	}

	log.Info().Str("form", p.title).Msg("public form acknowledged")
	h.view.Flash(w, r, security.FlashSuccess, p.success)
	http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
}

func (p publicPage) validate(form map[string]string) validation.Errors {
	var errs validation.Errors
	add := func(err error) {
		if ve, ok := err.(validation.ValidationError); ok {
			errs = append(errs, ve)
		}
	}
	for _, f := range p.fields {
		switch {
		case f.email:
			add(validation.ValidateEmail(form[f.name]))
		case f.required:
			add(validation.ValidateRequired(f.name, form[f.name], f.message))
		}
	}
	// a donation is either money or goods
	if p.template == donationPage.template && form["monto"] == "" && form["descripcion"] == "" {
		errs = append(errs, validation.ValidationError{Field: "monto", Message: "Ingresa el monto o describe tu donación en especie"})
	}
	return errs
}

func (h *PublicHandler) data(w http.ResponseWriter, r *http.Request, p publicPage, form, errs map[string]string) PublicFormViewData {
	if form == nil {
		form = map[string]string{}
	}
	return PublicFormViewData{
		PageData: h.view.Page(w, r, p.title),
		Heading:  p.heading,
		Intro:    p.intro,
		Features: p.features,
		Options:  p.options,
		Form:     form,
		Errors:   errs,
	}
}

// Dashboard renders the landing page of the authenticated area
func Dashboard(view *Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := guard.FromContext(r.Context()); !ok {
			http.Redirect(w, r, PathLogin, http.StatusSeeOther)
			return
		}
		view.Render(w, http.StatusOK, "dashboard.tmpl", DashboardViewData{PageData: view.Page(w, r, "Inicio")})
	}
}
