package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"huahuacuna/internal/api"
	"huahuacuna/internal/guard"
	"huahuacuna/internal/models"
	"huahuacuna/internal/security"
	"huahuacuna/internal/validation"
)

// SessionClearer drops a session the backend no longer accepts
type SessionClearer interface {
	Clear(ctx context.Context, id string) error
}

// ChildrenHandler manages the sponsorship records of the admin dashboard
type ChildrenHandler struct {
	client   *api.Client
	sessions SessionClearer
	view     *Renderer
	now      func() time.Time
}

// NewChildrenHandler creates a new children handler
func NewChildrenHandler(client *api.Client, sessions SessionClearer, view *Renderer) *ChildrenHandler {
	return &ChildrenHandler{
		client:   client,
		sessions: sessions,
		view:     view,
		now:      time.Now,
	}
}

// children returns the backend service authenticated as the current visitor
func (h *ChildrenHandler) children(r *http.Request) *api.ChildrenService {
	sess, ok := guard.FromContext(r.Context())
	if !ok {
		return h.client.Children
	}
	return h.client.WithToken(sess.Token).Children
}

// List renders the records, optionally filtered by ?estado=
func (h *ChildrenHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter models.ChildStatus
	if raw := r.URL.Query().Get("estado"); raw != "" {
		if status, err := models.ParseChildStatus(raw); err == nil {
			filter = status
		}
	}

	children, err := h.children(r).List(r.Context(), filter)
	if err != nil && h.handleAuthFailure(w, r, err) {
		return
	}

	data := ChildrenListViewData{
		PageData: h.view.Page(w, r, "Apadrinamiento"),
		Children: children,
		Filter:   filter,
	}
	status := http.StatusOK
	if err != nil {
		log.Error().Err(err).Msg("failed to list children")
		data.Error = "No se pudo cargar la lista de niños."
		status = http.StatusBadGateway
	}
	h.view.Render(w, status, "children_list.tmpl", data)
}

// ShowCreate renders an empty form
func (h *ChildrenHandler) ShowCreate(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, http.StatusOK, "child_form.tmpl", ChildFormViewData{
		PageData: h.view.Page(w, r, "Registrar Niño"),
		Child:    models.Child{Status: models.StatusAvailable},
	})
}

// Create validates the form and creates the record
func (h *ChildrenHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	child, errs := childFromForm(r, true)
	req := models.CreateChildRequest{
		GivenNames:   child.GivenNames,
		Surnames:     child.Surnames,
		BirthDate:    child.BirthDate,
		Biography:    child.Biography,
		MainPhotoURL: child.MainPhotoURL,
		Status:       child.Status,
	}
	errs = h.validate(req, child.BirthDate, errs)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, 0, child, errs, "")
		return
	}

	if _, err := h.children(r).Create(r.Context(), req); err != nil {
		if h.handleAuthFailure(w, r, err) {
			return
		}
		log.Error().Err(err).Msg("failed to create child")
		h.renderForm(w, r, backendStatus(err), 0, child, nil, backendMessage(err, "No se pudo crear el registro. Revisa los campos."))
		return
	}

	h.view.Flash(w, r, security.FlashSuccess, "Niño creado exitosamente.")
	http.Redirect(w, r, PathChildren, http.StatusSeeOther)
}

// ShowEdit loads the record into the form
func (h *ChildrenHandler) ShowEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(r)
	if !ok {
		h.view.NotFound(w, r)
		return
	}

	child, err := h.children(r).Get(r.Context(), id)
	if err != nil {
		if h.handleAuthFailure(w, r, err) {
			return
		}
		if apiErr, ok := api.AsError(err); ok && apiErr.IsNotFound() {
			h.view.NotFound(w, r)
			return
		}
		log.Error().Err(err).Int64("child_id", id).Msg("failed to load child")
		h.view.Error(w, r, http.StatusBadGateway, "No se pudieron cargar los datos del niño.")
		return
	}

	h.renderForm(w, r, http.StatusOK, id, *child, nil, "")
}

// Update saves the editable fields. Status is not part of this form.
func (h *ChildrenHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(r)
	if !ok {
		h.view.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	child, errs := childFromForm(r, false)
	child.ID = id
	req := models.UpdateFrom(child)
	errs = h.validate(req, child.BirthDate, errs)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, id, child, errs, "")
		return
	}

	if _, err := h.children(r).Update(r.Context(), id, req); err != nil {
		if h.handleAuthFailure(w, r, err) {
			return
		}
		log.Error().Err(err).Int64("child_id", id).Msg("failed to update child")
		h.renderForm(w, r, backendStatus(err), id, child, nil, backendMessage(err, "No se pudo actualizar el registro."))
		return
	}

	h.view.Flash(w, r, security.FlashSuccess, "Niño actualizado exitosamente.")
	http.Redirect(w, r, PathChildren, http.StatusSeeOther)
}

// ChangeStatus moves a record to another sponsorship status
func (h *ChildrenHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(r)
	if !ok {
		h.view.NotFound(w, r)
		return
	}

	status, err := models.ParseChildStatus(r.PostFormValue("estado"))
	if err != nil {
		h.view.Flash(w, r, security.FlashError, "Estado no válido.")
		http.Redirect(w, r, PathChildren, http.StatusSeeOther)
		return
	}

	if _, err := h.children(r).ChangeStatus(r.Context(), id, status); err != nil {
		if h.handleAuthFailure(w, r, err) {
			return
		}
		log.Error().Err(err).Int64("child_id", id).Msg("failed to change child status")
		h.view.Flash(w, r, security.FlashError, backendMessage(err, "No se pudo actualizar el estado."))
	} else {
		h.view.Flash(w, r, security.FlashSuccess, "Estado actualizado a "+status.Label()+".")
	}
	http.Redirect(w, r, PathChildren, http.StatusSeeOther)
}

// Delete removes a record
func (h *ChildrenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := childID(r)
	if !ok {
		h.view.NotFound(w, r)
		return
	}

	if err := h.children(r).Delete(r.Context(), id); err != nil {
		if h.handleAuthFailure(w, r, err) {
			return
		}
		log.Error().Err(err).Int64("child_id", id).Msg("failed to delete child")
		h.view.Flash(w, r, security.FlashError, "Error al eliminar el registro.")
	} else {
		h.view.Flash(w, r, security.FlashSuccess, "Registro eliminado.")
	}
	http.Redirect(w, r, PathChildren, http.StatusSeeOther)
}

func (h *ChildrenHandler) validate(req any, birthDate models.Date, errs validation.Errors) validation.Errors {
	if err := validation.Struct(req); err != nil {
		var fieldErrs validation.Errors
		if errors.As(err, &fieldErrs) {
			errs = append(errs, fieldErrs...)
		} else {
			log.Error().Err(err).Msg("child form validation failed")
		}
	}
	if _, bad := errs.ByField()["fechaNacimiento"]; !bad {
		if err := validation.ValidateBirthDate(birthDate.Time, h.now()); err != nil {
			if ve, ok := err.(validation.ValidationError); ok {
				errs = append(errs, ve)
			}
		}
	}
	return errs
}

// handleAuthFailure ends the local session when the backend rejects the
// token. It reports whether the response was written.
func (h *ChildrenHandler) handleAuthFailure(w http.ResponseWriter, r *http.Request, err error) bool {
	apiErr, ok := api.AsError(err)
	if !ok || !apiErr.IsUnauthorized() {
		return false
	}
	sid := security.SessionID(r.Context())
	if clearErr := h.sessions.Clear(r.Context(), sid); clearErr != nil {
		log.Error().Err(clearErr).Msg("failed to clear rejected session")
	}
	log.Warn().Int("status", apiErr.StatusCode).Msg("backend rejected session token")
	h.view.Flash(w, r, security.FlashError, ErrSessionExpired)
	http.Redirect(w, r, PathLogin, http.StatusSeeOther)
	return true
}

func (h *ChildrenHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, id int64, child models.Child, errs validation.Errors, msg string) {
	title := "Registrar Niño"
	if id != 0 {
		title = "Editar Niño"
	}
	h.view.Render(w, status, "child_form.tmpl", ChildFormViewData{
		PageData: h.view.Page(w, r, title),
		ID:       id,
		IsEdit:   id != 0,
		Child:    child,
		Errors:   errs.ByField(),
		Error:    msg,
	})
}

// childFromForm reads the posted record. Status is read only on create.
func childFromForm(r *http.Request, withStatus bool) (models.Child, validation.Errors) {
	var errs validation.Errors
	child := models.Child{
		GivenNames:   strings.TrimSpace(r.PostFormValue("nombres")),
		Surnames:     strings.TrimSpace(r.PostFormValue("apellidos")),
		Biography:    strings.TrimSpace(r.PostFormValue("historia")),
		MainPhotoURL: strings.TrimSpace(r.PostFormValue("urlFotoPrincipal")),
	}

	if raw := strings.TrimSpace(r.PostFormValue("fechaNacimiento")); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			errs = append(errs, validation.ValidationError{Field: "fechaNacimiento", Message: "Fecha inválida (YYYY-MM-DD)"})
		} else {
			child.BirthDate = d
		}
	}

	if withStatus {
		status, err := models.ParseChildStatus(r.PostFormValue("estado"))
		if err != nil {
			errs = append(errs, validation.ValidationError{Field: "estado", Message: "Valor no permitido"})
		} else {
			child.Status = status
		}
	}
	return child, errs
}

func childID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// backendMessage prefers a validation message sent by the backend
func backendMessage(err error, fallback string) string {
	if apiErr, ok := api.AsError(err); ok && apiErr.IsValidationError() && apiErr.Message != "" &&
		apiErr.Message != http.StatusText(apiErr.StatusCode) {
		return apiErr.Message
	}
	if errors.Is(err, api.ErrTimeout) {
		return "La solicitud tardó demasiado tiempo"
	}
	return fallback
}

func backendStatus(err error) int {
	if apiErr, ok := api.AsError(err); ok && apiErr.IsValidationError() {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, api.ErrTimeout) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
