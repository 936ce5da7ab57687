package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ChildStatus is the sponsorship state of a child record
type ChildStatus string

const (
	StatusAvailable  ChildStatus = "DISPONIBLE"
	StatusInProgress ChildStatus = "EN_PROCESO"
	StatusSponsored  ChildStatus = "APADRINADO"
)

// ChildStatuses lists every status in display order
func ChildStatuses() []ChildStatus {
	return []ChildStatus{StatusAvailable, StatusInProgress, StatusSponsored}
}

// ParseChildStatus validates a status coming from a form or query string
func ParseChildStatus(s string) (ChildStatus, error) {
	status := ChildStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range ChildStatuses() {
		if status == known {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown child status %q", s)
}

// Label returns the human-readable status shown in the dashboard
func (s ChildStatus) Label() string {
	switch s {
	case StatusAvailable:
		return "Disponible"
	case StatusInProgress:
		return "En proceso"
	case StatusSponsored:
		return "Apadrinado"
	default:
		return string(s)
	}
}

const dateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD
type Date struct {
	time.Time
}

// ParseDate parses an HTML date input value. Timestamps are truncated to their date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date for an <input type="date">
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Child is a sponsorable child's profile as exposed by the backend.
// The id is assigned by the backend and never changes.
type Child struct {
	ID           int64       `json:"id"`
	GivenNames   string      `json:"nombres"`
	Surnames     string      `json:"apellidos"`
	BirthDate    Date        `json:"fechaNacimiento"`
	Biography    string      `json:"historia"`
	MainPhotoURL string      `json:"urlFotoPrincipal"`
	Status       ChildStatus `json:"estado"`
}

// FullName joins given names and surnames
func (c Child) FullName() string {
	return strings.TrimSpace(c.GivenNames + " " + c.Surnames)
}

// CreateChildRequest is a Child without its id
type CreateChildRequest struct {
	GivenNames   string      `json:"nombres" validate:"required,max=120"`
	Surnames     string      `json:"apellidos" validate:"required,max=120"`
	BirthDate    Date        `json:"fechaNacimiento"`
	Biography    string      `json:"historia" validate:"max=5000"`
	MainPhotoURL string      `json:"urlFotoPrincipal" validate:"omitempty,url"`
	Status       ChildStatus `json:"estado" validate:"required,oneof=DISPONIBLE EN_PROCESO APADRINADO"`
}

// UpdateChildRequest is a Child without id and status. Status only changes
// through ChangeStatusRequest.
type UpdateChildRequest struct {
	GivenNames   string `json:"nombres" validate:"required,max=120"`
	Surnames     string `json:"apellidos" validate:"required,max=120"`
	BirthDate    Date   `json:"fechaNacimiento"`
	Biography    string `json:"historia" validate:"max=5000"`
	MainPhotoURL string `json:"urlFotoPrincipal" validate:"omitempty,url"`
}

// UpdateFrom copies the editable fields of an existing record
func UpdateFrom(c Child) UpdateChildRequest {
	return UpdateChildRequest{
		GivenNames:   c.GivenNames,
		Surnames:     c.Surnames,
		BirthDate:    c.BirthDate,
		Biography:    c.Biography,
		MainPhotoURL: c.MainPhotoURL,
	}
}

// ChangeStatusRequest is the body of the dedicated status operation
type ChangeStatusRequest struct {
	NewStatus ChildStatus `json:"nuevoEstado"`
}
