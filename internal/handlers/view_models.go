package handlers

import (
	"huahuacuna/internal/models"
	"huahuacuna/internal/security"
)

// PageData is shared by every layout
type PageData struct {
	Title     string
	Path      string
	User      *models.User
	CSRFToken string
	Flashes   []security.Flash
}

type LoadingViewData struct {
	PageData
	Startup StartupStatus
}

type ErrorViewData struct {
	PageData
	Status  int
	Message string
}

type LoginViewData struct {
	PageData
	Email   string
	Next    string
	Error   string
	Loading bool
}

type ForgotPasswordViewData struct {
	PageData
	Email    string
	Error    string
	Success  string
	Token    string
	ResetURL string
}

type ResetPasswordViewData struct {
	PageData
	Token   string
	Email   string
	Error   string
	Invalid bool
}

type Feature struct {
	Title       string
	Description string
}

type PublicFormViewData struct {
	PageData
	Heading  string
	Intro    string
	Features []Feature
	Options  []string
	Form     map[string]string
	Errors   map[string]string
}

type DashboardViewData struct {
	PageData
}

type ChildrenListViewData struct {
	PageData
	Children []models.Child
	Filter   models.ChildStatus
	Error    string
}

type ChildFormViewData struct {
	PageData
	ID     int64
	IsEdit bool
	Child  models.Child
	Errors map[string]string
	Error  string
}
