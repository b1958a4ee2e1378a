package main

// handlers.go this is our CRUD operations for the portfolio sections

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New()

type App struct {
	store       *Store
	auth        *AuthService
	uploads     *UploadStore
	cache       *ContentCache
	revalidator *Revalidator

	maxUploadBytes int64
	corsOrigins    []string
}

func NewApp(cfg *Config, store *Store) (*App, error) {
	uploads, err := NewUploadStore(cfg.PublicDir)
	if err != nil {
		return nil, err
	}

	var origins []string
	for _, o := range []string{cfg.FrontendURL, cfg.FrontendURL2} {
		if o != "" {
			origins = append(origins, o)
		}
	}

	return &App{
		store:          store,
		auth:           NewAuthService(store, cfg.JWTSecret, cfg.TokenTTL),
		uploads:        uploads,
		cache:          NewContentCache(cfg.CacheTTL),
		revalidator:    NewRevalidator(cfg.RevalidationURL, cfg.RevalidationSecret),
		maxUploadBytes: cfg.MaxUploadBytes,
		corsOrigins:    origins,
	}, nil
}

// contentChanged drops the cached reads for keys and tells the frontend to rebuild.
func (a *App) contentChanged(keys ...string) {
	a.cache.Invalidate(keys...)
	go a.revalidator.Trigger()
}

// Singletons

func (a *App) GetHome(w http.ResponseWriter, r *http.Request) {
	home, err := getCachedData(a.cache, cacheKeyHome, func() (*HomeSection, error) {
		return a.store.GetHome(r.Context())
	})
	if err != nil {
		a.storeError(w, r, "Failed to fetch home", err)
		return
	}
	writeSection(w, home)
}

func (a *App) SaveHome(w http.ResponseWriter, r *http.Request) {
	if !a.parseMultipart(w, r) {
		return
	}

	home := HomeSection{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}

	image, err := a.saveUpload(r, "profile_image", "")
	if err != nil {
		a.storeError(w, r, "Failed to save home", err)
		return
	}
	home.ProfileImage = image

	if err := a.store.SaveHome(r.Context(), home); err != nil {
		a.storeError(w, r, "Failed to save home", err)
		return
	}
	a.contentChanged(cacheKeyHome)
	writeMessage(w, "Home saved!")
}

func (a *App) GetAbout(w http.ResponseWriter, r *http.Request) {
	about, err := getCachedData(a.cache, cacheKeyAbout, func() (*AboutSection, error) {
		return a.store.GetAbout(r.Context())
	})
	if err != nil {
		a.storeError(w, r, "Failed to fetch about", err)
		return
	}
	writeSection(w, about)
}

func (a *App) SaveAbout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AboutText string `json:"about_text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := a.store.SaveAbout(r.Context(), AboutSection{AboutText: req.AboutText}); err != nil {
		a.storeError(w, r, "Failed to save about", err)
		return
	}
	a.contentChanged(cacheKeyAbout)
	writeMessage(w, "About saved!")
}

func (a *App) GetContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := getCachedData(a.cache, cacheKeyContacts, func() (*Contacts, error) {
		return a.store.GetContacts(r.Context())
	})
	if err != nil {
		a.storeError(w, r, "Failed to fetch contacts", err)
		return
	}
	writeSection(w, contacts)
}

func (a *App) SaveContacts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Whatsapp  string `json:"whatsapp"`
		Instagram string `json:"instagram"`
		Email     string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	contacts := Contacts{
		Whatsapp:  nullIfEmpty(req.Whatsapp),
		Instagram: nullIfEmpty(req.Instagram),
		Email:     nullIfEmpty(req.Email),
	}
	if err := a.store.SaveContacts(r.Context(), contacts); err != nil {
		a.storeError(w, r, "Failed to save contacts", err)
		return
	}
	a.contentChanged(cacheKeyContacts)
	writeMessage(w, "Contacts saved!")
}

// Collections

func (a *App) GetSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := getCachedData(a.cache, cacheKeySkills, func() ([]Skill, error) {
		return a.store.ListSkills(r.Context())
	})
	if err != nil {
		loggerFrom(r.Context()).Error("Failed to fetch skills", "error", err)
		writeJSON(w, http.StatusInternalServerError, []Skill{})
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

func (a *App) GetSkill(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r.PathValue("id"))
	if !ok {
		return
	}
	skill, err := a.store.GetSkill(r.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "Skill not found")
		return
	}
	if err != nil {
		a.storeError(w, r, "Failed to fetch skill", err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

type createSkillRequest struct {
	SkillName string `json:"skill_name" validate:"required"`
}

func (a *App) CreateSkill(w http.ResponseWriter, r *http.Request) {
	var req createSkillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "skill_name is required")
		return
	}

	if _, err := a.store.CreateSkill(r.Context(), req.SkillName); err != nil {
		a.storeError(w, r, "Failed to add skill", err)
		return
	}
	a.contentChanged(cacheKeySkills)
	writeMessage(w, "Skill added!")
}

func (a *App) DeleteSkill(w http.ResponseWriter, r *http.Request) {
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}

	loggerFrom(r.Context()).Info("deleting skill", "id", id)
	if err := a.store.DeleteSkill(r.Context(), id); err != nil {
		a.storeError(w, r, "Failed to delete skill", err)
		return
	}
	a.contentChanged(cacheKeySkills)
	writeMessage(w, "Skill deleted!")
}

func (a *App) GetProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := getCachedData(a.cache, cacheKeyProjects, func() ([]Project, error) {
		return a.store.ListProjects(r.Context())
	})
	if err != nil {
		loggerFrom(r.Context()).Error("Failed to fetch projects", "error", err)
		writeJSON(w, http.StatusInternalServerError, []Project{})
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (a *App) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r.PathValue("id"))
	if !ok {
		return
	}
	project, err := a.store.GetProject(r.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		a.storeError(w, r, "Failed to fetch project", err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

type createProjectForm struct {
	Title       string `validate:"required"`
	Description string
}

func (a *App) CreateProject(w http.ResponseWriter, r *http.Request) {
	if !a.parseMultipart(w, r) {
		return
	}

	form := createProjectForm{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if err := validate.Struct(form); err != nil {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	image, err := a.saveUpload(r, "project_image", "projects")
	if err != nil {
		a.storeError(w, r, "Failed to save project", err)
		return
	}

	project := Project{Title: form.Title, Description: form.Description, ProjectImage: image}
	if _, err := a.store.CreateProject(r.Context(), project); err != nil {
		a.storeError(w, r, "Failed to save project", err)
		return
	}
	a.contentChanged(cacheKeyProjects)
	writeMessage(w, "Project added!")
}

func (a *App) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := requireQueryID(w, r)
	if !ok {
		return
	}

	loggerFrom(r.Context()).Info("deleting project", "id", id)
	if err := a.store.DeleteProject(r.Context(), id); err != nil {
		a.storeError(w, r, "Failed to delete project", err)
		return
	}
	a.contentChanged(cacheKeyProjects)
	writeMessage(w, "Project deleted!")
}

// Auth

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Email and password are required"})
		return
	}

	session, err := a.auth.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password"})
		return
	}
	if err != nil {
		loggerFrom(r.Context()).Error("login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Login failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   session.Token,
		"email":   session.Email,
	})
}

// Me reports the session behind the caller's token.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userId":    claims.UserID,
		"email":     claims.Email,
		"expiresAt": claims.ExpiresAt.Time,
	})
}

func (a *App) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.store.Ping(ctx); err != nil {
		loggerFrom(r.Context()).Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// helpers

func (a *App) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	if r.ContentLength > a.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes)
	if err := r.ParseMultipartForm(a.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return false
	}
	return true
}

// saveUpload stores the file sent in field, if any, and returns its public path.
func (a *App) saveUpload(r *http.Request, field, subdir string) (*string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	p, err := a.uploads.Save(subdir, header.Filename, file)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *App) storeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	loggerFrom(r.Context()).Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func requireQueryID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "ID is required")
		return 0, false
	}
	return parseID(w, raw)
}

func parseID(w http.ResponseWriter, raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return uint(id), true
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// writeSection writes the row, or {} when the section has not been saved yet.
func writeSection[T any](w http.ResponseWriter, row *T) {
	if row == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
