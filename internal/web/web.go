// Package web exposes the synchronized portal data over HTTP: schedule and
// partner reads, manual refresh, session endpoints and schedule export.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"portalsync/internal/auth"
	"portalsync/internal/config"
	"portalsync/internal/export"
	appLog "portalsync/internal/log"
	"portalsync/internal/model"
	"portalsync/internal/store"
	"portalsync/internal/syncer"
)

// Server provides the HTTP API over the sync coordinator.
type Server struct {
	cfg   *config.Config
	coord *syncer.Coordinator
	st    *store.Store
	auth  *auth.Client
	mux   *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, coord *syncer.Coordinator, st *store.Store, authClient *auth.Client) *Server {
	s := &Server{
		cfg:   cfg,
		coord: coord,
		st:    st,
		auth:  authClient,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Portal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/courses", s.handleCourses)
	s.mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	s.mux.HandleFunc("GET /api/partners", s.handlePartners)
	s.mux.HandleFunc("GET /api/options", s.handleOptions)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/signup", s.handleSignup)
	s.mux.HandleFunc("POST /api/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/session", s.handleSession)
	s.mux.HandleFunc("GET /export/schedule.ics", s.handleExportICS)
	s.mux.HandleFunc("GET /export/schedule.csv", s.handleExportCSV)
	s.mux.HandleFunc("GET /export/schedule.json", s.handleExportJSON)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// courseDTO is the JSON shape of one configured course.
type courseDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Subtitle string `json:"subtitle"`
	Syncing  bool   `json:"syncing"`
}

func (s *Server) handleCourses(w http.ResponseWriter, _ *http.Request) {
	out := make([]courseDTO, 0, len(s.cfg.Courses))
	for _, course := range s.cfg.Courses {
		out = append(out, courseDTO{
			ID:       course.ID,
			Name:     course.Name,
			Subtitle: s.coord.Subtitle(course),
			Syncing:  s.coord.Syncing(syncer.EventsCategory(course.ID)),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// scheduleResponse is the JSON response shape for /api/schedule.
type scheduleResponse struct {
	Course  string                 `json:"course"`
	Records []model.ScheduleRecord `json:"records"`
	Seeded  bool                   `json:"seeded"`
	Syncing bool                   `json:"syncing"`
}

// handleSchedule returns the snapshot for one course immediately and kicks
// a background refresh, so the response never waits on the network.
//
// GET /api/schedule?course=school
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	course, ok := s.courseParam(w, r)
	if !ok {
		return
	}

	records := s.coord.SelectCourse(r.Context(), course)
	seeded := len(records) > 0 && len(records[0].ID) >= 5 && records[0].ID[:5] == "seed-"

	writeJSON(w, http.StatusOK, scheduleResponse{
		Course:  course.ID,
		Records: records,
		Seeded:  seeded,
		Syncing: s.coord.Syncing(syncer.EventsCategory(course.ID)),
	})
}

func (s *Server) handlePartners(w http.ResponseWriter, r *http.Request) {
	entries := s.coord.SelectPartners(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"syncing": s.coord.Syncing(syncer.PartnersCategory),
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.auth.GetOptions(r.Context())
	if err != nil {
		appLog.Error("options fetch failed", err)
		writeError(w, http.StatusBadGateway, "failed to load registration options")
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// handleRefresh runs one synchronous refresh of every category. This is
// the manual-refresh entry point; failed categories simply keep their
// previous snapshot.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	if err := s.coord.RefreshAll(ctx); err != nil {
		// Some categories failed; the ones that succeeded already replaced
		// their snapshots.
		writeJSON(w, http.StatusMultiStatus, map[string]string{
			"status": "partial",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrRejected) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		appLog.Error("login backend call failed", err)
		writeError(w, http.StatusBadGateway, "membership backend unavailable")
		return
	}

	if err := s.st.SaveSession(user); err != nil {
		appLog.Error("session save failed", err)
	}
	writeJSON(w, http.StatusOK, user)
}

// handleSignup forwards the registration form to the membership backend.
// The form is an open set of string fields; validation lives backend-side.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}

	if err := s.auth.Signup(r.Context(), form); err != nil {
		if errors.Is(err, auth.ErrRejected) {
			writeError(w, http.StatusUnprocessableEntity, "signup rejected")
			return
		}
		appLog.Error("signup backend call failed", err)
		writeError(w, http.StatusBadGateway, "membership backend unavailable")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

// handleLogout drops the session and every cached snapshot, mirroring a
// full portal sign-out.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	if err := s.st.Clear(); err != nil {
		appLog.Error("logout clear failed", err)
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	user, found, err := s.st.Session()
	if err != nil {
		appLog.Error("session read failed", err)
		writeError(w, http.StatusInternalServerError, "failed to read session")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	course, records, ok := s.exportRecords(w, r)
	if !ok {
		return
	}
	withAlarms := r.URL.Query().Get("alarms") != "false"
	export.WriteICS(w, course.Name, records, withAlarms)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	course, records, ok := s.exportRecords(w, r)
	if !ok {
		return
	}
	export.WriteCSV(w, course.Name, records)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	course, records, ok := s.exportRecords(w, r)
	if !ok {
		return
	}
	export.WriteJSON(w, course.Name, records)
}

// exportRecords resolves the course and reads its snapshot. Export never
// triggers a sync; it serves exactly what the portal shows.
func (s *Server) exportRecords(w http.ResponseWriter, r *http.Request) (config.CourseConfig, []model.ScheduleRecord, bool) {
	course, ok := s.courseParam(w, r)
	if !ok {
		return config.CourseConfig{}, nil, false
	}

	var records []model.ScheduleRecord
	found, err := s.st.Snapshot(syncer.EventsCategory(course.ID), &records)
	if err != nil {
		appLog.Error("snapshot read failed", err, "course", course.ID)
		writeError(w, http.StatusInternalServerError, "failed to read schedule")
		return config.CourseConfig{}, nil, false
	}
	if !found {
		writeError(w, http.StatusNotFound, "course has never synced")
		return config.CourseConfig{}, nil, false
	}
	return course, records, true
}

func (s *Server) courseParam(w http.ResponseWriter, r *http.Request) (config.CourseConfig, bool) {
	id := r.URL.Query().Get("course")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing course parameter")
		return config.CourseConfig{}, false
	}
	course, ok := s.cfg.Course(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown course")
		return config.CourseConfig{}, false
	}
	return course, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
