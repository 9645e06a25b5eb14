package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"agentbook/internal/agent"
	"agentbook/internal/config"
	appLog "agentbook/internal/log"
	"agentbook/internal/model"
	"agentbook/internal/reminder"
	"agentbook/internal/store"
)

// Server exposes the status/management HTTP API: collections, activity
// trail, settings and a manual reminder-check trigger.
type Server struct {
	cfg       *config.Config
	contacts  *store.ContactStore
	meetings  *store.MeetingStore
	activity  *store.ActivityLog
	settings  *store.SettingsStore
	scheduler *reminder.Scheduler
	agent     *agent.Service
	loc       *time.Location
	mux       *http.ServeMux
}

// NewServer constructs a new Server around the daemon's collaborators.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:       cfg,
		contacts:  deps.Contacts,
		meetings:  deps.Meetings,
		activity:  deps.Activity,
		settings:  deps.Settings,
		scheduler: deps.Scheduler,
		agent:     deps.Agent,
		loc:       deps.Location,
		mux:       http.NewServeMux(),
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	s.registerRoutes()
	return s
}

// Deps bundles the collaborators the server serves.
type Deps struct {
	Contacts  *store.ContactStore
	Meetings  *store.MeetingStore
	Activity  *store.ActivityLog
	Settings  *store.SettingsStore
	Scheduler *reminder.Scheduler
	Agent     *agent.Service
	Location  *time.Location
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

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password is treated as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="agentbook", charset="UTF-8"`)
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

// StartServer starts an HTTP server bound to cfg.Listen and blocks until
// ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, deps Deps) error {
	s := NewServer(cfg, deps)
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)

	s.mux.HandleFunc("GET /api/contacts", s.handleContactsList)
	s.mux.HandleFunc("DELETE /api/contacts/{id}", s.handleContactDelete)
	s.mux.HandleFunc("POST /api/invite", s.handleInvite)

	s.mux.HandleFunc("GET /api/meetings", s.handleMeetingsList)
	s.mux.HandleFunc("POST /api/meetings", s.handleMeetingCreate)
	s.mux.HandleFunc("PATCH /api/meetings/{id}", s.handleMeetingUpdate)
	s.mux.HandleFunc("DELETE /api/meetings/{id}", s.handleMeetingDelete)
	s.mux.HandleFunc("POST /api/meetings/{id}/reminder", s.handleManualReminder)

	s.mux.HandleFunc("GET /api/activity", s.handleActivityList)
	s.mux.HandleFunc("DELETE /api/activity", s.handleActivityClear)

	s.mux.HandleFunc("GET /api/settings", s.handleSettingsGet)
	s.mux.HandleFunc("PUT /api/settings", s.handleSettingsPut)

	s.mux.HandleFunc("POST /api/check", s.handleCheck)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// statusResponse is the JSON shape of /api/status: the dashboard counts
// plus the reminder service state.
type statusResponse struct {
	Contacts      int                 `json:"contacts"`
	Meetings      int                 `json:"meetings"`
	AutoReminders bool                `json:"autoReminders"`
	CheckRunning  bool                `json:"checkRunning"`
	LastRun       *reminder.RunResult `json:"lastRun,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Contacts:      s.contacts.Count(),
		Meetings:      s.meetings.Count(),
		AutoReminders: s.settings.Load().AutoReminders,
		CheckRunning:  s.scheduler.Running(),
	}
	if last, ok := s.scheduler.LastRun(); ok {
		resp.LastRun = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContactsList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.contacts.List())
}

func (s *Server) handleContactDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.contacts.Delete(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	var c model.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid contact payload")
		return
	}
	res, err := s.agent.SendInvitation(r.Context(), c)
	if err != nil {
		if errors.Is(err, agent.ErrMissingContactFields) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		appLog.Error("invitation failed", err)
		writeError(w, http.StatusBadGateway, "invitation failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleMeetingsList(w http.ResponseWriter, r *http.Request) {
	if date := r.URL.Query().Get("date"); date != "" {
		writeJSON(w, http.StatusOK, s.meetings.ListOn(date))
		return
	}
	writeJSON(w, http.StatusOK, s.meetings.List())
}

func (s *Server) handleMeetingCreate(w http.ResponseWriter, r *http.Request) {
	var m model.Meeting
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid meeting payload")
		return
	}
	created, err := s.meetings.Create(m)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleMeetingUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.MeetingPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid patch payload")
		return
	}
	updated, err := s.meetings.Update(r.PathValue("id"), patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleMeetingDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.meetings.Delete(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleManualReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.SendManualReminder(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "meeting not found")
			return
		}
		appLog.Error("manual reminder failed", err, "meeting_id", r.PathValue("id"))
		writeError(w, http.StatusBadGateway, "reminder dispatch failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivityList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.activity.List(limit))
}

// handleActivityClear wipes the activity trail. The confirmation prompt
// belongs to whatever UI calls this.
func (s *Server) handleActivityClear(w http.ResponseWriter, _ *http.Request) {
	if err := s.activity.Clear(); err != nil {
		appLog.Error("activity clear failed", err)
		writeError(w, http.StatusInternalServerError, "failed to clear activity log")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Load())
}

func (s *Server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}
	if err := s.settings.Save(settings); err != nil {
		if errors.Is(err, model.ErrInvalidWindow) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		appLog.Error("settings save failed", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleCheck triggers a reminder check immediately. Overlap with the
// cron-driven check collapses to skipped=already_running.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	res := s.scheduler.RunCheck(r.Context(), time.Now())
	writeJSON(w, http.StatusOK, res)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	appLog.Error("store operation failed", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to encode JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
