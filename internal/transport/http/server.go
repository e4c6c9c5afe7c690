package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	authDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/domain"
	notificationService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/notification/service"
	reaperDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/reaper/domain"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
)

// Deps are the read-only views the server reports on. Nil members are
// omitted from /status.
type Deps struct {
	Auth interface {
		Status() authDomain.Status
	}
	Dedup interface {
		Len() int
	}
	Filter interface {
		Stats() map[string]int64
	}
	Notifications interface {
		Stats() notificationService.Stats
	}
	Reaper interface {
		Last() (reaperDomain.Report, bool)
	}
	Feed interface {
		GenerateFeed(baseURL string) *feeds.Feed
	}
}

// Server exposes health, status and the notification feed over HTTP
type Server struct {
	cfg     *config.Config
	deps    Deps
	logger  *slog.Logger
	started time.Time
	server  *http.Server
}

type statusResponse struct {
	Status        string                     `json:"status"`
	Uptime        string                     `json:"uptime"`
	Auth          *authDomain.Status         `json:"auth,omitempty"`
	DedupEntries  *int                       `json:"dedup_entries,omitempty"`
	Filter        map[string]int64           `json:"filter,omitempty"`
	Notifications *notificationService.Stats `json:"notifications,omitempty"`
	Reaper        *reaperDomain.Report       `json:"reaper,omitempty"`
}

// New creates a new HTTP server
func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  slog.Default(),
		started: time.Now(),
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.server.Handler = s.Handler()
	return s
}

// SetLogger sets the logger. Call it before Start.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
	s.server.Handler = s.Handler()
}

// Handler returns the routed handler with access logging and recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /feed", s.handleFeed)

	handler := sloghttp.Recovery(mux)
	return sloghttp.New(s.logger)(handler)
}

// Start starts the HTTP server. It returns http.ErrServerClosed after
// Shutdown, including when Shutdown ran first.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	if s.deps.Auth != nil {
		status := s.deps.Auth.Status()
		resp.Auth = &status
		if status.State != authDomain.StateAuthenticated {
			resp.Status = "degraded"
		}
	}
	if s.deps.Dedup != nil {
		n := s.deps.Dedup.Len()
		resp.DedupEntries = &n
	}
	if s.deps.Filter != nil {
		resp.Filter = s.deps.Filter.Stats()
	}
	if s.deps.Notifications != nil {
		stats := s.deps.Notifications.Stats()
		resp.Notifications = &stats
	}
	if s.deps.Reaper != nil {
		if report, ok := s.deps.Reaper.Last(); ok {
			resp.Reaper = &report
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Error encoding status", "error", err)
	}
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if s.deps.Feed == nil {
		http.Error(w, "Feed is not enabled", http.StatusNotFound)
		return
	}

	// Get base URL from request
	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)

	rss, err := s.deps.Feed.GenerateFeed(baseURL).ToRss()
	if err != nil {
		s.logger.Error("Error converting feed to RSS", "error", err)
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
