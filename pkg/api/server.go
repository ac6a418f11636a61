// Package api serves the read-only dashboard endpoints consumed by the web
// dashboard, plus prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AndehUK/exult-bot/pkg/log"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exultbot_api_requests_total",
		Help: "Dashboard API requests by method, path and status.",
	}, []string{"method", "path", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "exultbot_api_request_duration_seconds",
		Help:    "Dashboard API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Stats summarizes the bot's gateway footprint.
type Stats struct {
	Guilds      int
	TotalUsers  int
	UniqueUsers int
}

// User is the minimal user shape the dashboard needs.
type User struct {
	Username   string  `json:"username"`
	ID         string  `json:"id"`
	Avatar     string  `json:"avatar"`
	GlobalName *string `json:"global_name"`
}

// Category identifies a channel's parent category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Channel is the minimal channel shape the dashboard needs.
type Channel struct {
	Category *Category `json:"category"`
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     int       `json:"type"`
}

// Guild is the minimal guild shape the dashboard needs.
type Guild struct {
	Channels    []Channel `json:"channels"`
	Emojis      []string  `json:"emojis"`
	Icon        *string   `json:"icon"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerID     string    `json:"owner_id"`
	PremiumTier int       `json:"premium_tier"`
	Roles       []string  `json:"roles"`
	Unavailable bool      `json:"unavailable"`
}

// BotState exposes the gateway-derived state the handlers read. It is an
// interface so handlers can be tested without a live session.
type BotState interface {
	Stats() Stats
	User(id string) (User, bool)
	MutualGuilds(userID string) []Guild
}

// Server is the dashboard HTTP server.
type Server struct {
	addr  string
	state BotState
	srv   *http.Server
}

// NewServer creates a dashboard server listening on addr.
func NewServer(addr string, state BotState) *Server {
	s := &Server{addr: addr, state: state}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router returns the configured handler, mainly for tests.
func (s *Server) Router() http.Handler { return s.srv.Handler }

func (s *Server) router() chi.Router {
	r := chi.NewRouter()

	r.Use(metricsMiddleware)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/users/{id}", s.handleUser)
	r.Get("/users/{id}/guilds", s.handleUserGuilds)

	return r
}

// Start serves in the background until Stop is called.
func (s *Server) Start() {
	go func() {
		log.API().Info("dashboard api listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.API().Error("dashboard api server failed", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.state.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"guilds": stats.Guilds,
		"users": map[string]int{
			"total":  stats.TotalUsers,
			"unique": stats.UniqueUsers,
		},
	})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.state.User(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found."})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUserGuilds(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, ok := s.state.User(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found."})
		return
	}
	guilds := s.state.MutualGuilds(id)
	if guilds == nil {
		guilds = []Guild{}
	}
	writeJSON(w, http.StatusOK, struct {
		User
		Guilds []Guild `json:"guilds"`
	}{User: user, Guilds: guilds})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.API().Warn("failed to encode response", "error", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			log.API().Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"latency", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := normalizePath(r.URL.Path)
		apiRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		apiRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses user IDs so metric labels stay low cardinality.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/users/") && len(path) > len("/users/") {
		if strings.HasSuffix(path, "/guilds") {
			return "/users/:id/guilds"
		}
		return "/users/:id"
	}
	return path
}
