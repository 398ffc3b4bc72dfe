// Package api serves stored runs and their aggregates over a read-only JSON
// HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/dshills/psyche/internal/aggregate"
	"github.com/dshills/psyche/internal/cache"
	"github.com/dshills/psyche/internal/render"
	"github.com/dshills/psyche/internal/store"
)

// RunStore is the read side of store.Store.
type RunStore interface {
	Get(ctx context.Context, id string) (store.Run, error)
	List(ctx context.Context, limit int) ([]store.Run, error)
	ListByModel(ctx context.Context, model string, limit int) ([]store.Run, error)
	Models(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// Server holds the API dependencies.
type Server struct {
	runs    RunStore
	cache   *cache.Leaderboard // nil disables caching
	log     zerolog.Logger
	origins []string
	now     func() time.Time
}

// NewServer returns a Server. A nil cache disables leaderboard caching; an
// empty origins list allows any origin.
func NewServer(runs RunStore, c *cache.Leaderboard, logger zerolog.Logger, origins []string) *Server {
	return &Server{runs: runs, cache: c, log: logger, origins: origins, now: time.Now}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.healthz)
	r.Route("/api", func(ar chi.Router) {
		ar.Get("/runs", s.listRuns)
		ar.Get("/runs/{id}", s.getRun)
		ar.Get("/leaderboard", s.leaderboard)
		ar.Get("/models", s.listModels)
		// Model ids contain slashes ("openai/gpt-4o"), so the rest of the
		// path is the model name.
		ar.Get("/models/*", s.modelProfile)
	})
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.runs.Ping(r.Context()); err != nil {
		writeErr(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query())
	var (
		runs []store.Run
		err  error
	)
	if model := strings.TrimSpace(r.URL.Query().Get("model")); model != "" {
		runs, err = s.runs.ListByModel(r.Context(), model, limit)
	} else {
		runs, err = s.runs.List(r.Context(), limit)
	}
	if err != nil {
		s.internal(w, "list runs", err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeErr(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.internal(w, "get run", err)
		return
	}
	if wantsMarkdown(r) {
		writeMarkdown(w, render.RenderMarkdown(run.Profile))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("leaderboard cache read failed")
	}
	if !ok {
		runs, err := s.runs.List(ctx, store.DefaultLimit)
		if err != nil {
			s.internal(w, "list runs", err)
			return
		}
		entries = aggregate.Leaderboard(store.Profiles(runs))
		if err := s.cache.Set(ctx, entries); err != nil {
			s.log.Warn().Err(err).Msg("leaderboard cache write failed")
		}
	}
	if wantsMarkdown(r) {
		writeMarkdown(w, render.RenderLeaderboardMarkdown(entries))
		return
	}
	if entries == nil {
		entries = []aggregate.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.runs.Models(r.Context())
	if err != nil {
		s.internal(w, "list models", err)
		return
	}
	if models == nil {
		models = []string{}
	}
	writeJSON(w, http.StatusOK, models)
}

func (s *Server) modelProfile(w http.ResponseWriter, r *http.Request) {
	model, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || strings.TrimSpace(model) == "" {
		writeErr(w, http.StatusBadRequest, "model required")
		return
	}
	ctx := r.Context()
	summary, ok, err := s.cache.GetModel(ctx, model)
	if err != nil {
		s.log.Warn().Err(err).Str("model", model).Msg("model cache read failed")
	}
	if !ok {
		runs, err := s.runs.ListByModel(ctx, model, store.DefaultLimit)
		if err != nil {
			s.internal(w, "list model runs", err)
			return
		}
		summary = aggregate.ModelSummary(model, store.Profiles(runs), s.now())
		if summary == nil {
			writeErr(w, http.StatusNotFound, "no runs for model")
			return
		}
		if err := s.cache.SetModel(ctx, model, summary); err != nil {
			s.log.Warn().Err(err).Str("model", model).Msg("model cache write failed")
		}
	}
	if wantsMarkdown(r) {
		writeMarkdown(w, render.RenderMarkdown(summary))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) internal(w http.ResponseWriter, op string, err error) {
	s.log.Error().Err(err).Str("op", op).Msg("request failed")
	writeErr(w, http.StatusInternalServerError, "internal error")
}

func parseLimit(q url.Values) int {
	limit := store.DefaultLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= store.DefaultLimit {
			limit = n
		}
	}
	return limit
}

func wantsMarkdown(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "md", "markdown":
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/markdown")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errResp struct {
	Error string `json:"error"`
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}

func writeMarkdown(w http.ResponseWriter, md string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(md))
}
