package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/domain/model"
	"github.com/secmon-lab/aligner/pkg/utils/errutil"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
)

// HistoryReader lists recent sync runs, newest first
type HistoryReader interface {
	History(ctx context.Context, limit int) ([]*model.SyncRun, error)
}

// Trigger queues an out-of-schedule sync run
type Trigger interface {
	Trigger() bool
}

const (
	defaultRunsLimit = 10
	maxRunsLimit     = 100
)

type Server struct {
	router             *chi.Mux
	history            HistoryReader
	trigger            Trigger
	slackSigningSecret string
}

type Options func(*Server)

func WithHistory(history HistoryReader) Options {
	return func(s *Server) {
		s.history = history
	}
}

// WithSlackCommand enables the slash command endpoint that triggers a sync run
func WithSlackCommand(trigger Trigger, signingSecret string) Options {
	return func(s *Server) {
		s.trigger = trigger
		s.slackSigningSecret = signingSecret
	}
}

func New(opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.trigger != nil && s.slackSigningSecret == "" {
		return nil, goerr.New("slack signing secret is required for the slash command endpoint")
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	if s.history != nil {
		r.Get("/api/runs", runsHandler(s.history))
	}

	// No auth on /hooks/slack, requests are verified by signature
	if s.trigger != nil {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret))
			r.Post("/command", slackCommandHandler(s.trigger))
		})
	}

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, map[string]string{"status": "ok"})
}

// runsHandler serves recent sync runs as JSON. The limit query parameter is clamped to maxRunsLimit.
func runsHandler(history HistoryReader) http.HandlerFunc {
	type response struct {
		Runs []*model.SyncRun `json:"runs"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit := defaultRunsLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				errutil.HandleHTTP(ctx, w, goerr.New("limit must be a positive integer", goerr.V("limit", v)), http.StatusBadRequest)
				return
			}
			limit = min(n, maxRunsLimit)
		}

		runs, err := history.History(ctx, limit)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to list sync runs"), http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []*model.SyncRun{}
		}

		writeJSON(ctx, w, response{Runs: runs})
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data) //nolint:errcheck // header already committed
}
