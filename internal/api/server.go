package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/generate"
	"github.com/dgallion1/docqa/internal/pipeline"
)

// Answerer answers a question set against one document.
type Answerer interface {
	Answer(ctx context.Context, text string, questions []string) []string
	AnswerSource(ctx context.Context, load pipeline.Loader, questions []string) ([]string, error)
}

// Server is the HTTP API server for docqa.
type Server struct {
	router   chi.Router
	answerer Answerer
	stats    *generate.LLMStats
	model    string
	log      *zap.Logger
	cfg      config.ServerConfig
}

// NewServer creates and configures the HTTP server. stats may be nil, in
// which case the stats endpoint reports unavailable.
func NewServer(a Answerer, stats *generate.LLMStats, model string, log *zap.Logger, cfg config.ServerConfig) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		answerer: a,
		stats:    stats,
		model:    model,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/api/stats/llm", s.handleLLMStats)

	r.Group(func(r chi.Router) {
		if s.cfg.RequestTimeoutSecs > 0 {
			r.Use(middleware.Timeout(time.Duration(s.cfg.RequestTimeoutSecs) * time.Second))
		}
		r.Post("/api/v1/hackrx/run", s.handleRun)
		r.Post("/api/v1/answer/upload", s.handleUpload)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
