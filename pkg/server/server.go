// Package server exposes the review service over a JSON HTTP API and
// receives GitHub and GitLab webhooks.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fumiya-kume/cra/pkg/cache"
	"github.com/fumiya-kume/cra/pkg/clock"
	"github.com/fumiya-kume/cra/pkg/config"
	"github.com/fumiya-kume/cra/pkg/llm"
	"github.com/fumiya-kume/cra/pkg/logger"
	"github.com/fumiya-kume/cra/pkg/review"
	"github.com/fumiya-kume/cra/pkg/storage"
)

const maxBody = 5 << 20

// Reviews is the review service as seen by the handlers
type Reviews interface {
	ReviewSnippet(ctx context.Context, req review.SnippetRequest) (*review.SnippetResponse, error)
	AnalyzeFile(ctx context.Context, req review.FileRequest) (*review.FileAnalysis, error)
	ReviewPullRequest(ctx context.Context, req review.PRRequest) (*review.PRReviewResult, error)
	GetReview(ctx context.Context, id string) (*storage.CodeReview, error)
}

var _ Reviews = (*review.Service)(nil)

// Migrator plans framework and version migrations
type Migrator interface {
	SuggestMigration(ctx context.Context, code, source, target, language string) (*llm.MigrationPlan, error)
}

var _ Migrator = (*llm.Reviewer)(nil)

// Options configures the server
type Options struct {
	Addr            string
	APIPrefix       string
	Environment     string
	Version         string
	LLMProvider     string
	RateLimit       float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
	// Debug exposes internal error messages in 500 responses
	Debug bool

	GitHubWebhookSecret string
	GitLabWebhookToken  string
	// AutoComment is passed to reviews started by webhooks
	AutoComment bool
}

// OptionsFromConfig reads the server, github, gitlab and review sections
func OptionsFromConfig(cfg *config.Config, version string) Options {
	return Options{
		Addr:                cfg.Server.Addr,
		APIPrefix:           cfg.Server.APIPrefix,
		Environment:         cfg.Server.Environment,
		Version:             version,
		LLMProvider:         cfg.LLM.Provider,
		RateLimit:           cfg.Server.RateLimit,
		RateLimitBurst:      cfg.Server.RateLimitBurst,
		ShutdownTimeout:     cfg.Server.ShutdownTimeout,
		Debug:               cfg.Logging.Level == "debug",
		GitHubWebhookSecret: cfg.GitHub.WebhookSecret,
		GitLabWebhookToken:  cfg.GitLab.WebhookToken,
		AutoComment:         cfg.Review.PostComments,
	}
}

// Dependencies are the collaborators of the server. Reviews is required;
// a nil Store disables the repository endpoints and a nil Cache reports
// redis as down.
type Dependencies struct {
	Reviews  Reviews
	Migrator Migrator
	Store    storage.Store
	Cache    cache.Cache
	Clock    clock.Clock
}

// Server is the HTTP API
type Server struct {
	options  Options
	deps     Dependencies
	clock    clock.Clock
	metrics  *Metrics
	limiter  *RateLimiter
	handler  http.Handler
	logger   *logger.Logger
	http     *http.Server
	httpOnce sync.Once

	// background holds asynchronous reviews started by webhooks
	background sync.WaitGroup
	baseCtx    context.Context
	cancel     context.CancelFunc
}

// New builds the server and its routes
func New(opts Options, deps Dependencies, log *logger.Logger) *Server {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewRealClock()
	}
	if opts.Addr == "" {
		opts.Addr = ":8000"
	}
	opts.APIPrefix = "/" + strings.Trim(opts.APIPrefix, "/")
	if opts.APIPrefix == "/" {
		opts.APIPrefix = "/api/v1"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		options: opts,
		deps:    deps,
		clock:   deps.Clock,
		metrics: NewMetrics(),
		logger:  log.WithPrefix("server"),
		baseCtx: baseCtx,
		cancel:  cancel,
	}

	var handler http.Handler = withMetrics(s.metrics, s.clock, s.routes())
	if opts.RateLimit > 0 {
		s.limiter = NewRateLimiter(opts.RateLimit, opts.RateLimitBurst, s.clock)
		handler = s.limiter.Middleware(s.logger, handler)
	}
	handler = withAccessLog(s.logger, s.clock, handler)
	s.handler = withRequestID(handler)
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	p := s.options.APIPrefix

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("POST "+p+"/reviews/snippet", s.handleReviewSnippet)
	mux.HandleFunc("POST "+p+"/reviews/analyze", s.handleAnalyzeFile)
	mux.HandleFunc("POST "+p+"/reviews/pr", s.handleReviewPR)
	mux.HandleFunc("GET "+p+"/reviews/{id}", s.handleGetReview)

	mux.HandleFunc("POST "+p+"/repositories", s.handleCreateRepository)
	mux.HandleFunc("GET "+p+"/repositories", s.handleListRepositories)
	mux.HandleFunc("GET "+p+"/repositories/{id}", s.handleGetRepository)

	mux.HandleFunc("POST "+p+"/migrations/migrate", s.handleMigrate)

	mux.HandleFunc("POST /webhooks/github", s.handleGitHubWebhook)
	mux.HandleFunc("POST /webhooks/gitlab", s.handleGitLabWebhook)
	mux.HandleFunc("POST "+p+"/webhooks/github", s.handleGitHubWebhook)
	mux.HandleFunc("POST "+p+"/webhooks/gitlab", s.handleGitLabWebhook)
	return mux
}

// Handler is the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics exposes the Prometheus collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) httpServer() *http.Server {
	s.httpOnce.Do(func() {
		s.http = &http.Server{
			Addr:              s.options.Addr,
			Handler:           s.handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      5 * time.Minute,
			IdleTimeout:       60 * time.Second,
		}
	})
	return s.http
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := s.httpServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	s.logger.Info("API listening on %s (prefix: %s)", l.Addr(), s.options.APIPrefix)

	select {
	case err := <-errCh:
		s.stopBackground()
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// ListenAndServe listens on the configured address and calls Serve
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.options.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Shutdown stops accepting requests, waits for in-flight ones and then for
// webhook reviews, which are cancelled when ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	err := s.httpServer().Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("cancelling unfinished webhook reviews")
		s.cancel()
		<-done
	}
	s.cancel()
	return err
}

func (s *Server) stopBackground() {
	s.cancel()
	s.background.Wait()
}

// dispatch runs fn in the background, tracked for shutdown
func (s *Server) dispatch(name string, fn func(ctx context.Context) error) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if err := fn(s.baseCtx); err != nil {
			s.logger.Error("%s failed: %v", name, err)
		}
	}()
}

// Wait blocks until background work has finished; used by tests
func (s *Server) Wait() {
	s.background.Wait()
}
