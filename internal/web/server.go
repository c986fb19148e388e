// Package web serves the annotation shell on localhost: a single HTML
// page plus a small JSON API the page drives. All state lives in the
// annotate.Controller; the server is a thin transport over it.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/papermark/internal/annotate"
	"github.com/roach88/papermark/internal/review"
	"github.com/roach88/papermark/internal/schema"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server hosts the annotation UI for a single reviewer. Not safe for
// concurrent reviewers; requests are serialized through a mutex in the
// handlers because the controller is single-owner.
type Server struct {
	ctrl      *annotate.Controller
	questions *schema.Questionnaire
	sanity    []review.SanityRule
	log       *slog.Logger
	engine    *gin.Engine

	// mu serializes controller access; the controller is single-owner
	// and the browser may overlap autosave and navigation requests.
	mu sync.Mutex

	quit     chan struct{}
	quitOnce sync.Once
}

// NewServer builds the router around a started controller. sanity may
// be nil when no rule file is configured.
func NewServer(ctrl *annotate.Controller, questions *schema.Questionnaire, sanity []review.SanityRule, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		ctrl:      ctrl,
		questions: questions,
		sanity:    sanity,
		log:       log,
		engine:    engine,
		quit:      make(chan struct{}),
	}

	tmpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
	engine.SetHTMLTemplate(tmpl)

	engine.GET("/", s.handleIndex)

	api := engine.Group("/api")
	{
		api.GET("/state", s.handleState)
		api.PUT("/answers/:questionID", s.handleSetAnswer)
		api.POST("/finish", s.handleFinish)
		api.POST("/export", s.handleExport)
		api.POST("/quit", s.handleQuit)
	}

	return s
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Run serves on the given port until ctx is cancelled, then shuts down
// gracefully and flushes the reviewer's state via Exit. Binds loopback
// only; the tool is single-user and local.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("listening", "addr", srv.Addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	case <-s.quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("shutdown not clean", "error", err)
	}

	if err := s.ctrl.Exit(); err != nil {
		return fmt.Errorf("flush state on exit: %w", err)
	}
	s.log.Info("state flushed, goodbye")
	return nil
}
