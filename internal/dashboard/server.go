package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/induction/internal/alert"
	"github.com/zulandar/induction/internal/assistant"
	"github.com/zulandar/induction/internal/auth"
	"github.com/zulandar/induction/internal/storage"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the web server.
type StartOpts struct {
	DB       *gorm.DB
	Port     int
	Out      io.Writer
	Codec    *auth.Codec
	Provider auth.IdentityProvider          // defaults to auth.MockProvider
	Store    storage.Store                  // where extracted certificates are kept
	Chat     assistant.ChatResponder        // defaults to assistant.KeywordResponder
	Extract  assistant.CertificateExtractor // defaults to assistant.StaticExtractor
	Alerts   *alert.Dispatcher              // optional
}

// server carries the dependencies shared by every handler.
type server struct {
	db           *gorm.DB
	codec        *auth.Codec
	sessions     *auth.SessionStore
	provider     auth.IdentityProvider
	store        storage.Store
	chat         assistant.ChatResponder
	extract      assistant.CertificateExtractor
	alerts       *alert.Dispatcher
	now          func() time.Time
	pollInterval time.Duration
	heartbeat    time.Duration
}

func newServer(opts StartOpts) (*server, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("dashboard: db is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("dashboard: session codec is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("dashboard: file store is required")
	}
	s := &server{
		db:           opts.DB,
		codec:        opts.Codec,
		sessions:     auth.NewSessionStore(opts.DB),
		provider:     opts.Provider,
		store:        opts.Store,
		chat:         opts.Chat,
		extract:      opts.Extract,
		alerts:       opts.Alerts,
		now:          time.Now,
		pollInterval: 3 * time.Second,
		heartbeat:    15 * time.Second,
	}
	if s.provider == nil {
		s.provider = auth.MockProvider{}
	}
	if s.chat == nil {
		s.chat = assistant.KeywordResponder{}
	}
	if s.extract == nil {
		s.extract = assistant.StaticExtractor{}
	}
	return s, nil
}

// newRouter builds the gin engine with templates and routes installed.
// Extra middleware runs after recovery and before every route.
func newRouter(s *server, middleware ...gin.HandlerFunc) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	registerRoutes(router, s)
	return router, nil
}

// Start launches the web server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	s, err := newServer(opts)
	if err != nil {
		return err
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	var middleware []gin.HandlerFunc
	if opts.Out != nil {
		middleware = append(middleware, gin.LoggerWithWriter(opts.Out, "/health"))
	}
	router, err := newRouter(s, middleware...)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Induction running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
