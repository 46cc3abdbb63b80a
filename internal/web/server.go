package web

import (
	"context"
	"embed"
	stderrors "errors"
	"io/fs"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/logging"
	"github.com/hpungsan/gallerist/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Options configures the admin console.
type Options struct {
	Version  string
	SiteName string

	// Metrics, when set, is served at /metrics.
	Metrics http.Handler

	// Quit, when set, is closed by POST /api/quit.
	Quit chan struct{}
}

// NewRouter builds the admin console routes over svc.
func NewRouter(svc *ops.Service, opts Options) http.Handler {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	renderer := NewRenderer(templateSub, opts.Version, opts.SiteName)
	h := &Handlers{svc: svc, renderer: renderer, quit: opts.Quit}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(recoverer(renderer))
	r.Use(securityHeaders)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		renderer.renderError(w, req, errors.NewNotFound(req.URL.Path))
	})

	r.Get("/", h.HandleConsole)
	r.Get("/manifest", h.HandleManifest)
	r.Get("/history", h.HandleHistoryPage)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticSub)))
	r.Handle("/preview/*", previewHandler(svc.Store().Root()))
	r.Get("/preview", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/preview/", http.StatusFound)
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/content", h.HandleGetContent)
		r.Post("/content", h.HandleSaveContent)
		r.Post("/upload/{page}", h.HandleUpload)
		r.Post("/photo/{page}", h.HandleAddPhoto)
		r.Delete("/photo/{page}/{filename}", h.HandleDeletePhoto)
		r.Patch("/photo/{page}/{filename}", h.HandleUpdatePhoto)
		r.Post("/rotate/{page}/{filename}", h.HandleRotate)
		r.Post("/page", h.HandleCreatePage)
		r.Delete("/page/{id}", h.HandleDeletePage)
		r.Patch("/page/{id}", h.HandleRenamePage)
		r.Post("/reorder", h.HandleReorder)
		r.Get("/home", h.HandleGetHome)
		r.Post("/home", h.HandleSetHome)
		r.Get("/settings", h.HandleGetSettings)
		r.Post("/settings", h.HandleSaveSettings)
		r.Post("/push", h.HandlePush)
		r.Get("/history", h.HandleHistory)
		r.Post("/regenerate", h.HandleRegenerate)
		r.Get("/check", h.HandleCheck)
		r.Post("/quit", h.HandleQuit)
	})

	return r
}

// NewServer creates the HTTP server for the admin console.
func NewServer(svc *ops.Service, addr string, opts Options) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(svc, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and shuts it down gracefully on SIGINT/SIGTERM,
// when ctx is done, or when quit is closed.
func Run(ctx context.Context, srv *http.Server, quit <-chan struct{}) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := logging.FromContext(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info().Str("addr", "http://"+srv.Addr).Msg("admin console running")
	logger.Info().Str("addr", "http://"+srv.Addr+"/preview/").Msg("gallery preview")
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "[::]") || strings.HasPrefix(srv.Addr, ":") {
		logger.Warn().Msg("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case <-quit:
		logger.Info().Msg("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
