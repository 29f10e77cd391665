package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logger "github.com/sirupsen/logrus"

	"weexgateway/src/handler"
	"weexgateway/src/proxy"
)

// Routes holds everything the proxy router serves.
type Routes struct {
	Proxy     http.Handler
	Metrics   *proxy.Metrics
	TokenHash string
	DocsDir   string

	RequestLogs http.HandlerFunc
	OrderLog    http.HandlerFunc
}

func healthcheck(w http.ResponseWriter, _ *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		logger.WithError(err).Error(" \"/health error")
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Not Found", http.StatusNotFound)
}

// NewRouter builds the proxy + docs router.
func NewRouter(routes Routes) http.Handler {
	r := chi.NewRouter()
	// === Global Middleware ===
	r.Use(middleware.Recoverer)
	r.Use(proxy.CORS)

	// Public routes
	r.Get("/healthcheck", healthcheck)
	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics.Handler())
	}

	// Token protected routes
	r.Group(func(r chi.Router) {
		r.Use(proxy.RequireToken(routes.TokenHash))

		r.Get("/capi/*", routes.Proxy.ServeHTTP)
		r.Post("/capi/*", routes.Proxy.ServeHTTP)

		if routes.RequestLogs != nil {
			r.Get("/_proxy/requests", routes.RequestLogs)
		}
		if routes.OrderLog != nil {
			r.Get("/_proxy/orders/{clientOid}", routes.OrderLog)
		}
	})

	r.Get("/*", proxy.Static(routes.DocsDir).ServeHTTP)
	r.Post("/*", notFound)

	return r
}

// NewDocsRouter serves only the documentation files, with CORS.
func NewDocsRouter(docsDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(proxy.CORS)

	r.Get("/healthcheck", healthcheck)
	r.Get("/*", proxy.Static(docsDir).ServeHTTP)
	return r
}

// DefaultRoutes wires the production dependencies.
func DefaultRoutes(cfg proxy.Config, p *proxy.Proxy, metrics *proxy.Metrics, tokenHash string) Routes {
	return Routes{
		Proxy:       p,
		Metrics:     metrics,
		TokenHash:   tokenHash,
		DocsDir:     cfg.DocsDir,
		RequestLogs: handler.DefaultSearchRequestLogsHandler(),
		OrderLog:    handler.DefaultGetOrderLogHandler(),
	}
}

// StartServer serves h on port until SIGINT or SIGTERM, then shuts down gracefully.
func StartServer(port string, h http.Handler) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Serve(ctx, port, h, GetConfig().ShutdownTimeout); err != nil {
		logger.WithError(err).Fatal("Server crashed")
	}
}

// Serve runs the server until ctx is done.
func Serve(ctx context.Context, port string, h http.Handler, shutdownTimeout time.Duration) error {
	// Graceful server
	addr := ":" + port
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown error")
		return err
	}
	return nil
}
