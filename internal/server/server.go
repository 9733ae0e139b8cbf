// Package server exposes the planner, shopping list and recipe library over
// HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meal-planner/internal/logger"
	"meal-planner/internal/metrics"
	"meal-planner/internal/storage"
)

const maxBodyBytes = 1 << 20

// Deps are the services behind the routes. Extractor may be nil when no
// model is configured.
type Deps struct {
	Plans     PlanService
	Shopping  ShoppingService
	Recipes   RecipeService
	Extractor Extractor
	Docs      storage.Store
	DataDir   string
	Now       func() time.Time
}

type Server struct {
	httpServer *http.Server
}

// NewServer creates a new Server instance
func NewServer(port int, deps Deps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           NewRouter(deps),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// NewRouter builds the route tree.
func NewRouter(deps Deps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestSizeLimit(maxBodyBytes))
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", HandleHealthz(deps.DataDir))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/plan", func(r chi.Router) {
			r.Get("/", HandleGetPlan(deps.Plans))
			r.Post("/generate", HandleGeneratePlan(deps.Plans, deps.Now))
			r.Post("/assign", HandleAssign(deps.Plans))
			r.Post("/clear", HandleClear(deps.Plans))
			r.Post("/toggle-lock", HandleToggleLock(deps.Plans))
			r.Post("/lock-all", HandleSetAllLocked(deps.Plans, true))
			r.Post("/unlock-all", HandleSetAllLocked(deps.Plans, false))
			r.Get("/today", HandleToday(deps.Plans))
		})
		r.Get("/history", HandleHistory(deps.Plans))

		r.Route("/shopping", func(r chi.Router) {
			r.Get("/", HandleShoppingList(deps.Shopping))
			r.Post("/add", HandleAddItem(deps.Shopping))
			r.Post("/update", HandleUpdateItem(deps.Shopping))
			r.Post("/remove", HandleRemoveItem(deps.Shopping))
			r.Post("/manual", HandleAddManualItem(deps.Shopping))
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", HandleListRecipes(deps.Recipes))
			r.Post("/", HandleCreateRecipe(deps.Recipes))
			r.Post("/import", HandleImportRecipes(deps.Recipes))
			r.Post("/extract", HandleExtractRecipe(deps.Extractor, deps.Recipes))
			r.Get("/{id}", HandleGetRecipe(deps.Recipes))
			r.Put("/{id}", HandleUpdateRecipe(deps.Recipes))
		})

		r.Get("/config", HandleGetConfig(deps.Docs))
		r.Put("/config", HandleUpdateConfig(deps.Docs))
	})

	return r
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving until the server is shut down.
func (s *Server) Start() error {
	logger.FromContext(context.Background()).Info("Starting server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/healthz") || strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ctx := logger.WithRequestID(r.Context(), logger.GenerateRequestID())
		r = r.WithContext(ctx)
		log := logger.FromContext(ctx)
		log.Debug("Request started", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
