package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/boxdrop/service/internal/collection"
	"github.com/boxdrop/service/internal/credential"
	"github.com/boxdrop/service/internal/events"
	appMiddleware "github.com/boxdrop/service/internal/middleware"
	"github.com/boxdrop/service/internal/storage"
	"github.com/boxdrop/service/internal/upload"

	_ "github.com/boxdrop/service/docs/swagger"
)

type routerConfig struct {
	AppOrigin        string
	JWTSecret        string
	UploadGateSecret string
}

type handlers struct {
	credential *credential.Handler
	storage    *storage.Handler
	collection *collection.Handler
	feed       *events.Handler
	upload     *upload.Handler
}

func newRouter(cfg routerConfig, h handlers, ping func(context.Context) error, zl *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(zl))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AppOrigin},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", appMiddleware.UploadSecretHeader},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := ping(r.Context()); err != nil {
			zl.Warn("health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI at /swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Owner endpoints
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireOwner(cfg.JWTSecret))

			r.Route("/provider", func(r chi.Router) {
				r.Post("/connect", h.credential.Connect)
				r.Delete("/connect", h.credential.Disconnect)
				r.Get("/token", h.credential.Token)
				r.Get("/profile", h.storage.Profile)
			})

			r.Route("/collections", func(r chi.Router) {
				r.Post("/", h.collection.Create)
				r.Get("/", h.collection.List)
				r.Get("/events", h.feed.Stream)
				r.Get("/{id}", h.collection.Get)
				r.Delete("/{id}", h.collection.Delete)
				r.Get("/{id}/files", h.collection.Files)
				r.Get("/{id}/files/{fileId}/content", h.collection.FileContent)
			})
		})

		// Anonymous uploader endpoints
		r.Route("/public/boxes/{code}", func(r chi.Router) {
			r.Use(appMiddleware.UploadGate(cfg.UploadGateSecret))
			r.Get("/", h.upload.Resolve)
			r.Post("/files", h.upload.Upload)
		})
	})

	return r
}
