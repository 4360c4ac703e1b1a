package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Router collects the handlers served under /api.
type Router struct {
	Import         *ImportHandler
	Profiles       *ProfileHandler
	Tags           *TagHandler
	Batches        *BatchHandler
	Previews       *ImagePreviewHandler
	Events         http.HandlerFunc
	Metrics        http.Handler
	AllowedOrigins []string
}

// Handler builds the chi router with logging, recovery and CORS.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   rt.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.Timeout(10*time.Minute)).Post("/import", rt.Import.ImportFolder)

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", rt.Profiles.ListProfiles)
			r.Route("/{username}", func(r chi.Router) {
				r.Get("/images", rt.Profiles.ListProfileImages)
				r.Post("/rename", rt.Profiles.RenameProfile)
			})
		})

		r.Route("/images/{image_id}", func(r chi.Router) {
			r.Get("/tags", rt.Tags.GetTags)
			r.Put("/tags", rt.Tags.SetTags)
			r.With(middleware.Timeout(5*time.Minute)).Post("/autotag", rt.Tags.AutoTag)
			if rt.Previews != nil {
				r.Get("/preview", rt.Previews.ServePreview)
			}
		})

		r.Route("/tagging/batches", func(r chi.Router) {
			r.Post("/", rt.Batches.StartBatch)
			r.Get("/{batch_id}", rt.Batches.GetBatch)
		})
		if rt.Events != nil {
			r.Get("/tagging/events", rt.Events)
		}

		r.Get("/tags/vocabulary", rt.Tags.GetVocabulary)
		r.Get("/stats", rt.Profiles.GetStats)
	})

	if rt.Metrics != nil {
		r.Handle("/metrics", rt.Metrics)
	}
	return r
}
