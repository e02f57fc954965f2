package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/despacho/internal/http/auth"
	"github.com/MrJamesThe3rd/despacho/internal/http/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/http/overview"
	"github.com/MrJamesThe3rd/despacho/internal/http/receipt"
	"github.com/MrJamesThe3rd/despacho/internal/http/vat"
)

type Options struct {
	AuthSecret  []byte
	CORSOrigins []string
}

func New(
	opts Options,
	receiptsV1 *receipt.Handler,
	declarationsV1 *declaration.Handler,
	vatV1 *vat.Handler,
	overviewV1 *overview.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"ETag", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(opts.AuthSecret))

		r.Route("/documents", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			receiptsV1.DocumentRoutes(r)
		})

		r.Route("/bundles", receiptsV1.BundleRoutes)

		// Imports are multipart, so no content type restriction here.
		r.Route("/declarations", declarationsV1.Routes)

		r.Route("/vat", vatV1.Routes)
		r.Route("/overview", overviewV1.Routes)
	})

	return router
}
