package main

import (
	"net/http"

	"github.com/arxiv/zero/internal/api"
	apiMiddleware "github.com/arxiv/zero/internal/api/middleware"
	"github.com/arxiv/zero/internal/platform/metrics"
	"github.com/arxiv/zero/internal/service/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.Metrics)
	r.Use(middleware.Recoverer)

	thingHandler := api.NewThingHandler(app.thingService, app.logger)
	mutationHandler := api.NewMutationHandler(app.mutationService, app.logger)
	bazHandler := api.NewBazHandler(app.bazClient)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route(api.BasePath, func(r chi.Router) {
		r.Get("/status", api.Status)
		r.Get("/baz/{id}", bazHandler.GetBaz)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.With(apiMiddleware.RequireScope(auth.ScopeReadThing)).
				Get("/thing/{id}", thingHandler.GetThing)

			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.RequireScope(auth.ScopeWriteThing))
				r.Post("/thing", thingHandler.CreateThing)
				r.Post("/thing/{id}", mutationHandler.RequestMutation)
				r.Get("/mutation/{task_id}", mutationHandler.MutationStatus)
			})
		})
	})

	r.Handle("/metrics", metrics.Handler())

	return r
}
