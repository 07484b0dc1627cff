package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/edudesk/gamehost/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Game Host API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, deps.Checks).Routes())
	if deps.MetricsH != nil {
		r.Handle("/metrics", deps.MetricsH)
	}

	r.Post("/api/games/{gameID}/views", handleOpenView(logger, deps.Views, deps.Metrics))
	if deps.Results != nil {
		r.Get("/api/games/{gameID}/results", handleListResults(deps.Results))
	}

	// {viewID} must name an open view.
	r.Route("/api/views/{viewID}", func(r chi.Router) {
		r.Use(viewMiddleware(deps.Views))
		r.Get("/", handleGetView(deps.Views))
		r.Get("/channel", handleChannel(logger, deps.Views))
		r.Post("/messages", handlePostMessage(deps.Views))
		r.Post("/close", handleCloseView(deps.Views))
		r.Get("/events", handleEvents(deps.Broker))
	})

	if deps.BundleDir != "" {
		r.Get("/bundles/{gameID}/*", handleBundleAssets(deps.BundleDir))
	}
}
