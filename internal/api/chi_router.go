// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/pricelens/internal/middleware"
)

// Router wires handlers and middleware into a Chi mux.
type Router struct {
	handler    *Handler
	middleware *ChiMiddleware
}

// NewRouter creates a new Router.
func NewRouter(handler *Handler, chiMW *ChiMiddleware) *Router {
	return &Router{
		handler:    handler,
		middleware: chiMW,
	}
}

// chiMiddleware adapts a http.HandlerFunc middleware to the Chi signature.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi builds the full route tree.
//
// Route groups:
//   - /api/v1/health: permissive rate limiting for monitoring tools
//   - /api/v1: standard rate limiting, metrics and compression
//   - /metrics: Prometheus scrape endpoint, outside the API groups
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	// Global middleware applied to every route. CORS sits here so OPTIONS
	// preflight requests are answered before any route group matching.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Use(APISecurityHeaders())

		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.Compression))

		r.Post("/predict", h.Predict)
		r.Post("/cars/find-by-body", h.FindCarsByBody)
		r.Get("/cars/options", h.CarOptions)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
