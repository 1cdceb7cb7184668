// Package restapi serves the route planner over HTTP using the /api/where envelope.
package restapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"metroroute.org/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
	validate    *validator.Validate
}

// NewRestAPI creates a new RestAPI instance with the rate limiter initialized.
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, app.Config.ExemptApiKeys, app.Clock),
		validate:    newValidator(),
	}
}

// SetRoutes registers every endpoint on mux.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", api.healthHandler)
	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	api.handle(mux, "GET /api/where/current-time.json", cacheNone, api.currentTimeHandler)
	api.handle(mux, "GET /api/where/config.json", cacheComputed, api.configHandler)
	api.handle(mux, "GET /api/where/stations.json", cacheNetworkData, api.stationsHandler)
	api.handle(mux, "GET /api/where/station/{id}", cacheNetworkData, api.stationHandler)
	api.handle(mux, "GET /api/where/lines.json", cacheNetworkData, api.linesHandler)
	api.handle(mux, "GET /api/where/line/{id}", cacheNetworkData, api.lineHandler)
	api.handle(mux, "GET /api/where/search/station.json", cacheNetworkData, api.searchStationsHandler)
	api.handle(mux, "GET /api/where/stations-for-location.json", cacheNetworkData, api.stationsForLocationHandler)
	api.handle(mux, "GET /api/where/plan-route.json", cacheComputed, api.planRouteHandler)
	api.handle(mux, "POST /api/where/network.json", cacheNone, api.replaceNetworkHandler)
	api.handle(mux, "DELETE /api/where/network.json", cacheNone, api.clearNetworkHandler)
}

// handle wraps an /api/where handler with key validation, rate limiting and a cache tier.
func (api *RestAPI) handle(mux *http.ServeMux, pattern string, tier cacheTier, h http.HandlerFunc) {
	var handler http.Handler = http.HandlerFunc(h)
	handler = api.requireAPIKey(handler)
	handler = api.rateLimiter.Handler()(handler)
	handler = api.cacheControl(tier, handler)
	mux.Handle(pattern, handler)
}

// Handler returns mux wrapped in the server wide middleware chain.
func (api *RestAPI) Handler(mux *http.ServeMux) http.Handler {
	var handler http.Handler = mux
	// metrics must sit directly above the mux to see r.Pattern
	handler = MetricsHandler(api.Metrics)(handler)
	handler = gzhttp.GzipHandler(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	handler = RequestIDMiddleware(handler)
	return handler
}

func (api *RestAPI) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.sendUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter's background cleanup.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
