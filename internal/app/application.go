// Package app wires the shared dependencies handed to HTTP handlers and middleware.
package app

import (
	"log/slog"

	"metroroute.org/internal/appconf"
	"metroroute.org/internal/clock"
	"metroroute.org/internal/metrics"
	"metroroute.org/internal/transit"
)

// Application holds the dependencies for our HTTP handlers, helpers and middleware.
type Application struct {
	Config        appconf.Config
	TransitConfig transit.Config
	Logger        *slog.Logger
	Manager       *transit.Manager
	Clock         clock.Clock
	Metrics       *metrics.Metrics
}
