// Package metrics provides Prometheus metrics for the route planner service.
package metrics

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"metroroute.org/internal/network"
)

// Route plan outcomes used as the "result" label.
const (
	PlanFound    = "found"
	PlanNoRoute  = "no_route"
	PlanNotFound = "not_found"
	PlanInvalid  = "invalid"
	PlanError    = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Database metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
	DBWaitSecondsTotal prometheus.Counter

	// Routing metrics
	RoutePlansTotal   *prometheus.CounterVec
	RoutePlanDuration prometheus.Histogram
	RouteTransfers    prometheus.Histogram

	// Network metrics
	NetworkStations         prometheus.Gauge
	NetworkTransferStations prometheus.Gauge
	NetworkLines            prometheus.Gauge
	NetworkEdges            prometheus.Gauge
	NetworkTransferEdges    prometheus.Gauge
	NetworkReloadsTotal     *prometheus.CounterVec

	// logger for error reporting
	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool

	// cancel stops the DB stats collector goroutine
	cancel context.CancelFunc

	// wg tracks the DB stats collector goroutine for graceful shutdown
	wg sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metroroute_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metroroute_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	dbConnectionsOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metroroute_db_connections_open",
		Help: "Number of open database connections",
	})

	dbConnectionsInUse := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metroroute_db_connections_in_use",
		Help: "Number of database connections currently in use",
	})

	dbConnectionsIdle := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metroroute_db_connections_idle",
		Help: "Number of idle database connections",
	})

	dbWaitSecondsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "metroroute_db_wait_seconds_total",
		Help: "Total time blocked waiting for a database connection",
	})

	routePlansTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metroroute_route_plans_total",
			Help: "Total number of route plan requests by result",
		},
		[]string{"result"},
	)

	routePlanDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "metroroute_route_plan_duration_seconds",
		Help:    "Shortest-path search latency distribution",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	})

	routeTransfers := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "metroroute_route_transfers",
		Help:    "Number of transfers in found routes",
		Buckets: []float64{0, 1, 2, 3, 4, 6},
	})

	networkStations := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metroroute_network_stations",
		Help: "Number of stations in the loaded network",
	})

	networkTransferStations := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metroroute_network_transfer_stations",
		Help: "Number of transfer stations in the loaded network",
	})

	networkLines := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metroroute_network_lines",
		Help: "Number of lines in the loaded network",
	})

	networkEdges := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metroroute_network_edges",
		Help: "Number of undirected edges in the route graph",
	})

	networkTransferEdges := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metroroute_network_transfer_edges",
		Help: "Number of undirected zero-weight transfer edges in the route graph",
	})

	networkReloadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metroroute_network_reloads_total",
			Help: "Total number of network reload attempts by result",
		},
		[]string{"result"},
	)

	// Register all metrics with the custom registry
	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		dbConnectionsOpen,
		dbConnectionsInUse,
		dbConnectionsIdle,
		dbWaitSecondsTotal,
		routePlansTotal,
		routePlanDuration,
		routeTransfers,
		networkStations,
		networkTransferStations,
		networkLines,
		networkEdges,
		networkTransferEdges,
		networkReloadsTotal,
	)

	return &Metrics{
		Registry:            registry,
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		DBConnectionsOpen:   dbConnectionsOpen,
		DBConnectionsInUse:  dbConnectionsInUse,
		DBConnectionsIdle:   dbConnectionsIdle,
		DBWaitSecondsTotal:  dbWaitSecondsTotal,

		RoutePlansTotal:   routePlansTotal,
		RoutePlanDuration: routePlanDuration,
		RouteTransfers:    routeTransfers,

		NetworkStations:         networkStations,
		NetworkTransferStations: networkTransferStations,
		NetworkLines:            networkLines,
		NetworkEdges:            networkEdges,
		NetworkTransferEdges:    networkTransferEdges,
		NetworkReloadsTotal:     networkReloadsTotal,

		logger: logger,
	}
}

// ObservePlan records one planning request. transfers is ignored unless result is PlanFound.
func (m *Metrics) ObservePlan(result string, duration time.Duration, transfers int) {
	if m == nil {
		return
	}
	m.RoutePlansTotal.WithLabelValues(result).Inc()
	m.RoutePlanDuration.Observe(duration.Seconds())
	if result == PlanFound {
		m.RouteTransfers.Observe(float64(transfers))
	}
}

// ObserveNetwork publishes the size of a freshly loaded network.
func (m *Metrics) ObserveNetwork(info network.Info, edges, transferEdges int) {
	if m == nil {
		return
	}
	m.NetworkStations.Set(float64(info.StationCount))
	m.NetworkTransferStations.Set(float64(info.TransferStationCount))
	m.NetworkLines.Set(float64(info.LineCount))
	m.NetworkEdges.Set(float64(edges))
	m.NetworkTransferEdges.Set(float64(transferEdges))
}

func (m *Metrics) ObserveReload(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.NetworkReloadsTotal.WithLabelValues(result).Inc()
}

// StartDBStatsCollector starts a goroutine that periodically collects database
// connection pool statistics and updates the corresponding metrics.
// The interval specifies how often to collect stats.
// This method is idempotent - calling it multiple times has no effect after the first call.
// Call Shutdown() to stop the collector.
func (m *Metrics) StartDBStatsCollector(db *sql.DB, interval time.Duration) {
	if db == nil {
		return
	}

	// Prevent spawning multiple collectors
	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	var lastWaitDuration time.Duration

	// Add to WaitGroup BEFORE exposing cancel to avoid race with Shutdown
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if m.logger != nil {
					m.logger.Error("panic in DB stats collector", "error", r)
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats := db.Stats()
				m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
				m.DBConnectionsInUse.Set(float64(stats.InUse))
				m.DBConnectionsIdle.Set(float64(stats.Idle))

				// Add the delta of wait duration since last check
				waitDelta := stats.WaitDuration - lastWaitDuration
				if waitDelta > 0 {
					m.DBWaitSecondsTotal.Add(waitDelta.Seconds())
				}
				lastWaitDuration = stats.WaitDuration

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the DB stats collector goroutine and waits for it to exit.
// This method is safe to call multiple times.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
