// Package transit owns the loaded network: it fetches and decodes sources, persists
// them, keeps the route graph and spatial index current and answers queries.
package transit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"metroroute.org/internal/clock"
	"metroroute.org/internal/logging"
	"metroroute.org/internal/metrics"
	"metroroute.org/internal/network"
	"metroroute.org/internal/networkdb"
	"metroroute.org/internal/routing"
)

const defaultSearchLimit = 20

// Manager serves the current network snapshot and swaps in new ones on reload.
type Manager struct {
	config  Config
	DB      *networkdb.Client
	metrics *metrics.Metrics
	clock   clock.Clock

	staticMutex       sync.RWMutex
	staticUpdateMutex sync.Mutex
	current           *Snapshot
	lastUpdated       time.Time
	isHealthy         bool

	watcher      *fsnotify.Watcher
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup

	// beforeFileReload runs at the start of each watcher reload. Tests only.
	beforeFileReload func(ctx context.Context)
}

// NewManager opens the database but loads nothing.
func NewManager(config Config, m *metrics.Metrics, c clock.Clock) (*Manager, error) {
	if c == nil {
		c = clock.RealClock{}
	}
	db, err := networkdb.NewClient(networkdb.NewConfig(config.dbPath(), config.Env, config.Verbose))
	if err != nil {
		return nil, fmt.Errorf("failed to create network database client: %w", err)
	}
	return &Manager{
		config:       config,
		DB:           db,
		metrics:      m,
		clock:        c,
		current:      emptySnapshot(),
		shutdownChan: make(chan struct{}),
	}, nil
}

// InitManager creates a manager, performs the initial load and starts background reloads.
func InitManager(ctx context.Context, config Config, m *metrics.Metrics, c clock.Clock) (*Manager, error) {
	manager, err := NewManager(config, m, c)
	if err != nil {
		return nil, err
	}

	if err := manager.initialLoad(ctx); err != nil {
		_ = manager.DB.Close()
		return nil, err
	}

	if config.Watch && len(config.localPaths()) > 0 {
		if err := manager.startWatcher(); err != nil {
			manager.Shutdown()
			return nil, err
		}
	}
	if config.RefreshInterval > 0 && config.hasRemoteSource() {
		manager.wg.Add(1)
		go manager.refreshPeriodically(config.RefreshInterval)
	}

	return manager, nil
}

func (manager *Manager) initialLoad(ctx context.Context) error {
	logger := slog.Default().With(slog.String("component", "transit_manager"))

	if manager.config.DataPath != "" {
		return manager.ForceUpdate(ctx)
	}

	ds, err := manager.DB.LoadDataset(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		logging.LogOperation(logger, "no_network_configured_starting_empty")
		manager.MarkHealthy()
		return nil
	}
	if err != nil {
		return fmt.Errorf("error loading persisted network: %w", err)
	}

	meta, err := manager.DB.Queries.GetImportMetadata(ctx)
	if err != nil {
		return fmt.Errorf("error loading import metadata: %w", err)
	}
	if _, err := manager.swap(ds, meta.FileHash); err != nil {
		return err
	}
	logging.LogOperation(logger, "persisted_network_loaded",
		slog.String("source", ds.Source),
		slog.Int("stations", len(ds.Stations)))
	return nil
}

// ForceUpdate re-reads the configured sources and hot-swaps the result in.
// On failure the previous snapshot keeps serving.
func (manager *Manager) ForceUpdate(ctx context.Context) error {
	if manager.config.DataPath == "" {
		return fmt.Errorf("no network data source configured")
	}

	logger := slog.Default().With(slog.String("component", "transit_updater"))

	src, err := loadSource(ctx, manager.config)
	if err != nil {
		manager.metrics.ObserveReload(err)
		logging.LogError(logger, "Error reading network data", err,
			slog.String("source", manager.config.DataPath))
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err = manager.ReplaceNetwork(ctx, src)
	return err
}

// ReplaceNetwork decodes src, builds its graph, persists it and makes it current.
func (manager *Manager) ReplaceNetwork(ctx context.Context, src network.Source) (*Snapshot, error) {
	manager.staticUpdateMutex.Lock()
	defer manager.staticUpdateMutex.Unlock()

	logger := slog.Default().With(slog.String("component", "transit_updater"))

	ds, err := network.Decode(src)
	if err != nil {
		manager.metrics.ObserveReload(err)
		logging.LogError(logger, "Error decoding network data", err, slog.String("source", src.Name))
		return nil, err
	}
	for _, w := range ds.Warnings {
		logger.Warn("network row skipped", slog.String("source", src.Name), slog.String("detail", w))
	}

	hash := networkdb.HashSource(src.Data, src.Coordinates, src.Walking)
	snap, err := manager.swapAndPersist(ctx, ds, hash)
	if err != nil {
		logging.LogError(logger, "Error replacing network", err, slog.String("source", src.Name))
		return nil, err
	}
	return snap, nil
}

// ClearNetwork drops the stored network and serves an empty one until the next
// load. The manager stays healthy but is no longer ready.
func (manager *Manager) ClearNetwork(ctx context.Context) error {
	manager.staticUpdateMutex.Lock()
	defer manager.staticUpdateMutex.Unlock()

	if err := manager.DB.ClearNetwork(ctx); err != nil {
		manager.metrics.ObserveReload(err)
		return fmt.Errorf("error clearing network: %w", err)
	}
	snap, err := newSnapshot(&network.Dataset{}, "", manager.clock.Now())
	if err != nil {
		return err
	}
	manager.install(snap)
	return nil
}

func (manager *Manager) swapAndPersist(ctx context.Context, ds *network.Dataset, hash string) (*Snapshot, error) {
	snap, err := newSnapshot(ds, hash, manager.clock.Now())
	if err != nil {
		manager.metrics.ObserveReload(err)
		return nil, err
	}

	if _, err := manager.DB.ImportDataset(ctx, ds, hash); err != nil {
		manager.metrics.ObserveReload(err)
		return nil, fmt.Errorf("error persisting network: %w", err)
	}

	manager.install(snap)
	return snap, nil
}

// swap installs a dataset without writing it to the database.
func (manager *Manager) swap(ds *network.Dataset, hash string) (*Snapshot, error) {
	snap, err := newSnapshot(ds, hash, manager.clock.Now())
	if err != nil {
		manager.metrics.ObserveReload(err)
		return nil, err
	}
	manager.install(snap)
	return snap, nil
}

func (manager *Manager) install(snap *Snapshot) {
	manager.staticMutex.Lock()
	manager.current = snap
	manager.lastUpdated = snap.LoadedAt
	manager.isHealthy = true
	manager.staticMutex.Unlock()

	manager.metrics.ObserveReload(nil)
	manager.metrics.ObserveNetwork(snap.Info(), snap.Graph.EdgeCount(), snap.Graph.TransferEdgeCount())

	info := snap.Info()
	logging.LogOperation(slog.Default().With(slog.String("component", "transit_manager")),
		"network_hot_swapped",
		slog.String("source", snap.Dataset.Source),
		slog.String("format", string(snap.Dataset.Format)),
		slog.Int("lines", info.LineCount),
		slog.Int("stations", info.StationCount),
		slog.Int("transfer_stations", info.TransferStationCount))
}

// Snapshot returns the current generation. It never returns nil.
func (manager *Manager) Snapshot() *Snapshot {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.current
}

func (manager *Manager) LastUpdated() time.Time {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.lastUpdated
}

// PlanRoute finds the shortest route between two stations of the current network.
func (manager *Manager) PlanRoute(ctx context.Context, fromID, toID string) (routing.Route, error) {
	return manager.PlanRouteOn(ctx, manager.Snapshot(), fromID, toID)
}

// PlanRouteOn plans on snap, so a caller that also reads line colors or
// references from snap sees a single generation even across a reload.
func (manager *Manager) PlanRouteOn(ctx context.Context, snap *Snapshot, fromID, toID string) (routing.Route, error) {
	start := manager.clock.Now()

	fromID = strings.TrimSpace(fromID)
	toID = strings.TrimSpace(toID)
	route, err := routing.Plan(snap.Graph, fromID, toID)
	elapsed := manager.clock.Since(start)

	switch {
	case errors.Is(err, routing.ErrInvalidRequest):
		manager.metrics.ObservePlan(metrics.PlanInvalid, elapsed, 0)
	case errors.Is(err, routing.ErrNotFound):
		manager.metrics.ObservePlan(metrics.PlanNotFound, elapsed, 0)
	case err != nil:
		manager.metrics.ObservePlan(metrics.PlanError, elapsed, 0)
	case !route.Found():
		manager.metrics.ObservePlan(metrics.PlanNoRoute, elapsed, 0)
	default:
		manager.metrics.ObservePlan(metrics.PlanFound, elapsed, route.TransferCount)
	}

	if err == nil {
		logging.FromContext(ctx).Debug("route planned",
			slog.String("from", fromID),
			slog.String("to", toID),
			slog.Bool("found", route.Found()),
			slog.Int("transfers", route.TransferCount))
	}
	return route, err
}

// SearchStations matches station names in the persisted network.
func (manager *Manager) SearchStations(ctx context.Context, input string, maxCount int) ([]network.Station, error) {
	limit := maxCount
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return manager.DB.SearchStations(ctx, input, limit)
}

func (manager *Manager) StationsForLocation(lat, lon, radiusMeters float64, maxCount int) []StationDistance {
	return manager.Snapshot().StationsForLocation(lat, lon, radiusMeters, maxCount)
}

func (manager *Manager) IsHealthy() bool {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.isHealthy
}

// IsReady reports whether a network with at least one station is loaded.
func (manager *Manager) IsReady() bool {
	return manager.IsHealthy() && manager.Snapshot().Graph.NodeCount() > 0
}

func (manager *Manager) MarkHealthy() {
	manager.staticMutex.Lock()
	defer manager.staticMutex.Unlock()
	manager.isHealthy = true
}

func (manager *Manager) MarkUnhealthy() {
	manager.staticMutex.Lock()
	defer manager.staticMutex.Unlock()
	manager.isHealthy = false
}

// refreshPeriodically re-fetches remote sources until shutdown.
func (manager *Manager) refreshPeriodically(interval time.Duration) {
	defer manager.wg.Done()

	logger := slog.Default().With(slog.String("component", "transit_refresher"))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := manager.backgroundContext(5 * time.Minute)
			err := manager.ForceUpdate(ctx)
			cancel()
			if err != nil {
				logging.LogError(logger, "Error refreshing network data", err,
					slog.String("source", manager.config.DataPath))
			}
		case <-manager.shutdownChan:
			logging.LogOperation(logger, "shutting_down_network_refresh")
			return
		}
	}
}

// backgroundContext bounds a background reload by timeout and cancels it when
// the manager shuts down.
func (manager *Manager) backgroundContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	go func() {
		select {
		case <-manager.shutdownChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Shutdown stops background work and closes the database. It is safe to call more than once.
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() {
		close(manager.shutdownChan)
		if manager.watcher != nil {
			_ = manager.watcher.Close()
		}
		manager.wg.Wait()
		logging.SafeCloseWithLogging(manager.DB,
			slog.Default().With(slog.String("component", "transit_manager")),
			"network_database")
	})
}
