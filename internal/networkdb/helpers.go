package networkdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"metroroute.org/internal/appconf"
	"metroroute.org/internal/logging"
	"metroroute.org/internal/network"
)

//go:embed schema.sql
var ddl string

// createDB opens the SQLite database and brings its schema up to date
func createDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, fmt.Errorf("test database must use in-memory storage, got path: %s", config.DBPath)
	}

	db, err := sql.Open("sqlite3", config.DBPath)
	if err != nil {
		return nil, err
	}

	// :memory: databases are per connection, so the pool must be set before anything runs
	configureConnectionPool(db, config)

	ctx := context.Background()
	err = configureSQLitePerformance(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error configuring SQLite performance: %w", err)
	}

	err = performDatabaseMigration(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return db, nil
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}

func configureSQLitePerformance(ctx context.Context, db *sql.DB) error {
	pragmas := []struct {
		name        string
		description string
	}{
		{"PRAGMA cache_size=-16000", "Set cache size to 16MB"},
		{"PRAGMA temp_store=MEMORY", "Store temporary data in memory"},
		{"PRAGMA foreign_keys=ON", "Enable foreign keys"},
	}

	logger := slog.Default().With(slog.String("component", "sqlite_performance"))

	for _, pragma := range pragmas {
		_, err := db.ExecContext(ctx, pragma.name)
		if err != nil {
			logging.LogError(logger, fmt.Sprintf("Failed to %s", strings.ToLower(pragma.description)), err)
			return fmt.Errorf("failed to execute %s: %w", pragma.name, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return nil
}

func configureConnectionPool(db *sql.DB, config Config) {
	if config.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
}

// HashSource fingerprints the raw bytes a dataset was decoded from.
func HashSource(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write(p)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ImportDataset replaces the stored network with ds. Nothing is written when the
// stored network already came from the same source with the same hash.
func (c *Client) ImportDataset(ctx context.Context, ds *network.Dataset, hash string) (bool, error) {
	logger := slog.Default().With(slog.String("component", "network_importer"))

	startTime := time.Now()
	existing, err := c.Queries.GetImportMetadata(ctx)
	switch {
	case err == nil:
		if existing.FileHash == hash && existing.FileSource == ds.Source {
			logging.LogOperation(logger, "network_data_unchanged_skipping_import",
				slog.String("hash", shortHash(hash)))
			return false, nil
		}
		logging.LogOperation(logger, "network_data_changed_reimporting",
			slog.String("old_hash", shortHash(existing.FileHash)),
			slog.String("new_hash", shortHash(hash)))
	case errors.Is(err, sql.ErrNoRows):
	default:
		return false, fmt.Errorf("error checking import metadata: %w", err)
	}

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer logging.SafeRollbackWithLogging(tx, logger, "import_network")

	qtx := c.Queries.WithTx(tx)
	if err := qtx.ClearStations(ctx); err != nil {
		return false, fmt.Errorf("error clearing stations: %w", err)
	}
	if err := qtx.ClearLines(ctx); err != nil {
		return false, fmt.Errorf("error clearing lines: %w", err)
	}

	type membership struct{ line, index int }
	member := make(map[string]membership, len(ds.Stations))
	for li, line := range ds.Lines {
		if err := qtx.CreateLine(ctx, Line{
			Position: int64(li),
			ID:       line.ID,
			Name:     line.Name,
			Color:    line.Color,
		}); err != nil {
			return false, fmt.Errorf("error inserting line %q: %w", line.Name, err)
		}
		for si, s := range line.Stations {
			member[s.ID] = membership{line: li, index: si}
		}
	}

	for pos, s := range ds.Stations {
		m, ok := member[s.ID]
		if !ok {
			m = membership{line: -1, index: -1}
		}
		if err := qtx.CreateStation(ctx, Station{
			ID:           s.ID,
			Name:         s.Name,
			Lat:          s.Lat,
			Lon:          s.Lon,
			LineID:       s.LineID,
			LineName:     s.Line,
			LinePosition: int64(m.line),
			LineIndex:    int64(m.index),
			Sequence:     int64(s.Sequence),
			Transfer:     boolToInt(s.Transfer),
			Position:     int64(pos),
		}); err != nil {
			return false, fmt.Errorf("error inserting station %q: %w", s.ID, err)
		}
	}

	if err := qtx.UpsertImportMetadata(ctx, ImportMetadatum{
		FileHash:   hash,
		FileSource: ds.Source,
		Format:     string(ds.Format),
		ImportTime: time.Now().Unix(),
	}); err != nil {
		return false, fmt.Errorf("error recording import metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	runtime := time.Since(startTime)
	c.importRuntime.Store(int64(runtime))
	logging.LogOperation(logger, "network_data_import_completed",
		slog.Duration("duration", runtime),
		slog.String("source", ds.Source),
		slog.Int("lines", len(ds.Lines)),
		slog.Int("stations", len(ds.Stations)))

	return true, nil
}

// ClearNetwork removes the stored network and its import record, so the next
// start finds nothing to load and the next import always writes.
func (c *Client) ClearNetwork(ctx context.Context) error {
	logger := slog.Default().With(slog.String("component", "network_importer"))

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer logging.SafeRollbackWithLogging(tx, logger, "clear_network")

	qtx := c.Queries.WithTx(tx)
	if err := qtx.ClearStations(ctx); err != nil {
		return fmt.Errorf("error clearing stations: %w", err)
	}
	if err := qtx.ClearLines(ctx); err != nil {
		return fmt.Errorf("error clearing lines: %w", err)
	}
	if err := qtx.ClearImportMetadata(ctx); err != nil {
		return fmt.Errorf("error clearing import metadata: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	logging.LogOperation(logger, "network_data_cleared")
	return nil
}

// LoadDataset rebuilds the stored network. It returns sql.ErrNoRows when nothing has been imported.
func (c *Client) LoadDataset(ctx context.Context) (*network.Dataset, error) {
	meta, err := c.Queries.GetImportMetadata(ctx)
	if err != nil {
		return nil, err
	}

	lineRows, err := c.Queries.ListLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing lines: %w", err)
	}
	stationRows, err := c.Queries.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing stations: %w", err)
	}

	ds := &network.Dataset{
		Source:   meta.FileSource,
		Format:   network.Format(meta.Format),
		Stations: make([]network.Station, 0, len(stationRows)),
		Lines:    make([]network.Line, len(lineRows)),
	}
	for i, l := range lineRows {
		ds.Lines[i] = network.Line{ID: l.ID, Name: l.Name, Color: l.Color}
	}

	type placed struct {
		index   int64
		station network.Station
	}
	perLine := make([][]placed, len(lineRows))
	for _, row := range stationRows {
		s := toStation(row)
		ds.Stations = append(ds.Stations, s)
		if row.LinePosition >= 0 && int(row.LinePosition) < len(perLine) {
			perLine[row.LinePosition] = append(perLine[row.LinePosition], placed{index: row.LineIndex, station: s})
		}
	}
	for li, members := range perLine {
		stations := make([]network.Station, len(members))
		for _, m := range members {
			if m.index < 0 || int(m.index) >= len(stations) {
				return nil, fmt.Errorf("%w: station %q has line index %d", network.ErrDataIntegrity, m.station.ID, m.index)
			}
			stations[m.index] = m.station
		}
		ds.Lines[li].Stations = stations
	}

	return ds, nil
}

// SearchStations finds stations whose name contains input, prefix matches first.
func (c *Client) SearchStations(ctx context.Context, input string, limit int) ([]network.Station, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return []network.Station{}, nil
	}
	escaped := escapeLike(input)
	rows, err := c.Queries.SearchStationsByName(ctx, SearchStationsByNameParams{
		Contains: "%" + escaped + "%",
		Prefix:   escaped + "%",
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("error searching stations: %w", err)
	}
	stations := make([]network.Station, 0, len(rows))
	for _, row := range rows {
		stations = append(stations, toStation(row))
	}
	return stations, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func toStation(row Station) network.Station {
	return network.Station{
		ID:       row.ID,
		Name:     row.Name,
		Lat:      row.Lat,
		Lon:      row.Lon,
		Line:     row.LineName,
		LineID:   row.LineID,
		Sequence: int(row.Sequence),
		Transfer: row.Transfer != 0,
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
