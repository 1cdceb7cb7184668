// Package networkdb persists the loaded network in SQLite so a restart can serve
// the last imported network and station search can run in SQL.
package networkdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver
	"metroroute.org/internal/logging"
)

// Client is the main entry point for the library
type Client struct {
	config        Config
	DB            *sql.DB
	Queries       *Queries
	importRuntime atomic.Int64 // nanoseconds
}

// NewClient opens the database and applies the schema
func NewClient(config Config) (*Client, error) {
	db, err := createDB(config)
	if err != nil {
		return nil, fmt.Errorf("unable to create DB: %w", err)
	} else if config.verbose {
		logging.LogOperation(slog.Default().With(slog.String("component", "networkdb")),
			"tables_created",
			slog.String("db_path", config.DBPath))
	}

	return &Client{
		config:  config,
		DB:      db,
		Queries: New(db),
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func (c *Client) GetDBPath() string {
	return c.config.DBPath
}

// ImportRuntime reports how long the last import took.
func (c *Client) ImportRuntime() time.Duration {
	return time.Duration(c.importRuntime.Load())
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}
