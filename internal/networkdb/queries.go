package networkdb

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createLine = `
INSERT INTO lines (position, id, name, color) VALUES (?, ?, ?, ?)
`

func (q *Queries) CreateLine(ctx context.Context, arg Line) error {
	_, err := q.db.ExecContext(ctx, createLine, arg.Position, arg.ID, arg.Name, arg.Color)
	return err
}

const createStation = `
INSERT INTO stations (
    id, name, lat, lon, line_id, line_name, line_position, line_index, sequence, transfer, position
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateStation(ctx context.Context, arg Station) error {
	_, err := q.db.ExecContext(ctx, createStation,
		arg.ID,
		arg.Name,
		arg.Lat,
		arg.Lon,
		arg.LineID,
		arg.LineName,
		arg.LinePosition,
		arg.LineIndex,
		arg.Sequence,
		arg.Transfer,
		arg.Position,
	)
	return err
}

const clearStations = `DELETE FROM stations`

func (q *Queries) ClearStations(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, clearStations)
	return err
}

const clearLines = `DELETE FROM lines`

func (q *Queries) ClearLines(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, clearLines)
	return err
}

const listLines = `
SELECT position, id, name, color FROM lines ORDER BY position
`

func (q *Queries) ListLines(ctx context.Context) ([]Line, error) {
	rows, err := q.db.QueryContext(ctx, listLines)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck
	var items []Line
	for rows.Next() {
		var i Line
		if err := rows.Scan(&i.Position, &i.ID, &i.Name, &i.Color); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const stationColumns = `id, name, lat, lon, line_id, line_name, line_position, line_index, sequence, transfer, position`

const listStations = `
SELECT ` + stationColumns + ` FROM stations ORDER BY position
`

func (q *Queries) ListStations(ctx context.Context) ([]Station, error) {
	rows, err := q.db.QueryContext(ctx, listStations)
	if err != nil {
		return nil, err
	}
	return scanStations(rows)
}

const searchStationsByName = `
SELECT ` + stationColumns + ` FROM stations
WHERE name LIKE ? ESCAPE '\'
ORDER BY
    CASE WHEN name LIKE ? ESCAPE '\' THEN 0 ELSE 1 END,
    name,
    position
LIMIT ?
`

type SearchStationsByNameParams struct {
	// Contains and Prefix are LIKE patterns.
	Contains string
	Prefix   string
	Limit    int64
}

func (q *Queries) SearchStationsByName(ctx context.Context, arg SearchStationsByNameParams) ([]Station, error) {
	rows, err := q.db.QueryContext(ctx, searchStationsByName, arg.Contains, arg.Prefix, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanStations(rows)
}

func scanStations(rows *sql.Rows) ([]Station, error) {
	defer rows.Close() //nolint:errcheck
	var items []Station
	for rows.Next() {
		var i Station
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Lat,
			&i.Lon,
			&i.LineID,
			&i.LineName,
			&i.LinePosition,
			&i.LineIndex,
			&i.Sequence,
			&i.Transfer,
			&i.Position,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getImportMetadata = `
SELECT file_hash, file_source, format, import_time FROM import_metadata WHERE id = 1
`

func (q *Queries) GetImportMetadata(ctx context.Context) (ImportMetadatum, error) {
	row := q.db.QueryRowContext(ctx, getImportMetadata)
	var i ImportMetadatum
	err := row.Scan(&i.FileHash, &i.FileSource, &i.Format, &i.ImportTime)
	return i, err
}

const upsertImportMetadata = `
INSERT INTO import_metadata (id, file_hash, file_source, format, import_time)
VALUES (1, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    file_hash = excluded.file_hash,
    file_source = excluded.file_source,
    format = excluded.format,
    import_time = excluded.import_time
`

func (q *Queries) UpsertImportMetadata(ctx context.Context, arg ImportMetadatum) error {
	_, err := q.db.ExecContext(ctx, upsertImportMetadata, arg.FileHash, arg.FileSource, arg.Format, arg.ImportTime)
	return err
}

const clearImportMetadata = `DELETE FROM import_metadata`

func (q *Queries) ClearImportMetadata(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, clearImportMetadata)
	return err
}
