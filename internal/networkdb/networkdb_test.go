package networkdb

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metroroute.org/internal/appconf"
	"metroroute.org/internal/network"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func fixtureDataset(t *testing.T) (*network.Dataset, []byte) {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "testdata", "stations.csv"))
	require.NoError(t, err)
	ds, err := network.DecodeStationsCSV(raw, "stations.csv")
	require.NoError(t, err)
	return ds, raw
}

func TestNewClientRejectsFileInTest(t *testing.T) {
	_, err := NewClient(NewConfig(filepath.Join(t.TempDir(), "x.db"), appconf.Test, false))
	assert.Error(t, err)
}

func TestImportAndLoadDataset(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.LoadDataset(ctx)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	ds, raw := fixtureDataset(t)
	imported, err := client.ImportDataset(ctx, ds, HashSource(raw))
	require.NoError(t, err)
	assert.True(t, imported)

	loaded, err := client.LoadDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, ds.Source, loaded.Source)
	assert.Equal(t, ds.Format, loaded.Format)
	assert.Equal(t, ds.Stations, loaded.Stations)
	assert.Equal(t, ds.Lines, loaded.Lines)
	assert.Equal(t, ds.Info(), loaded.Info())
}

func TestClearNetwork(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	ds, raw := fixtureDataset(t)
	_, err := client.ImportDataset(ctx, ds, HashSource(raw))
	require.NoError(t, err)

	require.NoError(t, client.ClearNetwork(ctx))

	_, err = client.LoadDataset(ctx)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	counts, err := client.TableCounts()
	require.NoError(t, err)
	assert.Equal(t, 0, counts["stations"])
	assert.Equal(t, 0, counts["lines"])

	imported, err := client.ImportDataset(ctx, ds, HashSource(raw))
	require.NoError(t, err)
	assert.True(t, imported, "the same data imports again after a clear")

	require.NoError(t, client.ClearNetwork(ctx), "clearing an empty database is fine")
}

func TestImportSkipsUnchangedData(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	ds, raw := fixtureDataset(t)

	imported, err := client.ImportDataset(ctx, ds, HashSource(raw))
	require.NoError(t, err)
	require.True(t, imported)

	imported, err = client.ImportDataset(ctx, ds, HashSource(raw))
	require.NoError(t, err)
	assert.False(t, imported)

	smaller := &network.Dataset{
		Source:   ds.Source,
		Format:   ds.Format,
		Stations: ds.Stations[:3],
		Lines:    ds.Lines[:1],
	}
	imported, err = client.ImportDataset(ctx, smaller, HashSource(raw[:40]))
	require.NoError(t, err)
	assert.True(t, imported)

	counts, err := client.TableCounts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"lines": 1, "stations": 3, "import_metadata": 1}, counts)
}

func TestSearchStations(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	ds, raw := fixtureDataset(t)
	_, err := client.ImportDataset(ctx, ds, HashSource(raw))
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		limit    int
		expected []string
	}{
		{"prefix first", "e", 10, []string{"East", "Central", "Central", "West"}},
		{"case insensitive", "cent", 10, []string{"Central", "Central"}},
		{"limit", "cent", 1, []string{"Central"}},
		{"wildcards are literal", "%", 10, []string{}},
		{"blank input", "  ", 10, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stations, err := client.SearchStations(ctx, tt.input, tt.limit)
			require.NoError(t, err)
			names := []string{}
			for _, s := range stations {
				names = append(names, s.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestHashSource(t *testing.T) {
	assert.Equal(t, HashSource([]byte("a")), HashSource([]byte("a")))
	assert.NotEqual(t, HashSource([]byte("ab")), HashSource([]byte("a"), []byte("b")))
	assert.Len(t, HashSource(nil), 64)
}

func TestTableCounts(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	client := &Client{DB: db}

	_, err = db.Exec(`
		CREATE TABLE lines (id TEXT);
		INSERT INTO lines VALUES ('1');

		CREATE TABLE stations (id TEXT);
		INSERT INTO stations VALUES ('s1'), ('s2');

		CREATE TABLE secret_table (id TEXT);
	`)
	require.NoError(t, err)

	counts, err := client.TableCounts()
	require.NoError(t, err)

	assert.Equal(t, 1, counts["lines"])
	assert.Equal(t, 2, counts["stations"])

	_, exists := counts["secret_table"]
	assert.False(t, exists, "Should not include tables outside the whitelist")
}
