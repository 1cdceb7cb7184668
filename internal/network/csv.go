package network

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type csvTable struct {
	columns map[string]int
	rows    [][]string
}

func readCSVTable(r io.Reader) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformedInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	table := &csvTable{columns: make(map[string]int, len(header))}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		table.columns[strings.TrimSpace(name)] = i
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		table.rows = append(table.rows, record)
	}
	return table, nil
}

func (t *csvTable) has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// field returns the trimmed value of column in row, or "" when the column or cell is missing.
func (t *csvTable) field(row []string, columns ...string) string {
	for _, column := range columns {
		i, ok := t.columns[column]
		if !ok || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v
		}
	}
	return ""
}

func parseCoordinate(v string) (float64, bool) {
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseIntOrZero(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

// ParseStationsCSV decodes a station-per-row CSV with the columns
// name, lat, lng, line, lineId, transfer, sequence and an optional id.
// Rows without a name, line or usable coordinates are skipped and reported as warnings.
func ParseStationsCSV(r io.Reader) ([]Station, []string, error) {
	table, err := readCSVTable(r)
	if err != nil {
		return nil, nil, err
	}
	for _, required := range []string{"name", "lat", "line"} {
		if !table.has(required) {
			return nil, nil, fmt.Errorf("%w: missing column %q", ErrMalformedInput, required)
		}
	}
	if !table.has("lng") && !table.has("lon") {
		return nil, nil, fmt.Errorf("%w: missing column %q", ErrMalformedInput, "lng")
	}

	var (
		stations []Station
		warnings []string
		// rows without an id cell; numbered once every explicit id is known
		unnamed []int
		taken   = make(map[string]bool)
	)
	for i, row := range table.rows {
		name := table.field(row, "name")
		line := table.field(row, "line")
		lat, latOK := parseCoordinate(table.field(row, "lat"))
		lon, lonOK := parseCoordinate(table.field(row, "lng", "lon"))
		if name == "" || line == "" || !latOK || !lonOK {
			warnings = append(warnings, fmt.Sprintf("row %d: skipped incomplete station", i+2))
			continue
		}

		lineID := table.field(row, "lineId")
		if lineID == "" {
			lineID = "0"
		}
		id := table.field(row, "id")
		if id == "" {
			unnamed = append(unnamed, len(stations))
		} else {
			taken[id] = true
		}

		stations = append(stations, Station{
			ID:       id,
			Name:     name,
			Lat:      lat,
			Lon:      lon,
			Line:     line,
			LineID:   lineID,
			Sequence: parseIntOrZero(table.field(row, "sequence")),
			Transfer: table.field(row, "transfer") == "true",
		})
	}

	// Rows without an id take their index among kept rows, moving past ids
	// that other rows set explicitly.
	for _, idx := range unnamed {
		n := idx
		for taken[strconv.Itoa(n)] {
			n++
		}
		id := strconv.Itoa(n)
		taken[id] = true
		stations[idx].ID = id
	}
	return stations, warnings, nil
}

// DecodeStationsCSV parses a station CSV and groups its stations into lines.
func DecodeStationsCSV(data []byte, source string) (*Dataset, error) {
	stations, warnings, err := ParseStationsCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Dataset{
		Source:   source,
		Format:   FormatStationsCSV,
		Stations: stations,
		Lines:    GroupByLine(stations),
		Warnings: warnings,
	}, nil
}
