package network

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type coordinate struct {
	englishName string
	lat, lon    float64
	transfer    bool
}

type sequenceEntry struct {
	name     string
	sequence int
}

// parseStationSequence splits "name:1,name:2" into entries. Entries without a
// numeric suffix take their 1-based position.
func parseStationSequence(raw string) []sequenceEntry {
	var entries []sequenceEntry
	for i, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		entry := sequenceEntry{name: part, sequence: i + 1}
		if idx := strings.LastIndex(part, ":"); idx > 0 {
			if seq, err := strconv.Atoi(strings.TrimSpace(part[idx+1:])); err == nil {
				entry.name = strings.TrimSpace(part[:idx])
				entry.sequence = seq
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func parseCoordinates(r io.Reader) (map[string]coordinate, []string, error) {
	table, err := readCSVTable(r)
	if err != nil {
		return nil, nil, fmt.Errorf("coordinates: %w", err)
	}
	for _, required := range []string{"name", "X", "Y"} {
		if !table.has(required) {
			return nil, nil, fmt.Errorf("coordinates: %w: missing column %q", ErrMalformedInput, required)
		}
	}

	coords := make(map[string]coordinate, len(table.rows))
	var warnings []string
	for i, row := range table.rows {
		name := table.field(row, "name")
		x, xOK := parseCoordinate(table.field(row, "X"))
		y, yOK := parseCoordinate(table.field(row, "Y"))
		if name == "" || !xOK || !yOK {
			warnings = append(warnings, fmt.Sprintf("coordinates row %d: skipped incomplete station", i+2))
			continue
		}
		coords[name] = coordinate{
			englishName: table.field(row, "englishName"),
			lat:         y,
			lon:         x,
			transfer:    table.field(row, "transfer") == "true",
		}
	}
	return coords, warnings, nil
}

type lineBuilder struct {
	coords   map[string]coordinate
	dataset  *Dataset
	stations map[string]bool
}

func (b *lineBuilder) addLine(id, name, color string, entries []sequenceEntry, forceTransfer bool) error {
	line := Line{ID: id, Name: name, Color: color}
	for _, entry := range entries {
		c, ok := b.coords[entry.name]
		if !ok {
			return fmt.Errorf("%w: line %q references unknown station %q", ErrDataIntegrity, name, entry.name)
		}
		stationID := id + ":" + entry.name
		if b.stations[stationID] {
			return fmt.Errorf("%w: line %q lists station %q twice", ErrDataIntegrity, name, entry.name)
		}
		b.stations[stationID] = true

		station := Station{
			ID:       stationID,
			Name:     entry.name,
			Lat:      c.lat,
			Lon:      c.lon,
			Line:     name,
			LineID:   id,
			Sequence: entry.sequence,
			Transfer: c.transfer || forceTransfer,
		}
		line.Stations = append(line.Stations, station)
	}
	SortBySequence(line.Stations)

	b.dataset.Stations = append(b.dataset.Stations, line.Stations...)
	b.dataset.Lines = append(b.dataset.Lines, line)
	return nil
}

// ParseLineTable decodes a line-centric network: a line CSV
// (lineId,lineName,color,isExpress,stationSequence), a coordinate CSV
// (name,englishName,X,Y,transfer,...) and an optional walking-link CSV
// (color,isExpress,lineType,stationSequence). Y is read as latitude and X as longitude.
// Every line gets its own station per listed name; walking-link stations are always
// transfer stations so they join the lines that share their coordinates.
func ParseLineTable(lines, coordinates, walking io.Reader) (*Dataset, error) {
	coords, warnings, err := parseCoordinates(coordinates)
	if err != nil {
		return nil, err
	}

	lineTable, err := readCSVTable(lines)
	if err != nil {
		return nil, fmt.Errorf("lines: %w", err)
	}
	for _, required := range []string{"lineName", "stationSequence"} {
		if !lineTable.has(required) {
			return nil, fmt.Errorf("lines: %w: missing column %q", ErrMalformedInput, required)
		}
	}

	b := &lineBuilder{
		coords:   coords,
		dataset:  &Dataset{Format: FormatLineTable, Warnings: warnings},
		stations: make(map[string]bool),
	}

	for i, row := range lineTable.rows {
		name := lineTable.field(row, "lineName", "lineId")
		if name == "" {
			continue
		}
		id := lineTable.field(row, "lineId")
		if id == "" {
			id = name
		}
		color := lineTable.field(row, "color")
		if color == "" {
			color = LineColor(i)
		}
		if err := b.addLine(id, name, color, parseStationSequence(lineTable.field(row, "stationSequence")), false); err != nil {
			return nil, err
		}
	}

	if walking != nil {
		walkTable, err := readCSVTable(walking)
		if err != nil {
			return nil, fmt.Errorf("walking links: %w", err)
		}
		if !walkTable.has("stationSequence") {
			return nil, fmt.Errorf("walking links: %w: missing column %q", ErrMalformedInput, "stationSequence")
		}
		n := 0
		for _, row := range walkTable.rows {
			entries := parseStationSequence(walkTable.field(row, "stationSequence"))
			if len(entries) == 0 {
				continue
			}
			n++
			lineType := walkTable.field(row, "lineType")
			if lineType == "" {
				lineType = "walking"
			}
			color := walkTable.field(row, "color")
			if color == "" {
				color = "#808080"
			}
			id := fmt.Sprintf("%s-%d", lineType, n)
			if err := b.addLine(id, lineType, color, entries, true); err != nil {
				return nil, err
			}
		}
	}

	return b.dataset, nil
}

// DecodeLineTable is ParseLineTable over in-memory files. walking may be nil.
func DecodeLineTable(lines, coordinates, walking []byte, source string) (*Dataset, error) {
	if len(coordinates) == 0 {
		return nil, fmt.Errorf("%w: line table requires a coordinate table", ErrMalformedInput)
	}
	var walkReader io.Reader
	if len(walking) > 0 {
		walkReader = bytes.NewReader(walking)
	}
	ds, err := ParseLineTable(bytes.NewReader(lines), bytes.NewReader(coordinates), walkReader)
	if err != nil {
		return nil, err
	}
	ds.Source = source
	return ds, nil
}
