package network

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Source is the raw material for one dataset. Coordinates and Walking are only
// used by line tables.
type Source struct {
	Name        string
	Format      Format
	Data        []byte
	Coordinates []byte
	Walking     []byte
}

var zipMagic = []byte("PK\x03\x04")

// DetectFormat guesses the format from a file name and its leading bytes.
func DetectFormat(name string, data []byte) Format {
	if bytes.HasPrefix(data, zipMagic) || strings.EqualFold(filepath.Ext(name), ".zip") {
		return FormatGTFS
	}
	header := data
	if i := bytes.IndexByte(header, '\n'); i >= 0 {
		header = header[:i]
	}
	if bytes.Contains(header, []byte("stationSequence")) {
		return FormatLineTable
	}
	return FormatStationsCSV
}

func ParseFormat(v string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(v))) {
	case FormatStationsCSV, "csv", "":
		return FormatStationsCSV, nil
	case FormatLineTable:
		return FormatLineTable, nil
	case FormatGTFS:
		return FormatGTFS, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrMalformedInput, v)
	}
}

// Decode turns a source into a dataset, detecting the format when none is set.
func Decode(src Source) (*Dataset, error) {
	format := src.Format
	if format == "" {
		format = DetectFormat(src.Name, src.Data)
	}

	switch format {
	case FormatStationsCSV:
		return DecodeStationsCSV(src.Data, src.Name)
	case FormatLineTable:
		return DecodeLineTable(src.Data, src.Coordinates, src.Walking, src.Name)
	case FormatGTFS:
		return DecodeGTFS(src.Data, src.Name)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrMalformedInput, format)
	}
}
