// Package network holds the station and line records of a transit network and
// the decoders that produce them from station CSVs, line tables and GTFS feeds.
package network

import "errors"

var (
	// ErrMalformedInput is returned when a source cannot be decoded at all.
	ErrMalformedInput = errors.New("malformed network data")
	// ErrDataIntegrity marks records that contradict each other, such as a line
	// naming a station that does not exist or two stations sharing an id.
	ErrDataIntegrity = errors.New("data integrity violation")
)

type Format string

const (
	FormatStationsCSV Format = "stations-csv"
	FormatLineTable   Format = "line-table"
	FormatGTFS        Format = "gtfs"
)

// Station is a stop on exactly one line. Co-located stations of other lines are
// separate records joined by transfer edges.
type Station struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lng"`
	Line     string  `json:"line"`
	LineID   string  `json:"lineId"`
	Sequence int     `json:"sequence"`
	Transfer bool    `json:"transfer"`
}

// Line is an ordered run of stations; only neighbours in this order are adjacent.
type Line struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Stations []Station `json:"stations"`
}

// Dataset is one decoded network.
type Dataset struct {
	Source   string
	Format   Format
	Stations []Station
	Lines    []Line
	// Warnings lists rows that were skipped while decoding.
	Warnings []string
}

type Info struct {
	LineCount            int `json:"lineCount"`
	StationCount         int `json:"stationCount"`
	TransferStationCount int `json:"transferStationCount"`
}

func (d *Dataset) Info() Info {
	info := Info{
		LineCount:    len(d.Lines),
		StationCount: len(d.Stations),
	}
	for _, s := range d.Stations {
		if s.Transfer {
			info.TransferStationCount++
		}
	}
	return info
}
