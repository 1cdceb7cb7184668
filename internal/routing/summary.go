package routing

import (
	"metroroute.org/internal/network"
	"metroroute.org/internal/utils"
)

// Segment is a maximal run of consecutive path stations on the same line.
type Segment struct {
	Line     string
	LineID   string
	Stations []network.Station
	// Distance in kilometres between the first and last station of the run.
	Distance float64
}

func (s Segment) First() network.Station { return s.Stations[0] }

func (s Segment) Last() network.Station { return s.Stations[len(s.Stations)-1] }

type Summary struct {
	TotalDistance float64
	TransferCount int
	Segments      []Segment
}

// ItineraryStep describes one segment for display, e.g. "Red: South -> Central (2 stations)".
type ItineraryStep struct {
	Index        int    `json:"index"`
	Line         string `json:"line"`
	From         string `json:"from"`
	To           string `json:"to"`
	StationCount int    `json:"stationCount"`
}

// Summarize totals the haversine distance along the path and splits it into segments
// at every change of line name. Each change counts as one transfer.
func Summarize(path []network.Station) Summary {
	var sum Summary
	if len(path) < 2 {
		return sum
	}

	current := Segment{Line: path[0].Line, LineID: path[0].LineID, Stations: []network.Station{path[0]}}
	for i := 1; i < len(path); i++ {
		prev, s := path[i-1], path[i]
		d := utils.HaversineKm(prev.Lat, prev.Lon, s.Lat, s.Lon)
		sum.TotalDistance += d

		if s.Line != current.Line {
			sum.TransferCount++
			sum.Segments = append(sum.Segments, current)
			current = Segment{Line: s.Line, LineID: s.LineID, Stations: []network.Station{s}}
			continue
		}
		current.Stations = append(current.Stations, s)
		current.Distance += d
	}
	sum.Segments = append(sum.Segments, current)
	return sum
}

func (s Summary) Itinerary() []ItineraryStep {
	steps := make([]ItineraryStep, 0, len(s.Segments))
	for i, seg := range s.Segments {
		steps = append(steps, ItineraryStep{
			Index:        i + 1,
			Line:         seg.Line,
			From:         seg.First().Name,
			To:           seg.Last().Name,
			StationCount: len(seg.Stations),
		})
	}
	return steps
}
