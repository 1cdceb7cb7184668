package transit

import (
	"sort"
	"time"

	"github.com/tidwall/rtree"

	"metroroute.org/internal/network"
	"metroroute.org/internal/routing"
	"metroroute.org/internal/utils"
)

// Snapshot is one immutable generation of the loaded network. Handlers keep using
// the snapshot they fetched even if a reload swaps in a newer one.
type Snapshot struct {
	Dataset  *network.Dataset
	Graph    *routing.Graph
	Hash     string
	LoadedAt time.Time

	lineIndex map[string]int
	spatial   *rtree.RTreeG[string]
}

// StationDistance is a station with its distance from a query point.
type StationDistance struct {
	Station        network.Station
	DistanceMeters float64
}

func newSnapshot(ds *network.Dataset, hash string, loadedAt time.Time) (*Snapshot, error) {
	graph, err := routing.Build(ds.Stations, ds.Lines)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Dataset:   ds,
		Graph:     graph,
		Hash:      hash,
		LoadedAt:  loadedAt,
		lineIndex: make(map[string]int, len(ds.Lines)),
		spatial:   &rtree.RTreeG[string]{},
	}
	for i, line := range ds.Lines {
		if _, ok := snap.lineIndex[line.ID]; !ok {
			snap.lineIndex[line.ID] = i
		}
	}
	for _, s := range ds.Stations {
		point := [2]float64{s.Lon, s.Lat}
		snap.spatial.Insert(point, point, s.ID)
	}
	return snap, nil
}

func emptySnapshot() *Snapshot {
	snap, _ := newSnapshot(&network.Dataset{}, "", time.Time{})
	return snap
}

func (s *Snapshot) Info() network.Info {
	return s.Dataset.Info()
}

func (s *Snapshot) Station(id string) (network.Station, bool) {
	return s.Graph.Station(id)
}

// Line looks a line up by id.
func (s *Snapshot) Line(id string) (network.Line, bool) {
	i, ok := s.lineIndex[id]
	if !ok {
		return network.Line{}, false
	}
	return s.Dataset.Lines[i], true
}

// LineColor returns the display color of the line a station belongs to.
func (s *Snapshot) LineColor(station network.Station) string {
	if line, ok := s.Line(station.LineID); ok && line.Name == station.Line {
		return line.Color
	}
	for _, line := range s.Dataset.Lines {
		if line.Name == station.Line {
			return line.Color
		}
	}
	return ""
}

// StationsForLocation returns stations within radiusMeters of a point, nearest first.
// A maxCount of zero or less means no limit.
func (s *Snapshot) StationsForLocation(lat, lon, radiusMeters float64, maxCount int) []StationDistance {
	var found []StationDistance
	for _, bounds := range utils.CalculateBounds(lat, lon, radiusMeters).Split() {
		s.spatial.Search(
			[2]float64{bounds.MinLon, bounds.MinLat},
			[2]float64{bounds.MaxLon, bounds.MaxLat},
			func(_, _ [2]float64, id string) bool {
				station, ok := s.Graph.Station(id)
				if !ok {
					return true
				}
				d := utils.DistanceMeters(lat, lon, station.Lat, station.Lon)
				if d <= radiusMeters {
					found = append(found, StationDistance{Station: station, DistanceMeters: d})
				}
				return true
			},
		)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].DistanceMeters != found[j].DistanceMeters {
			return found[i].DistanceMeters < found[j].DistanceMeters
		}
		return found[i].Station.ID < found[j].Station.ID
	})
	if maxCount > 0 && len(found) > maxCount {
		found = found[:maxCount]
	}
	return found
}
