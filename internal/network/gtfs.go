package network

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OneBusAway/go-gtfs"
)

// ParseGTFS builds a network from a static GTFS zip. Each route becomes one line whose
// stations follow the stop order of the route's longest trip; a stop that appears more
// than once across all lines is a transfer station.
func ParseGTFS(data []byte) (*Dataset, error) {
	static, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse GTFS: %v", ErrMalformedInput, err)
	}
	return fromStatic(static), nil
}

func fromStatic(static *gtfs.Static) *Dataset {
	longest := make(map[string]*gtfs.ScheduledTrip)
	for i := range static.Trips {
		trip := &static.Trips[i]
		if trip.Route == nil {
			continue
		}
		current, ok := longest[trip.Route.Id]
		if !ok || len(trip.StopTimes) > len(current.StopTimes) {
			longest[trip.Route.Id] = trip
		}
	}

	ds := &Dataset{Format: FormatGTFS}
	appearances := make(map[string]int)
	stopOf := make(map[string]string)

	for i, route := range static.Routes {
		trip, ok := longest[route.Id]
		if !ok {
			ds.Warnings = append(ds.Warnings, fmt.Sprintf("route %s: no trips", route.Id))
			continue
		}

		stopTimes := append([]gtfs.ScheduledStopTime(nil), trip.StopTimes...)
		sort.SliceStable(stopTimes, func(a, b int) bool {
			return stopTimes[a].StopSequence < stopTimes[b].StopSequence
		})

		line := Line{
			ID:    route.Id,
			Name:  routeName(route),
			Color: routeColor(route, i),
		}
		seen := make(map[string]bool)
		for _, st := range stopTimes {
			stop := st.Stop
			if stop == nil || stop.Latitude == nil || stop.Longitude == nil {
				continue
			}
			// loop routes return to their first stop; keep one station per stop
			if seen[stop.Id] {
				continue
			}
			seen[stop.Id] = true

			id := route.Id + ":" + stop.Id
			appearances[stop.Id]++
			stopOf[id] = stop.Id
			line.Stations = append(line.Stations, Station{
				ID:       id,
				Name:     stop.Name,
				Lat:      *stop.Latitude,
				Lon:      *stop.Longitude,
				Line:     line.Name,
				LineID:   route.Id,
				Sequence: st.StopSequence,
			})
		}
		if len(line.Stations) == 0 {
			ds.Warnings = append(ds.Warnings, fmt.Sprintf("route %s: no stops with coordinates", route.Id))
			continue
		}
		ds.Lines = append(ds.Lines, line)
	}

	for li := range ds.Lines {
		for si := range ds.Lines[li].Stations {
			s := &ds.Lines[li].Stations[si]
			s.Transfer = appearances[stopOf[s.ID]] > 1
			ds.Stations = append(ds.Stations, *s)
		}
	}
	return ds
}

func routeName(route gtfs.Route) string {
	switch {
	case route.ShortName != "":
		return route.ShortName
	case route.LongName != "":
		return route.LongName
	default:
		return route.Id
	}
}

func routeColor(route gtfs.Route, index int) string {
	if c := strings.TrimPrefix(strings.TrimSpace(route.Color), "#"); c != "" {
		return "#" + strings.ToLower(c)
	}
	return LineColor(index)
}

// DecodeGTFS is ParseGTFS with the dataset source recorded.
func DecodeGTFS(data []byte, source string) (*Dataset, error) {
	ds, err := ParseGTFS(data)
	if err != nil {
		return nil, err
	}
	ds.Source = source
	return ds, nil
}
