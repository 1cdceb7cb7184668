package network

import (
	"sort"
	"strconv"
	"strings"
)

var linePalette = []string{"#e74c3c", "#27ae60", "#f39c12", "#9b59b6", "#34495e", "#1abc9c", "#d35400"}

// LineColor picks the display color for a numeric line id.
func LineColor(lineID int) string {
	idx := lineID % len(linePalette)
	if idx < 0 {
		idx += len(linePalette)
	}
	return linePalette[idx]
}

func lineColorFor(lineID string) string {
	n, err := strconv.Atoi(strings.TrimSpace(lineID))
	if err != nil {
		n = 0
	}
	return LineColor(n)
}

// GroupByLine builds lines from station records. Lines keep the order in which their
// name first appears; each line takes its id and color from its first station.
func GroupByLine(stations []Station) []Line {
	index := make(map[string]int)
	var lines []Line

	for _, s := range stations {
		i, ok := index[s.Line]
		if !ok {
			i = len(lines)
			index[s.Line] = i
			lines = append(lines, Line{
				ID:    s.LineID,
				Name:  s.Line,
				Color: lineColorFor(s.LineID),
			})
		}
		lines[i].Stations = append(lines[i].Stations, s)
	}

	for i := range lines {
		SortBySequence(lines[i].Stations)
	}
	return lines
}

// SortBySequence orders stations by sequence, keeping input order for ties.
func SortBySequence(stations []Station) {
	sort.SliceStable(stations, func(a, b int) bool {
		return stations[a].Sequence < stations[b].Sequence
	})
}
