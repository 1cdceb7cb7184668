package routing

import (
	"container/heap"
	"fmt"
	"strings"

	"metroroute.org/internal/network"
)

type queueItem struct {
	id   string
	dist float64
}

// frontier is a min-heap on tentative distance, then station id.
type frontier []queueItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].id < f[j].id
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(queueItem)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

type predecessor struct {
	from     string
	line     string
	transfer bool
}

// search holds the state of one query so the graph itself is never written to.
type search struct {
	dist    map[string]float64
	prev    map[string]predecessor
	visited map[string]bool
	queue   frontier
}

// ValidateRequest rejects requests that omit a station or ask for a route to the start itself.
func ValidateRequest(startID, endID string) error {
	startID = strings.TrimSpace(startID)
	endID = strings.TrimSpace(endID)
	switch {
	case startID == "" || endID == "":
		return fmt.Errorf("%w: both a start and an end station are required", ErrInvalidRequest)
	case startID == endID:
		return fmt.Errorf("%w: start and end station are the same (%s)", ErrInvalidRequest, startID)
	}
	return nil
}

// FindPath returns the minimum-distance station sequence from start to end, both included.
// An unreachable end yields an empty path and a nil error.
func FindPath(g *Graph, startID, endID string) ([]network.Station, error) {
	if _, ok := g.stations[startID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, startID)
	}
	if _, ok := g.stations[endID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, endID)
	}

	s := &search{
		dist:    map[string]float64{startID: 0},
		prev:    make(map[string]predecessor),
		visited: make(map[string]bool),
	}
	heap.Push(&s.queue, queueItem{id: startID, dist: 0})

	for s.queue.Len() > 0 {
		current := heap.Pop(&s.queue).(queueItem)
		if s.visited[current.id] {
			continue
		}
		s.visited[current.id] = true
		if current.id == endID {
			break
		}

		for _, e := range g.Edges(current.id) {
			if s.visited[e.To] {
				continue
			}
			candidate := current.dist + e.Distance
			if known, ok := s.dist[e.To]; ok && candidate >= known {
				continue
			}
			s.dist[e.To] = candidate
			s.prev[e.To] = predecessor{from: current.id, line: e.Line, transfer: e.Transfer}
			heap.Push(&s.queue, queueItem{id: e.To, dist: candidate})
		}
	}

	if !s.visited[endID] {
		return []network.Station{}, nil
	}

	var reversed []string
	for id := endID; ; {
		reversed = append(reversed, id)
		if id == startID {
			break
		}
		id = s.prev[id].from
	}

	path := make([]network.Station, len(reversed))
	for i, id := range reversed {
		path[len(reversed)-1-i] = g.stations[id]
	}
	return path, nil
}

// Route is the answer to one planning request.
type Route struct {
	From     network.Station
	To       network.Station
	Stations []network.Station
	Summary
}

func (r Route) Found() bool {
	return len(r.Stations) > 0
}

// Plan validates the request, searches the graph and summarizes the result.
// Surrounding whitespace in either id is ignored.
func Plan(g *Graph, startID, endID string) (Route, error) {
	startID = strings.TrimSpace(startID)
	endID = strings.TrimSpace(endID)
	if err := ValidateRequest(startID, endID); err != nil {
		return Route{}, err
	}
	path, err := FindPath(g, startID, endID)
	if err != nil {
		return Route{}, err
	}
	return Route{
		From:     g.stations[startID],
		To:       g.stations[endID],
		Stations: path,
		Summary:  Summarize(path),
	}, nil
}
