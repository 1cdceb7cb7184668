package routing

import (
	"fmt"
	"sort"

	"metroroute.org/internal/network"
	"metroroute.org/internal/utils"
)

// TransferLabel is the line label carried by zero-weight transfer edges.
const TransferLabel = "transfer"

// Edge is one direction of a connection. Distance is in kilometres.
type Edge struct {
	To       string
	Distance float64
	Line     string
	Transfer bool
}

// Graph is an immutable adjacency list over station ids. It is safe for concurrent reads.
type Graph struct {
	stations map[string]network.Station
	adj      map[string]map[string]Edge
	ids      []string
}

type spatialKey struct {
	lat, lon float64
}

// Build creates the graph for a network. Consecutive stations of each line are joined by
// edges weighted with their haversine distance, and every transfer station is joined to
// all other stations at exactly the same coordinates by zero-weight transfer edges.
func Build(stations []network.Station, lines []network.Line) (*Graph, error) {
	g := &Graph{
		stations: make(map[string]network.Station, len(stations)),
		adj:      make(map[string]map[string]Edge, len(stations)),
		ids:      make([]string, 0, len(stations)),
	}

	for _, s := range stations {
		if _, dup := g.stations[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate station id %q", ErrDataIntegrity, s.ID)
		}
		g.stations[s.ID] = s
		g.adj[s.ID] = make(map[string]Edge)
		g.ids = append(g.ids, s.ID)
	}
	sort.Strings(g.ids)

	for _, line := range lines {
		for i := 0; i+1 < len(line.Stations); i++ {
			from, err := g.resolve(line, line.Stations[i].ID)
			if err != nil {
				return nil, err
			}
			to, err := g.resolve(line, line.Stations[i+1].ID)
			if err != nil {
				return nil, err
			}
			if from.ID == to.ID {
				continue
			}
			d := utils.HaversineKm(from.Lat, from.Lon, to.Lat, to.Lon)
			g.connect(from.ID, to.ID, Edge{Distance: d, Line: line.Name})
		}
	}

	colocated := make(map[spatialKey][]string)
	for _, s := range stations {
		k := spatialKey{lat: s.Lat, lon: s.Lon}
		colocated[k] = append(colocated[k], s.ID)
	}
	for _, s := range stations {
		if !s.Transfer {
			continue
		}
		for _, other := range colocated[spatialKey{lat: s.Lat, lon: s.Lon}] {
			if other == s.ID {
				continue
			}
			g.connect(s.ID, other, Edge{Line: TransferLabel, Transfer: true})
		}
	}

	return g, nil
}

func (g *Graph) resolve(line network.Line, id string) (network.Station, error) {
	s, ok := g.stations[id]
	if !ok {
		return network.Station{}, fmt.Errorf("%w: line %q references unknown station %q", ErrDataIntegrity, line.Name, id)
	}
	return s, nil
}

// connect stores the edge in both directions, replacing any earlier edge between the pair.
func (g *Graph) connect(a, b string, e Edge) {
	forward := e
	forward.To = b
	g.adj[a][b] = forward

	backward := e
	backward.To = a
	g.adj[b][a] = backward
}

func (g *Graph) Station(id string) (network.Station, bool) {
	s, ok := g.stations[id]
	return s, ok
}

// StationIDs returns every station id in ascending order.
func (g *Graph) StationIDs() []string {
	return append([]string(nil), g.ids...)
}

// Edges returns the outgoing edges of a station ordered by destination id.
func (g *Graph) Edges(id string) []Edge {
	neighbours := g.adj[id]
	edges := make([]Edge, 0, len(neighbours))
	for _, e := range neighbours {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].To < edges[j].To })
	return edges
}

// Edge returns the edge from a to b, if any.
func (g *Graph) Edge(a, b string) (Edge, bool) {
	e, ok := g.adj[a][b]
	return e, ok
}

func (g *Graph) NodeCount() int {
	return len(g.stations)
}

// EdgeCount counts undirected edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, neighbours := range g.adj {
		n += len(neighbours)
	}
	return n / 2
}

// TransferEdgeCount counts undirected transfer edges.
func (g *Graph) TransferEdgeCount() int {
	n := 0
	for _, neighbours := range g.adj {
		for _, e := range neighbours {
			if e.Transfer {
				n++
			}
		}
	}
	return n / 2
}
