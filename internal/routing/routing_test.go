package routing

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metroroute.org/internal/network"
	"metroroute.org/internal/utils"
)

const epsilon = 1e-9

func station(id, line string, seq int, lat, lon float64, transfer bool) network.Station {
	return network.Station{ID: id, Name: id, Line: line, LineID: line, Sequence: seq, Lat: lat, Lon: lon, Transfer: transfer}
}

func mustBuild(t *testing.T, stations []network.Station) *Graph {
	t.Helper()
	g, err := Build(stations, network.GroupByLine(stations))
	require.NoError(t, err)
	return g
}

func ids(path []network.Station) []string {
	out := make([]string, len(path))
	for i, s := range path {
		out[i] = s.ID
	}
	return out
}

func pathWeight(t *testing.T, g *Graph, path []network.Station) float64 {
	t.Helper()
	total := 0.0
	for i := 1; i < len(path); i++ {
		e, ok := g.Edge(path[i-1].ID, path[i].ID)
		require.True(t, ok, "no edge between %s and %s", path[i-1].ID, path[i].ID)
		total += e.Distance
	}
	return total
}

// abc is three stations on one line.
func abc() []network.Station {
	return []network.Station{
		station("A", "L1", 1, 0, 0, false),
		station("B", "L1", 2, 0, 1, false),
		station("C", "L1", 3, 0, 2, false),
	}
}

// crossing has L1 P-D-Q and L2 R-E-S with D and E at the same point.
func crossing() []network.Station {
	return []network.Station{
		station("P", "L1", 1, 0, 0, false),
		station("D", "L1", 2, 0, 1, true),
		station("Q", "L1", 3, 0, 2, false),
		station("R", "L2", 1, 1, 1, false),
		station("E", "L2", 2, 0, 1, true),
		station("S", "L2", 3, -1, 1, false),
	}
}

func TestBuildEdges(t *testing.T) {
	g := mustBuild(t, crossing())

	assert.Equal(t, 6, g.NodeCount())
	assert.Equal(t, 5, g.EdgeCount())
	assert.Equal(t, 1, g.TransferEdgeCount())

	e, ok := g.Edge("D", "E")
	require.True(t, ok)
	assert.Equal(t, Edge{To: "E", Distance: 0, Line: TransferLabel, Transfer: true}, e)

	_, ok = g.Edge("P", "Q")
	assert.False(t, ok, "only consecutive stations are adjacent")
	_, ok = g.Edge("P", "R")
	assert.False(t, ok)
}

func TestBuildSymmetry(t *testing.T) {
	g := mustBuild(t, crossing())
	for _, id := range g.StationIDs() {
		for _, e := range g.Edges(id) {
			back, ok := g.Edge(e.To, id)
			require.True(t, ok, "%s -> %s has no reverse edge", id, e.To)
			assert.Equal(t, e.Distance, back.Distance)
			assert.Equal(t, e.Line, back.Line)
			assert.Equal(t, e.Transfer, back.Transfer)
		}
	}
}

func TestBuildWeights(t *testing.T) {
	g := mustBuild(t, crossing())
	for _, id := range g.StationIDs() {
		from, _ := g.Station(id)
		for _, e := range g.Edges(id) {
			to, _ := g.Station(e.To)
			assert.GreaterOrEqual(t, e.Distance, 0.0)
			if e.Transfer {
				assert.Equal(t, 0.0, e.Distance)
				continue
			}
			assert.InDelta(t, utils.HaversineKm(from.Lat, from.Lon, to.Lat, to.Lon), e.Distance, epsilon)
			assert.Equal(t, from.Line, e.Line)
		}
	}
}

func TestBuildTransferNeedsOneFlag(t *testing.T) {
	stations := crossing()
	stations[4].Transfer = false

	g := mustBuild(t, stations)
	_, ok := g.Edge("E", "D")
	assert.True(t, ok, "D alone being a transfer station joins it to E")

	stations[1].Transfer = false
	g = mustBuild(t, stations)
	_, ok = g.Edge("E", "D")
	assert.False(t, ok)
}

func TestBuildSkipsSelfLoopsAndReplacesDuplicates(t *testing.T) {
	a := station("A", "L1", 1, 0, 0, true)
	b := station("B", "L1", 2, 0, 1, false)
	lines := []network.Line{
		{Name: "L1", Stations: []network.Station{a, a, b}},
		{Name: "L2", Stations: []network.Station{b, a}},
	}

	g, err := Build([]network.Station{a, b}, lines)
	require.NoError(t, err)

	_, ok := g.Edge("A", "A")
	assert.False(t, ok)
	assert.Equal(t, 1, g.EdgeCount())

	e, _ := g.Edge("A", "B")
	assert.Equal(t, "L2", e.Line, "later insertion replaces the earlier edge")
}

func TestBuildDataIntegrity(t *testing.T) {
	t.Run("duplicate id", func(t *testing.T) {
		stations := append(abc(), station("A", "L2", 1, 5, 5, false))
		_, err := Build(stations, nil)
		assert.ErrorIs(t, err, ErrDataIntegrity)
	})

	t.Run("unknown station on line", func(t *testing.T) {
		stations := abc()
		lines := network.GroupByLine(stations)
		lines[0].Stations = append(lines[0].Stations, station("Z", "L1", 4, 0, 3, false))
		_, err := Build(stations, lines)
		assert.ErrorIs(t, err, ErrDataIntegrity)
		assert.ErrorIs(t, err, network.ErrDataIntegrity)
	})
}

func TestFindPathSingleLine(t *testing.T) {
	stations := abc()
	g := mustBuild(t, stations)

	path, err := FindPath(g, "A", "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, ids(path))

	sum := Summarize(path)
	expected := utils.HaversineKm(0, 0, 0, 1) + utils.HaversineKm(0, 1, 0, 2)
	assert.InDelta(t, expected, sum.TotalDistance, epsilon)
	assert.Equal(t, 0, sum.TransferCount)
	require.Len(t, sum.Segments, 1)
	assert.Equal(t, []string{"A", "B", "C"}, ids(sum.Segments[0].Stations))
	assert.InDelta(t, expected, sum.Segments[0].Distance, epsilon)
}

func TestFindPathThroughTransfer(t *testing.T) {
	g := mustBuild(t, crossing())

	path, err := FindPath(g, "P", "S")
	require.NoError(t, err)
	assert.Equal(t, []string{"P", "D", "E", "S"}, ids(path))

	sum := Summarize(path)
	assert.Equal(t, 1, sum.TransferCount)
	require.Len(t, sum.Segments, 2)
	assert.Equal(t, "L1", sum.Segments[0].Line)
	assert.Equal(t, "L2", sum.Segments[1].Line)
	assert.InDelta(t, utils.HaversineKm(0, 0, 0, 1)+utils.HaversineKm(0, 1, -1, 1), sum.TotalDistance, epsilon)

	assert.Equal(t, []ItineraryStep{
		{Index: 1, Line: "L1", From: "P", To: "D", StationCount: 2},
		{Index: 2, Line: "L2", From: "E", To: "S", StationCount: 2},
	}, sum.Itinerary())
}

func TestFindPathDisconnected(t *testing.T) {
	stations := append(abc(),
		station("X", "L9", 1, 10, 10, false),
		station("Y", "L9", 2, 10, 11, false),
	)
	g := mustBuild(t, stations)

	path, err := FindPath(g, "A", "Y")
	require.NoError(t, err)
	assert.NotNil(t, path)
	assert.Empty(t, path)

	route, err := Plan(g, "A", "Y")
	require.NoError(t, err)
	assert.False(t, route.Found())
	assert.Equal(t, 0, route.TransferCount)
	assert.Empty(t, route.Segments)
}

func TestFindPathNotFound(t *testing.T) {
	g := mustBuild(t, abc())

	_, err := FindPath(g, "nope", "A")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "nope")

	_, err = FindPath(g, "A", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr bool
	}{
		{"valid", "A", "C", false},
		{"same station", "A", "A", true},
		{"same station with padding", "A ", " A", true},
		{"missing start", "", "C", true},
		{"missing end", "A", "  ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	g := mustBuild(t, crossing())

	_, err := Plan(g, "P", "P")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = Plan(g, "P", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	route, err := Plan(g, "Q", "R")
	require.NoError(t, err)
	assert.True(t, route.Found())
	assert.Equal(t, "Q", route.From.ID)
	assert.Equal(t, "R", route.To.ID)
	assert.Equal(t, []string{"Q", "D", "E", "R"}, ids(route.Stations))
	assert.Equal(t, 1, route.TransferCount)
}

func TestPlanTrimsStationIDs(t *testing.T) {
	g := mustBuild(t, crossing())

	route, err := Plan(g, " Q", "R\t")
	require.NoError(t, err)
	assert.Equal(t, "Q", route.From.ID)
	assert.Equal(t, "R", route.To.ID)
	assert.Equal(t, []string{"Q", "D", "E", "R"}, ids(route.Stations))

	_, err = Plan(g, " P ", "P")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestFindPathTieBreak(t *testing.T) {
	// two equal-length ways around a square
	stations := []network.Station{
		station("S", "L1", 1, 0, 0, true),
		station("M1", "L1", 2, 0, 1, false),
		station("T", "L1", 3, 1, 1, true),
		station("S2", "L2", 1, 0, 0, true),
		station("M0", "L2", 2, 1, 0, false),
		station("T2", "L2", 3, 1, 1, true),
	}
	g := mustBuild(t, stations)

	first, err := FindPath(g, "S", "T")
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := FindPath(g, "S", "T")
		require.NoError(t, err)
		assert.Equal(t, ids(first), ids(again))
	}
}

func TestSummarizeShortPaths(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Equal(t, Summary{}, Summarize(abc()[:1]))
}

func TestSummarizePartition(t *testing.T) {
	path := []network.Station{
		station("1", "Red", 1, 0, 0, false),
		station("2", "Red", 2, 0, 0.1, true),
		station("3", "Blue", 1, 0, 0.1, true),
		station("4", "Blue", 2, 0.1, 0.1, true),
		station("5", "Red", 5, 0.1, 0.1, true),
		station("6", "Red", 6, 0.2, 0.1, false),
	}
	sum := Summarize(path)

	var joined []network.Station
	for _, seg := range sum.Segments {
		joined = append(joined, seg.Stations...)
	}
	assert.Equal(t, path, joined)
	assert.Equal(t, len(sum.Segments)-1, sum.TransferCount)
	assert.Equal(t, 2, sum.TransferCount, "returning to a line counts as another transfer")
	assert.Equal(t, "1", sum.Segments[0].First().ID)
	assert.Equal(t, "6", sum.Segments[2].Last().ID)
}

// randomNetwork places stations on a coarse grid so lines often share coordinates.
func randomNetwork(r *rand.Rand) []network.Station {
	var stations []network.Station
	lines := 2 + r.Intn(2)
	for l := 0; l < lines; l++ {
		n := 2 + r.Intn(2)
		for i := 0; i < n; i++ {
			stations = append(stations, station(
				fmt.Sprintf("L%d-%d", l, i),
				fmt.Sprintf("L%d", l),
				i,
				float64(r.Intn(3))*0.01,
				float64(r.Intn(3))*0.01,
				r.Intn(2) == 0,
			))
		}
	}
	return stations
}

// bruteForce returns the cheapest simple-path weight from start to end, or +Inf.
func bruteForce(g *Graph, start, end string) float64 {
	best := math.Inf(1)
	visited := map[string]bool{start: true}
	var walk func(id string, dist float64)
	walk = func(id string, dist float64) {
		if id == end {
			best = math.Min(best, dist)
			return
		}
		for _, e := range g.Edges(id) {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			walk(e.To, dist+e.Distance)
			visited[e.To] = false
		}
	}
	walk(start, 0)
	return best
}

func TestFindPathOptimalAgainstBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for trial := 0; trial < 40; trial++ {
		g := mustBuild(t, randomNetwork(r))
		nodes := g.StationIDs()
		for _, start := range nodes {
			for _, end := range nodes {
				if start == end {
					continue
				}
				path, err := FindPath(g, start, end)
				require.NoError(t, err)

				want := bruteForce(g, start, end)
				if math.IsInf(want, 1) {
					assert.Empty(t, path, "trial %d %s->%s", trial, start, end)
					continue
				}
				require.NotEmpty(t, path, "trial %d %s->%s", trial, start, end)
				assert.Equal(t, start, path[0].ID)
				assert.Equal(t, end, path[len(path)-1].ID)

				got := pathWeight(t, g, path)
				assert.InDelta(t, want, got, 1e-9, "trial %d %s->%s", trial, start, end)
				assert.InDelta(t, got, Summarize(path).TotalDistance, 1e-9)
			}
		}
	}
}

func TestFindPathIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	g := mustBuild(t, randomNetwork(r))
	nodes := g.StationIDs()
	start, end := nodes[0], nodes[len(nodes)-1]

	first, err := FindPath(g, start, end)
	require.NoError(t, err)
	second, err := FindPath(g, start, end)
	require.NoError(t, err)

	assert.InDelta(t, Summarize(first).TotalDistance, Summarize(second).TotalDistance, epsilon)
}

func TestFindPathConcurrent(t *testing.T) {
	g := mustBuild(t, crossing())
	want, err := FindPath(g, "P", "S")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]network.Station, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path, err := FindPath(g, "P", "S")
			if err == nil {
				results[i] = path
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, ids(want), ids(got))
	}
}
