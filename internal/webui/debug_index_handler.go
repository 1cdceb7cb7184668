package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"metroroute.org/internal/appconf"
	"metroroute.org/internal/routing"
	"metroroute.org/internal/transit"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

type debugData struct {
	Title string
	Pre   string
}

// transferPair is one zero-weight link between co-located stations.
type transferPair struct {
	From string
	To   string
}

type adjacency struct {
	Station string
	Edges   []routing.Edge
}

type networkInfo struct {
	Source               string
	Format               string
	Hash                 string
	LoadedAt             string
	Lines                int
	Stations             int
	TransferStations     int
	Edges                int
	TransferEdges        int
	TableCounts          map[string]int
	ImportRuntimeSeconds float64
}

var debugConfig = spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := debugTemplate.Execute(w, debugData{Title: title, Pre: debugConfig.Sdump(data)})
	if err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Config.Env == appconf.Production || webUI.Manager == nil {
		http.NotFound(w, r)
		return
	}

	snap := webUI.Manager.Snapshot()

	var (
		data  interface{}
		title string
	)
	switch r.URL.Query().Get("dataType") {
	case "info":
		data = webUI.info(snap)
		title = "Network - Info"
	case "stations":
		data = snap.Dataset.Stations
		title = "Network - Stations"
	case "lines":
		data = snap.Dataset.Lines
		title = "Network - Lines"
	case "transfers":
		data = transfers(snap.Graph)
		title = "Network - Transfers"
	case "graph":
		data = graphDump(snap.Graph)
		title = "Network - Graph"
	case "warnings":
		data = snap.Dataset.Warnings
		title = "Network - Import Warnings"
	default:
		data = map[string]string{
			"error": "Please use one of the following: info, stations, lines, transfers, graph, warnings.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}

func (webUI *WebUI) info(snap *transit.Snapshot) networkInfo {
	counts := snap.Info()
	info := networkInfo{
		Source:               snap.Dataset.Source,
		Format:               string(snap.Dataset.Format),
		Hash:                 snap.Hash,
		Lines:                counts.LineCount,
		Stations:             counts.StationCount,
		TransferStations:     counts.TransferStationCount,
		Edges:                snap.Graph.EdgeCount(),
		TransferEdges:        snap.Graph.TransferEdgeCount(),
		ImportRuntimeSeconds: webUI.Manager.DB.ImportRuntime().Seconds(),
	}
	if !snap.LoadedAt.IsZero() {
		info.LoadedAt = snap.LoadedAt.UTC().Format("2006-01-02 15:04:05 MST")
	}
	if tables, err := webUI.Manager.DB.TableCounts(); err == nil {
		info.TableCounts = tables
	} else {
		slog.Warn("failed to count network tables", "error", err)
	}
	return info
}

func transfers(g *routing.Graph) []transferPair {
	var out []transferPair
	for _, id := range g.StationIDs() {
		for _, e := range g.Edges(id) {
			if e.Transfer && id < e.To {
				out = append(out, transferPair{From: id, To: e.To})
			}
		}
	}
	return out
}

func graphDump(g *routing.Graph) []adjacency {
	out := make([]adjacency, 0, g.NodeCount())
	for _, id := range g.StationIDs() {
		out = append(out, adjacency{Station: id, Edges: g.Edges(id)})
	}
	return out
}
