package restapi

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"metroroute.org/internal/logging"
	"metroroute.org/internal/models"
	"metroroute.org/internal/network"
	"metroroute.org/internal/transit"
)

const maxNetworkUploadBytes = 64 << 20

// replaceNetworkHandler swaps the served network for the uploaded one. The body is
// either the raw file, or a multipart form with "data", "coordinates" and "walking"
// parts for line tables. The previous network stays in place on any error.
func (api *RestAPI) replaceNetworkHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNetworkUploadBytes)

	src := network.Source{Name: "upload"}
	if raw := strings.TrimSpace(r.URL.Query().Get("format")); raw != "" {
		format, err := network.ParseFormat(raw)
		if err != nil {
			api.validationErrorResponse(w, r, map[string][]string{"format": {err.Error()}})
			return
		}
		src.Format = format
	}

	if err := readNetworkUpload(r, &src); err != nil {
		api.sendError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(src.Data) == 0 {
		api.validationErrorResponse(w, r, map[string][]string{"data": {"request body is empty"}})
		return
	}

	snap, err := api.Manager.ReplaceNetwork(r.Context(), src)
	if err != nil {
		api.sendDomainError(w, r, err)
		return
	}

	info := snap.Info()
	logging.LogOperation(logging.FromContext(r.Context()), "network_uploaded",
		slog.String("format", string(snap.Dataset.Format)),
		slog.Int("stations", info.StationCount))

	api.sendResponse(w, r, models.NewEntryResponse(networkSummary(snap), models.NewEmptyReferences(), api.Clock))
}

// clearNetworkHandler drops the served and stored network. Configured sources
// load again on their next change or refresh.
func (api *RestAPI) clearNetworkHandler(w http.ResponseWriter, r *http.Request) {
	if err := api.Manager.ClearNetwork(r.Context()); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	logging.LogOperation(logging.FromContext(r.Context()), "network_cleared")

	snap := api.Manager.Snapshot()
	api.sendResponse(w, r, models.NewEntryResponse(networkSummary(snap), models.NewEmptyReferences(), api.Clock))
}

func networkSummary(snap *transit.Snapshot) models.NetworkSummary {
	info := snap.Info()
	summary := models.NetworkSummary{
		Source:               snap.Dataset.Source,
		Format:               string(snap.Dataset.Format),
		LineCount:            info.LineCount,
		StationCount:         info.StationCount,
		TransferStationCount: info.TransferStationCount,
		EdgeCount:            snap.Graph.EdgeCount(),
		TransferEdgeCount:    snap.Graph.TransferEdgeCount(),
		Warnings:             snap.Dataset.Warnings,
	}
	if !snap.LoadedAt.IsZero() {
		summary.LastUpdated = snap.LoadedAt.UnixMilli()
	}
	return summary
}

func readNetworkUpload(r *http.Request, src *network.Source) error {
	mediaType, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return fmt.Errorf("failed to read request body: %w", err)
		}
		src.Data = data
		return nil
	}

	reader := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read multipart body: %w", err)
		}

		var target *[]byte
		switch part.FormName() {
		case "data":
			target = &src.Data
			if part.FileName() != "" {
				src.Name = part.FileName()
			}
		case "coordinates":
			target = &src.Coordinates
		case "walking":
			target = &src.Walking
		}
		if target != nil {
			if *target, err = io.ReadAll(part); err != nil {
				_ = part.Close()
				return fmt.Errorf("failed to read part %q: %w", part.FormName(), err)
			}
		}
		_ = part.Close()
	}
}
