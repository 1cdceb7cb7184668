package restapi

import (
	"net/http"
	"strings"

	"metroroute.org/internal/models"
	"metroroute.org/internal/network"
	"metroroute.org/internal/transit"
	"metroroute.org/internal/utils"
)

// stationsHandler lists every station, optionally only those of ?line= (name or id).
func (api *RestAPI) stationsHandler(w http.ResponseWriter, r *http.Request) {
	snap := api.Manager.Snapshot()
	lineFilter := strings.TrimSpace(r.URL.Query().Get("line"))

	refs := newReferenceBuilder(snap)
	list := make([]models.Station, 0, len(snap.Dataset.Stations))
	for _, s := range snap.Dataset.Stations {
		if lineFilter != "" && s.Line != lineFilter && s.LineID != lineFilter {
			continue
		}
		list = append(list, models.NewStation(s))
		refs.addLineOf(s)
	}

	api.sendResponse(w, r, models.NewListResponse(list, refs.build(), false, api.Clock))
}

func (api *RestAPI) stationHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.ExtractIDFromParams(r)
	if err := utils.ValidateID(id); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return
	}

	snap := api.Manager.Snapshot()
	station, ok := snap.Station(id)
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	refs := newReferenceBuilder(snap)
	refs.addLineOf(station)
	for _, other := range transferPartners(snap, station) {
		refs.addStation(other)
		refs.addLineOf(other)
	}

	api.sendResponse(w, r, models.NewEntryResponse(models.NewStation(station), refs.build(), api.Clock))
}

// transferPartners returns the stations reachable from s over a transfer edge.
func transferPartners(snap *transit.Snapshot, s network.Station) []network.Station {
	var out []network.Station
	for _, e := range snap.Graph.Edges(s.ID) {
		if !e.Transfer {
			continue
		}
		if other, ok := snap.Station(e.To); ok {
			out = append(out, other)
		}
	}
	return out
}
