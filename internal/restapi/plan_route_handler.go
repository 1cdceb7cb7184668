package restapi

import (
	"math"
	"net/http"

	"github.com/twpayne/go-polyline"

	"metroroute.org/internal/models"
	"metroroute.org/internal/network"
	"metroroute.org/internal/routing"
	"metroroute.org/internal/transit"
)

// planRouteHandler answers ?from=&to= with the shortest route. An unreachable
// destination is a normal answer with found=false.
func (api *RestAPI) planRouteHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	snap := api.Manager.Snapshot()
	route, err := api.Manager.PlanRouteOn(r.Context(), snap, query.Get("from"), query.Get("to"))
	if err != nil {
		api.sendDomainError(w, r, err)
		return
	}

	plan, refs := newRoutePlan(snap, route)
	api.sendResponse(w, r, models.NewEntryResponse(plan, refs, api.Clock))
}

func newRoutePlan(snap *transit.Snapshot, route routing.Route) (models.RoutePlan, models.ReferencesModel) {
	refs := newReferenceBuilder(snap)
	refs.addStation(route.From)
	refs.addStation(route.To)

	plan := models.RoutePlan{
		FromStationId: route.From.ID,
		ToStationId:   route.To.ID,
		Found:         route.Found(),
		TotalDistance: roundKm(route.TotalDistance),
		TransferCount: route.TransferCount,
		StationIds:    make([]string, 0, len(route.Stations)),
		Segments:      make([]models.RouteSegment, 0, len(route.Segments)),
		Itinerary:     make([]models.ItineraryStep, 0, len(route.Segments)),
	}

	for _, s := range route.Stations {
		plan.StationIds = append(plan.StationIds, s.ID)
		refs.addStation(s)
		refs.addLineOf(s)
	}

	for i, seg := range route.Segments {
		plan.Segments = append(plan.Segments, models.RouteSegment{
			Index:      i + 1,
			LineId:     seg.LineID,
			Line:       seg.Line,
			Color:      snap.LineColor(seg.First()),
			Distance:   roundKm(seg.Distance),
			StationIds: stationIDs(seg.Stations),
			Polyline:   encodePolyline(seg.Stations),
		})
	}
	for _, step := range route.Itinerary() {
		plan.Itinerary = append(plan.Itinerary, models.ItineraryStep{
			Index:        step.Index,
			Line:         step.Line,
			From:         step.From,
			To:           step.To,
			StationCount: step.StationCount,
		})
	}

	return plan, refs.build()
}

func stationIDs(stations []network.Station) []string {
	ids := make([]string, 0, len(stations))
	for _, s := range stations {
		ids = append(ids, s.ID)
	}
	return ids
}

func encodePolyline(stations []network.Station) string {
	coords := make([][]float64, 0, len(stations))
	for _, s := range stations {
		coords = append(coords, []float64{s.Lat, s.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

// roundKm keeps responses stable to the meter.
func roundKm(km float64) float64 {
	return math.Round(km*1000) / 1000
}
