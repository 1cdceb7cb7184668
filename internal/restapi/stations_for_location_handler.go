package restapi

import (
	"math"
	"net/http"

	"metroroute.org/internal/models"
	"metroroute.org/internal/utils"
)

type locationParams struct {
	Lat      float64 `query:"lat" validate:"gte=-90,lte=90"`
	Lon      float64 `query:"lon" validate:"gte=-180,lte=180"`
	Radius   float64 `query:"radius" validate:"gt=0,lte=50000"`
	MaxCount int     `query:"maxCount" validate:"gte=1,lte=250"`
}

// stationsForLocationHandler lists stations within radius meters of lat/lon, nearest first.
func (api *RestAPI) stationsForLocationHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fieldErrors := map[string][]string{}

	params := locationParams{Radius: defaultLocationRadiusM, MaxCount: defaultMaxCount}
	lat, hasLat := utils.ParseFloatParam(query, "lat", fieldErrors)
	lon, hasLon := utils.ParseFloatParam(query, "lon", fieldErrors)
	if !hasLat && fieldErrors["lat"] == nil {
		fieldErrors["lat"] = []string{"lat is required"}
	}
	if !hasLon && fieldErrors["lon"] == nil {
		fieldErrors["lon"] = []string{"lon is required"}
	}
	params.Lat, params.Lon = lat, lon
	if radius, ok := utils.ParseFloatParam(query, "radius", fieldErrors); ok {
		params.Radius = radius
	}
	if n, ok := utils.ParseIntParam(query, "maxCount", fieldErrors); ok {
		params.MaxCount = n
	}
	api.collectFieldErrors(params, fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	snap := api.Manager.Snapshot()
	found := snap.StationsForLocation(params.Lat, params.Lon, params.Radius, params.MaxCount+1)
	limitExceeded := len(found) > params.MaxCount
	if limitExceeded {
		found = found[:params.MaxCount]
	}

	refs := newReferenceBuilder(snap)
	list := make([]models.StationWithDistance, 0, len(found))
	for _, f := range found {
		list = append(list, models.StationWithDistance{
			Station:  models.NewStation(f.Station),
			Distance: math.Round(f.DistanceMeters*10) / 10,
		})
		refs.addLineOf(f.Station)
	}

	api.sendResponse(w, r, models.NewListResponse(list, refs.build(), limitExceeded, api.Clock))
}
