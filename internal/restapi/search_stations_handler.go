package restapi

import (
	"net/http"
	"strings"

	"metroroute.org/internal/models"
	"metroroute.org/internal/utils"
)

type searchStationsParams struct {
	Input    string `query:"input" validate:"required,max=100"`
	MaxCount int    `query:"maxCount" validate:"gte=1,lte=250"`
}

// searchStationsHandler matches station names, prefix matches first.
func (api *RestAPI) searchStationsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fieldErrors := map[string][]string{}

	params := searchStationsParams{
		Input:    strings.TrimSpace(query.Get("input")),
		MaxCount: defaultMaxCount,
	}
	if n, ok := utils.ParseIntParam(query, "maxCount", fieldErrors); ok {
		params.MaxCount = n
	}
	api.collectFieldErrors(params, fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	// one extra row tells us whether the limit cut the result
	stations, err := api.Manager.SearchStations(r.Context(), params.Input, params.MaxCount+1)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	limitExceeded := len(stations) > params.MaxCount
	if limitExceeded {
		stations = stations[:params.MaxCount]
	}

	refs := newReferenceBuilder(api.Manager.Snapshot())
	for _, s := range stations {
		refs.addLineOf(s)
	}

	api.sendResponse(w, r, models.NewListResponse(models.NewStations(stations), refs.build(), limitExceeded, api.Clock))
}
