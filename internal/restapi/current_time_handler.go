package restapi

import (
	"net/http"

	"metroroute.org/internal/models"
)

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	if !api.Manager.IsHealthy() {
		api.sendError(w, r, http.StatusServiceUnavailable, "network data unavailable")
		return
	}

	entry := models.NewCurrentTime(api.Clock.Now())
	api.sendResponse(w, r, models.NewEntryResponse(entry, models.NewEmptyReferences(), api.Clock))
}
