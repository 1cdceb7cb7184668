package restapi

import (
	"net/http"

	"metroroute.org/internal/models"
	"metroroute.org/internal/utils"
)

func (api *RestAPI) linesHandler(w http.ResponseWriter, r *http.Request) {
	snap := api.Manager.Snapshot()

	list := make([]models.Line, 0, len(snap.Dataset.Lines))
	for _, line := range snap.Dataset.Lines {
		list = append(list, models.NewLine(line))
	}

	api.sendResponse(w, r, models.NewListResponse(list, models.NewEmptyReferences(), false, api.Clock))
}

// lineHandler returns one line with its stations as references.
func (api *RestAPI) lineHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.ExtractIDFromParams(r)
	if err := utils.ValidateID(id); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return
	}

	snap := api.Manager.Snapshot()
	line, ok := snap.Line(id)
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	refs := newReferenceBuilder(snap)
	for _, s := range line.Stations {
		refs.addStation(s)
	}

	api.sendResponse(w, r, models.NewEntryResponse(models.NewLine(line), refs.build(), api.Clock))
}
