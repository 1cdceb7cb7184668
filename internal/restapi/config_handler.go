package restapi

import (
	"net/http"

	"metroroute.org/internal/buildinfo"
	"metroroute.org/internal/models"
)

func (api *RestAPI) configHandler(w http.ResponseWriter, r *http.Request) {
	shortHash := "unknown"
	if len(buildinfo.CommitHash) >= 7 {
		shortHash = buildinfo.CommitHash[:7]
	}

	entry := models.ConfigModel{
		GitProperties: models.GitProperties{
			GitBranch:         buildinfo.Branch,
			GitBuildTime:      buildinfo.BuildTime,
			GitBuildVersion:   buildinfo.Version,
			GitCommitId:       buildinfo.CommitHash,
			GitCommitIdAbbrev: shortHash,
			GitDirty:          buildinfo.Dirty,
		},
		Id:      "metroroute",
		Name:    "Metro Route Planner",
		Network: networkSummary(api.Manager.Snapshot()),
	}

	api.sendResponse(w, r, models.NewEntryResponse(entry, models.NewEmptyReferences(), api.Clock))
}
