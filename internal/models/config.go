package models

type GitProperties struct {
	GitBranch         string `json:"git.branch"`
	GitBuildTime      string `json:"git.build.time"`
	GitBuildVersion   string `json:"git.build.version"`
	GitCommitId       string `json:"git.commit.id"`
	GitCommitIdAbbrev string `json:"git.commit.id.abbrev"`
	GitDirty          string `json:"git.dirty"`
}

// NetworkSummary describes the loaded network.
type NetworkSummary struct {
	Source               string   `json:"source"`
	Format               string   `json:"format"`
	LineCount            int      `json:"lineCount"`
	StationCount         int      `json:"stationCount"`
	TransferStationCount int      `json:"transferStationCount"`
	EdgeCount            int      `json:"edgeCount"`
	TransferEdgeCount    int      `json:"transferEdgeCount"`
	LastUpdated          int64    `json:"lastUpdated"`
	Warnings             []string `json:"warnings,omitempty"`
}

type ConfigModel struct {
	GitProperties GitProperties  `json:"gitProperties"`
	Id            string         `json:"id"`
	Name          string         `json:"name"`
	Network       NetworkSummary `json:"network"`
}
