package transit

import (
	"strings"
	"time"

	"metroroute.org/internal/appconf"
	"metroroute.org/internal/network"
)

// Config holds the network sources and storage settings for the manager.
type Config struct {
	// DataPath is a local file or an http(s) URL. Empty means serve the persisted network.
	DataPath        string
	CoordinatesPath string
	WalkingPath     string
	Format          network.Format

	AuthHeaderKey   string
	AuthHeaderValue string

	DBPath string
	// RefreshInterval re-fetches remote sources; zero disables it.
	RefreshInterval time.Duration
	// Watch reloads local sources when their files change.
	Watch bool

	Env     appconf.Environment
	Verbose bool
}

func (config Config) dbPath() string {
	if config.DBPath == "" {
		return ":memory:"
	}
	return config.DBPath
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// localPaths returns the configured sources that live on disk.
func (config Config) localPaths() []string {
	var paths []string
	for _, p := range []string{config.DataPath, config.CoordinatesPath, config.WalkingPath} {
		if p != "" && !isRemote(p) {
			paths = append(paths, p)
		}
	}
	return paths
}

func (config Config) hasRemoteSource() bool {
	for _, p := range []string{config.DataPath, config.CoordinatesPath, config.WalkingPath} {
		if isRemote(p) {
			return true
		}
	}
	return false
}

// FromAppConf converts file configuration values into a manager configuration.
func FromAppConf(data appconf.TransitConfigData) Config {
	return Config{
		DataPath:        data.DataPath,
		CoordinatesPath: data.CoordinatesPath,
		WalkingPath:     data.WalkingPath,
		Format:          network.Format(data.Format),
		DBPath:          data.DBPath,
		RefreshInterval: time.Duration(data.RefreshInterval) * time.Second,
		Watch:           data.Watch,
		Env:             data.Env,
		Verbose:         data.Verbose,
	}
}
