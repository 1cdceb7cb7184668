// Command api serves the metro route planner over HTTP.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"metroroute.org/internal/appconf"
	"metroroute.org/internal/network"
	"metroroute.org/internal/transit"
)

func main() {
	var (
		configPath      = flag.String("config", "", "path to a JSON or YAML config file; other flags are ignored when set")
		port            = flag.Int("port", 4000, "API server port")
		env             = flag.String("env", "development", "environment (development|test|production)")
		apiKeys         = flag.String("api-keys", "test", "comma separated API keys")
		exemptKeys      = flag.String("exempt-api-keys", "", "comma separated API keys that skip rate limiting")
		rateLimit       = flag.Int("rate-limit", 100, "requests per second per API key")
		verbose         = flag.Bool("verbose", false, "debug logging")
		dataPath        = flag.String("data", "", "network source: station CSV, line table CSV or GTFS zip (path or URL)")
		coordinatesPath = flag.String("coordinates", "", "station coordinate CSV for line tables")
		walkingPath     = flag.String("walking", "", "walking link CSV for line tables")
		format          = flag.String("format", "", "source format (stations-csv|line-table|gtfs); detected when empty")
		dbPath          = flag.String("db", "network.db", "SQLite database path, or :memory:")
		refresh         = flag.Duration("refresh", time.Hour, "refresh interval for remote sources, 0 disables")
		watch           = flag.Bool("watch", true, "reload local sources when they change")
		authHeaderKey   = flag.String("source-auth-header", "", "header sent when fetching remote sources")
		authHeaderValue = flag.String("source-auth-value", "", "value for -source-auth-header")
	)
	flag.Parse()

	cfg, transitCfg, err := loadConfig(*configPath, flagValues{
		port:            *port,
		env:             *env,
		apiKeys:         *apiKeys,
		exemptKeys:      *exemptKeys,
		rateLimit:       *rateLimit,
		verbose:         *verbose,
		dataPath:        *dataPath,
		coordinatesPath: *coordinatesPath,
		walkingPath:     *walkingPath,
		format:          *format,
		dbPath:          *dbPath,
		refresh:         *refresh,
		watch:           *watch,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	transitCfg.AuthHeaderKey = *authHeaderKey
	transitCfg.AuthHeaderValue = *authHeaderValue

	coreApp, err := BuildApplication(cfg, transitCfg)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	srv, api := CreateServer(coreApp, cfg)
	if err := Run(srv, coreApp, api); err != nil {
		coreApp.Logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

type flagValues struct {
	port            int
	env             string
	apiKeys         string
	exemptKeys      string
	rateLimit       int
	verbose         bool
	dataPath        string
	coordinatesPath string
	walkingPath     string
	format          string
	dbPath          string
	refresh         time.Duration
	watch           bool
}

// loadConfig builds both configurations from a config file when one is given,
// otherwise from the command line flags.
func loadConfig(configPath string, flags flagValues) (appconf.Config, transit.Config, error) {
	if configPath != "" {
		fileCfg, err := appconf.LoadFromFile(configPath)
		if err != nil {
			return appconf.Config{}, transit.Config{}, err
		}
		return fileCfg.ToAppConfig(), transit.FromAppConf(fileCfg.ToTransitConfigData()), nil
	}

	environment, err := appconf.EnvFlagToEnvironment(flags.env)
	if err != nil {
		return appconf.Config{}, transit.Config{}, err
	}
	var sourceFormat network.Format
	if flags.format != "" {
		if sourceFormat, err = network.ParseFormat(flags.format); err != nil {
			return appconf.Config{}, transit.Config{}, err
		}
	}

	cfg := appconf.Config{
		Port:          flags.port,
		Env:           environment,
		ApiKeys:       ParseAPIKeys(flags.apiKeys),
		ExemptApiKeys: ParseAPIKeys(flags.exemptKeys),
		Verbose:       flags.verbose,
		RateLimit:     flags.rateLimit,
	}
	transitCfg := transit.Config{
		DataPath:        flags.dataPath,
		CoordinatesPath: flags.coordinatesPath,
		WalkingPath:     flags.walkingPath,
		Format:          sourceFormat,
		DBPath:          flags.dbPath,
		RefreshInterval: flags.refresh,
		Watch:           flags.watch,
		Env:             environment,
		Verbose:         flags.verbose,
	}
	return cfg, transitCfg, nil
}
