// Package appconf holds the server configuration and the loader for
// JSON and YAML configuration files.
package appconf

import (
	"fmt"
	"strings"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment converts the textual environment used on the command line
// and in config files.
func EnvFlagToEnvironment(env string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "development", "dev":
		return Development, nil
	case "test":
		return Test, nil
	case "production", "prod":
		return Production, nil
	default:
		return Development, fmt.Errorf("unknown environment %q", env)
	}
}

// Config holds the HTTP server settings.
type Config struct {
	Port          int
	Env           Environment
	ApiKeys       []string
	ExemptApiKeys []string
	Verbose       bool
	RateLimit     int // requests per second per API key
}

// TransitConfigData carries the network source settings read from a config file.
// cmd/api turns it into a transit.Config.
type TransitConfigData struct {
	DataPath        string
	CoordinatesPath string
	WalkingPath     string
	Format          string
	DBPath          string
	RefreshInterval int // seconds; remote sources only
	Watch           bool
	Env             Environment
	Verbose         bool
}
