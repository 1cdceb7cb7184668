package appconf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// JSONConfig mirrors the on-disk configuration file. YAML files use the same keys.
type JSONConfig struct {
	Port            int      `json:"port" yaml:"port" validate:"gte=0,lte=65535"`
	Env             string   `json:"env" yaml:"env" validate:"omitempty,oneof=development test production"`
	ApiKeys         []string `json:"api-keys" yaml:"api-keys" validate:"dive,required"`
	ExemptApiKeys   []string `json:"exempt-api-keys" yaml:"exempt-api-keys"`
	RateLimit       int      `json:"rate-limit" yaml:"rate-limit" validate:"gte=0"`
	Verbose         bool     `json:"verbose" yaml:"verbose"`
	DataPath        string   `json:"data-path" yaml:"data-path"`
	CoordinatesPath string   `json:"coordinates-path" yaml:"coordinates-path"`
	WalkingPath     string   `json:"walking-path" yaml:"walking-path"`
	Format          string   `json:"format" yaml:"format" validate:"omitempty,oneof=stations-csv line-table gtfs"`
	DBPath          string   `json:"db-path" yaml:"db-path"`
	RefreshInterval int      `json:"refresh-interval" yaml:"refresh-interval" validate:"gte=0"`
	Watch           bool     `json:"watch" yaml:"watch"`
}

var validate = validator.New()

// LoadFromFile reads, decodes and validates a configuration file. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadFromFile(path string) (*JSONConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg JSONConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and the cross-field rules the tags cannot express.
func (c *JSONConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Format == "line-table" && c.DataPath != "" && c.CoordinatesPath == "" {
		return fmt.Errorf("invalid configuration: line-table format requires coordinates-path")
	}
	return nil
}

func (c *JSONConfig) environment() Environment {
	env, err := EnvFlagToEnvironment(c.Env)
	if err != nil {
		return Development
	}
	return env
}

// ToAppConfig converts the file representation into the server Config.
func (c *JSONConfig) ToAppConfig() Config {
	apiKeys := c.ApiKeys
	if apiKeys == nil {
		apiKeys = []string{}
	}
	return Config{
		Port:          c.Port,
		Env:           c.environment(),
		ApiKeys:       apiKeys,
		ExemptApiKeys: c.ExemptApiKeys,
		Verbose:       c.Verbose,
		RateLimit:     c.RateLimit,
	}
}

// ToTransitConfigData extracts the network source settings.
func (c *JSONConfig) ToTransitConfigData() TransitConfigData {
	return TransitConfigData{
		DataPath:        c.DataPath,
		CoordinatesPath: c.CoordinatesPath,
		WalkingPath:     c.WalkingPath,
		Format:          c.Format,
		DBPath:          c.DBPath,
		RefreshInterval: c.RefreshInterval,
		Watch:           c.Watch,
		Env:             c.environment(),
		Verbose:         c.Verbose,
	}
}
