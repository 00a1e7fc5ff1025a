package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// ContextURL is the base URL of the combined-context proxy that fronts
	// the Pieces, Linear, and Notion sources.
	ContextURL string `json:"context_url"`

	// GraphURL is the base URL of the temporal knowledge-graph service.
	GraphURL string `json:"graph_url"`

	// DossierTTLMinutes is the dossier cache lifetime in minutes.
	DossierTTLMinutes int `json:"dossier_ttl_minutes,omitempty"`

	// GraphTTLSeconds is the graph cache lifetime in seconds. The graph
	// changes on every conversational turn, so this is deliberately short.
	GraphTTLSeconds int `json:"graph_ttl_seconds,omitempty"`

	// HealthPollSeconds is the interval for graph-health polling.
	HealthPollSeconds int `json:"health_poll_seconds,omitempty"`

	// HTTPTimeoutSeconds is the transport-level timeout for upstream calls.
	// 0 means no timeout (cancellation is not supported at the core layer).
	HTTPTimeoutSeconds int `json:"http_timeout_seconds,omitempty"`

	// WebBind and WebPort configure the web surface started by `attache serve`.
	WebBind string `json:"web_bind,omitempty"`
	WebPort int    `json:"web_port,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ContextURL:        "http://localhost:3001",
		GraphURL:          "http://localhost:8500",
		DossierTTLMinutes: 15,
		GraphTTLSeconds:   2,
		HealthPollSeconds: 30,
		WebBind:           "127.0.0.1",
		WebPort:           8711,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.attache.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.ContextURL = overlay.ContextURL
	if result.ContextURL == "" {
		result.ContextURL = base.ContextURL
	}

	result.GraphURL = overlay.GraphURL
	if result.GraphURL == "" {
		result.GraphURL = base.GraphURL
	}

	result.WebBind = overlay.WebBind
	if result.WebBind == "" {
		result.WebBind = base.WebBind
	}

	result.DossierTTLMinutes = overlay.DossierTTLMinutes
	if result.DossierTTLMinutes == 0 {
		result.DossierTTLMinutes = base.DossierTTLMinutes
	}

	result.GraphTTLSeconds = overlay.GraphTTLSeconds
	if result.GraphTTLSeconds == 0 {
		result.GraphTTLSeconds = base.GraphTTLSeconds
	}

	result.HealthPollSeconds = overlay.HealthPollSeconds
	if result.HealthPollSeconds == 0 {
		result.HealthPollSeconds = base.HealthPollSeconds
	}

	result.HTTPTimeoutSeconds = overlay.HTTPTimeoutSeconds
	if result.HTTPTimeoutSeconds == 0 {
		result.HTTPTimeoutSeconds = base.HTTPTimeoutSeconds
	}

	result.WebPort = overlay.WebPort
	if result.WebPort == 0 {
		result.WebPort = base.WebPort
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
