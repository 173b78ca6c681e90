// Package config provides configuration types, defaults, and persistence for geosift.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/geosift/internal/geo"
	"github.com/zjrosen/geosift/internal/log"
	"github.com/zjrosen/geosift/internal/tracing"
)

// Config holds all configuration options for geosift.
type Config struct {
	Server     ServerConfig   `mapstructure:"server"`
	Search     SearchConfig   `mapstructure:"search"`
	Map        MapConfig      `mapstructure:"map"`
	UI         UIConfig       `mapstructure:"ui"`
	Keys       KeysConfig     `mapstructure:"keys"`
	Cache      CacheConfig    `mapstructure:"cache"`
	Tracing    tracing.Config `mapstructure:"tracing"`
	Metrics    MetricsConfig  `mapstructure:"metrics"`
	AutoReload bool           `mapstructure:"auto_reload"`
}

// ServerConfig points at the search service.
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SearchConfig controls how filter edits become requests.
type SearchConfig struct {
	Limit    int           `mapstructure:"limit"`    // 0 omits the limit parameter
	Debounce time.Duration `mapstructure:"debounce"` // delay after the last filter keystroke
}

// MapConfig holds the initial view and circle placement settings.
type MapConfig struct {
	CenterLat     float64 `mapstructure:"center_lat"`
	CenterLon     float64 `mapstructure:"center_lon"`
	Zoom          int     `mapstructure:"zoom"`
	PlaceZoom     int     `mapstructure:"place_zoom"`
	CircleRadiusM float64 `mapstructure:"circle_radius_m"`
}

// Center returns the configured initial center.
func (m MapConfig) Center() geo.LatLng {
	return geo.LatLng{Lat: m.CenterLat, Lng: m.CenterLon}
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
	ShowStatusBar bool   `mapstructure:"show_status_bar"`
}

// KeysConfig rebinds the auxiliary keys. The mode keys are fixed.
type KeysConfig struct {
	Paste string `mapstructure:"paste"`
	Yank  string `mapstructure:"yank"`
}

// CacheConfig controls the columns cache.
type CacheConfig struct {
	ColumnsTTL time.Duration `mapstructure:"columns_ttl"` // 0 disables caching
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the endpoint
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			URL:     "http://localhost:5000",
			Timeout: 10 * time.Second,
		},
		Search: SearchConfig{
			Limit:    0,
			Debounce: 300 * time.Millisecond,
		},
		Map: MapConfig{
			CenterLat:     39.212156,
			CenterLon:     -99.734376,
			Zoom:          4,
			PlaceZoom:     5,
			CircleRadiusM: 50000,
		},
		UI: UIConfig{
			MarkdownStyle: "dark",
			ShowStatusBar: true,
		},
		Cache: CacheConfig{
			ColumnsTTL: 5 * time.Minute,
		},
		Tracing:    tracing.DefaultConfig(),
		AutoReload: true,
	}
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/geosift/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "geosift", "traces", "traces.jsonl")
}

// Validate checks every section and returns the first error found.
func (c Config) Validate() error {
	if err := ValidateServer(c.Server); err != nil {
		return err
	}
	if err := ValidateSearch(c.Search); err != nil {
		return err
	}
	if err := ValidateMap(c.Map); err != nil {
		return err
	}
	switch c.UI.MarkdownStyle {
	case "", "dark", "light":
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\" or \"light\", got %q", c.UI.MarkdownStyle)
	}
	if c.Cache.ColumnsTTL < 0 {
		return fmt.Errorf("cache.columns_ttl must not be negative, got %s", c.Cache.ColumnsTTL)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateServer checks the search service location.
func ValidateServer(s ServerConfig) error {
	if s.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("server.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url must use http or https, got %q", s.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("server.url must include a host, got %q", s.URL)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative, got %s", s.Timeout)
	}
	return nil
}

// ValidateSearch checks the search settings.
func ValidateSearch(s SearchConfig) error {
	if s.Limit < 0 {
		return fmt.Errorf("search.limit must not be negative, got %d", s.Limit)
	}
	if s.Debounce < 0 {
		return fmt.Errorf("search.debounce must not be negative, got %s", s.Debounce)
	}
	return nil
}

// ValidateMap checks the initial view and placement settings.
func ValidateMap(m MapConfig) error {
	if err := m.Center().Validate(); err != nil {
		return fmt.Errorf("map center: %w", err)
	}
	if m.Zoom < geo.MinZoom || m.Zoom > geo.MaxZoom {
		return fmt.Errorf("map.zoom must be between %d and %d, got %d", geo.MinZoom, geo.MaxZoom, m.Zoom)
	}
	if m.PlaceZoom < geo.MinZoom || m.PlaceZoom > geo.MaxZoom {
		return fmt.Errorf("map.place_zoom must be between %d and %d, got %d", geo.MinZoom, geo.MaxZoom, m.PlaceZoom)
	}
	if m.CircleRadiusM <= 0 {
		return fmt.Errorf("map.circle_radius_m must be positive, got %v", m.CircleRadiusM)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	if t.Exporter != "" {
		switch t.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
		}
	}

	// Path requirements only matter when tracing is on.
	if t.Enabled {
		if t.Exporter == "file" && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == "otlp" && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Geosift Configuration

# Search service
server:
  url: http://localhost:5000
  timeout: 10s

search:
  # Maximum results per request (0 = let the server decide)
  limit: 0
  # Delay after the last filter keystroke before searching
  debounce: 300ms

# Initial map view. place_zoom is used when a circle is placed from typed
# coordinates; circle_radius_m is that circle's radius.
map:
  center_lat: 39.212156
  center_lon: -99.734376
  zoom: 4
  place_zoom: 5
  circle_radius_m: 50000

ui:
  markdown_style: dark
  show_status_bar: true

# Auxiliary key overrides (mode keys r/c/e/space/esc/enter/1/2 are fixed)
# keys:
#   paste: ctrl+v
#   yank: y

cache:
  # How long /get_columns and /get_search_columns responses are reused (0 = never)
  columns_ttl: 5m

# Reload search settings when this file changes
auto_reload: true

# Prometheus metrics endpoint (disabled when empty)
# metrics:
#   addr: 127.0.0.1:9464

# Distributed tracing of search requests
# tracing:
#   enabled: true
#   exporter: file          # none, file, stdout, otlp
#   file_path: ~/.config/geosift/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
