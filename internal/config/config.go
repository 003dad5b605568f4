package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rotisserie/eris"

	"github.com/five82/flowgate/internal/flow"
)

// Config is the resolved host configuration.
type Config struct {
	BaseEndpoint       string
	RequestTimeout     time.Duration
	Warmup             time.Duration
	AttributionTimeout time.Duration
	SuppressionWindow  time.Duration
	RatingDelay        time.Duration
	ActivationDate     time.Time
	DeviceClass        string
	ExcludedDevices    []string

	Store       Store
	Log         Log
	Metrics     Metrics
	Attribution Attribution
}

// Store selects the persistent key-value backend.
type Store struct {
	Backend string // file or sqlite
	Path    string // empty uses the backend default
}

// Log configures the zap logger.
type Log struct {
	Level  string
	Format string // json or console
	Path   string
}

// Metrics configures the Prometheus listener. An empty Addr disables it.
type Metrics struct {
	Addr string
}

// Attribution drives the simulated attribution source of the host binary.
type Attribution struct {
	InstallID string
	Delay     time.Duration
	Fields    map[string]string
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	defaultConfigPath     = "~/.config/flowgate/config.toml"
	defaultLogPath        = "~/.local/share/flowgate/flowgate.log"
	defaultSQLitePath     = "~/.local/share/flowgate/state.db"
	defaultDeviceClass    = "phone"
	defaultRequestTimeout = 10 * time.Second
	dateLayout            = "2006-01-02"
)

var (
	ErrInvalid         = eris.New("config: invalid")
	ErrMissingEndpoint = eris.New("config: base_endpoint is required")
)

// Default returns the configuration used when no file exists.
func Default() Config {
	s := flow.DefaultSettings()
	return Config{
		RequestTimeout:     defaultRequestTimeout,
		Warmup:             s.Warmup,
		AttributionTimeout: s.AttributionTimeout,
		SuppressionWindow:  s.SuppressionWindow,
		RatingDelay:        s.RatingDelay,
		ActivationDate:     s.ActivationDate,
		DeviceClass:        defaultDeviceClass,
		ExcludedDevices:    s.ExcludedDevices,
		Store:              Store{Backend: BackendFile},
		Log:                Log{Level: "info", Format: "json", Path: mustExpand(defaultLogPath)},
	}
}

type fileConfig struct {
	BaseEndpoint       string   `toml:"base_endpoint"`
	RequestTimeout     string   `toml:"request_timeout"`
	Warmup             string   `toml:"warmup"`
	AttributionTimeout string   `toml:"attribution_timeout"`
	SuppressionWindow  string   `toml:"suppression_window"`
	RatingDelay        string   `toml:"rating_delay"`
	ActivationDate     string   `toml:"activation_date"`
	DeviceClass        string   `toml:"device_class"`
	ExcludedDevices    []string `toml:"excluded_devices"`

	Store struct {
		Backend string `toml:"backend"`
		Path    string `toml:"path"`
	} `toml:"store"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
		Path   string `toml:"path"`
	} `toml:"log"`
	Metrics struct {
		Addr string `toml:"addr"`
	} `toml:"metrics"`
	Attribution struct {
		InstallID string            `toml:"install_id"`
		Delay     string            `toml:"delay"`
		Fields    map[string]string `toml:"fields"`
	} `toml:"attribution"`
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, eris.Wrap(err, "open config")
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, eris.Wrap(err, "read config")
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, eris.Wrap(err, "parse config")
	}
	if err := cfg.merge(raw); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) merge(raw fileConfig) error {
	c.BaseEndpoint = strings.TrimSpace(raw.BaseEndpoint)

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &c.RequestTimeout},
		{"warmup", raw.Warmup, &c.Warmup},
		{"attribution_timeout", raw.AttributionTimeout, &c.AttributionTimeout},
		{"suppression_window", raw.SuppressionWindow, &c.SuppressionWindow},
		{"rating_delay", raw.RatingDelay, &c.RatingDelay},
		{"attribution.delay", raw.Attribution.Delay, &c.Attribution.Delay},
	}
	for _, d := range durations {
		value := strings.TrimSpace(d.raw)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed < 0 {
			return eris.Wrapf(ErrInvalid, "%s: %q is not a non-negative duration", d.name, d.raw)
		}
		*d.dst = parsed
	}

	if value := strings.TrimSpace(raw.ActivationDate); value != "" {
		parsed, err := time.ParseInLocation(dateLayout, value, time.UTC)
		if err != nil {
			return eris.Wrapf(ErrInvalid, "activation_date: %q is not YYYY-MM-DD", raw.ActivationDate)
		}
		c.ActivationDate = parsed
	}

	if value := strings.TrimSpace(raw.DeviceClass); value != "" {
		c.DeviceClass = value
	}
	if raw.ExcludedDevices != nil {
		c.ExcludedDevices = trimAll(raw.ExcludedDevices)
	}

	switch backend := strings.ToLower(strings.TrimSpace(raw.Store.Backend)); backend {
	case "":
	case BackendFile, BackendSQLite:
		c.Store.Backend = backend
	default:
		return eris.Wrapf(ErrInvalid, "store.backend: unknown backend %q", raw.Store.Backend)
	}
	if value := strings.TrimSpace(raw.Store.Path); value != "" {
		c.Store.Path = mustExpand(value)
	}
	if c.Store.Backend == BackendSQLite && c.Store.Path == "" {
		c.Store.Path = mustExpand(defaultSQLitePath)
	}

	if value := strings.TrimSpace(raw.Log.Level); value != "" {
		c.Log.Level = strings.ToLower(value)
	}
	if value := strings.TrimSpace(raw.Log.Format); value != "" {
		c.Log.Format = strings.ToLower(value)
	}
	if value := strings.TrimSpace(raw.Log.Path); value != "" {
		c.Log.Path = mustExpand(value)
	}

	c.Metrics.Addr = strings.TrimSpace(raw.Metrics.Addr)

	c.Attribution.InstallID = strings.TrimSpace(raw.Attribution.InstallID)
	c.Attribution.Fields = raw.Attribution.Fields
	return nil
}

// Validate checks the settings needed to run the flow.
func (c Config) Validate() error {
	if c.BaseEndpoint == "" {
		return ErrMissingEndpoint
	}
	if !strings.HasPrefix(c.BaseEndpoint, "http://") && !strings.HasPrefix(c.BaseEndpoint, "https://") {
		return eris.Wrapf(ErrInvalid, "base_endpoint: %q is not an http url", c.BaseEndpoint)
	}
	return nil
}

// FlowSettings converts the config into controller settings.
func (c Config) FlowSettings() flow.Settings {
	return flow.Settings{
		Warmup:             orImmediate(c.Warmup),
		AttributionTimeout: orImmediate(c.AttributionTimeout),
		SuppressionWindow:  orImmediate(c.SuppressionWindow),
		RatingDelay:        orImmediate(c.RatingDelay),
		ActivationDate:     c.ActivationDate,
		ExcludedDevices:    c.ExcludedDevices,
	}
}

// orImmediate maps an explicit zero to the controller's "no delay" value.
func orImmediate(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", eris.New("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", eris.Wrap(err, "resolve home dir")
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
