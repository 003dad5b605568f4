package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/five82/flowgate/internal/flow"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Warmup != flow.DefaultWarmup {
		t.Fatalf("Warmup = %v, want %v", cfg.Warmup, flow.DefaultWarmup)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("RequestTimeout = %v, want %v", cfg.RequestTimeout, defaultRequestTimeout)
	}
	if !cfg.ActivationDate.Equal(flow.DefaultActivationDate) {
		t.Fatalf("ActivationDate = %v, want %v", cfg.ActivationDate, flow.DefaultActivationDate)
	}
	if cfg.DeviceClass != defaultDeviceClass {
		t.Fatalf("DeviceClass = %q, want %q", cfg.DeviceClass, defaultDeviceClass)
	}
	if !reflect.DeepEqual(cfg.ExcludedDevices, []string{"tablet"}) {
		t.Fatalf("ExcludedDevices = %v, want [tablet]", cfg.ExcludedDevices)
	}
	if cfg.Store.Backend != BackendFile || cfg.Store.Path != "" {
		t.Fatalf("Store = %+v, want file backend with default path", cfg.Store)
	}
	if !strings.HasPrefix(cfg.Log.Path, home) {
		t.Fatalf("Log.Path = %q, want it under HOME %q", cfg.Log.Path, home)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("Validate = %v, want ErrMissingEndpoint", err)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
base_endpoint = "  https://router.example.com/entry  "
request_timeout = "5s"
warmup = "0s"
attribution_timeout = "1500ms"
suppression_window = "4s"
rating_delay = "1m"
activation_date = "2025-02-01"
device_class = " tablet "
excluded_devices = [" watch ", "", "tv"]

[store]
backend = "SQLite"
path = "~/flow/state.db"

[log]
level = "DEBUG"
format = "console"
path = "~/flow/flow.log"

[metrics]
addr = " 127.0.0.1:9464 "

[attribution]
install_id = " fixed-id "
delay = "250ms"

[attribution.fields]
media_source = "fb"
af_c = "summer"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if cfg.BaseEndpoint != "https://router.example.com/entry" {
		t.Fatalf("BaseEndpoint = %q", cfg.BaseEndpoint)
	}
	if cfg.RequestTimeout != 5*time.Second || cfg.Warmup != 0 || cfg.AttributionTimeout != 1500*time.Millisecond {
		t.Fatalf("durations = %v %v %v", cfg.RequestTimeout, cfg.Warmup, cfg.AttributionTimeout)
	}
	if cfg.SuppressionWindow != 4*time.Second || cfg.RatingDelay != time.Minute {
		t.Fatalf("durations = %v %v", cfg.SuppressionWindow, cfg.RatingDelay)
	}
	want := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	if !cfg.ActivationDate.Equal(want) {
		t.Fatalf("ActivationDate = %v, want %v", cfg.ActivationDate, want)
	}
	if cfg.DeviceClass != "tablet" {
		t.Fatalf("DeviceClass = %q", cfg.DeviceClass)
	}
	if !reflect.DeepEqual(cfg.ExcludedDevices, []string{"watch", "tv"}) {
		t.Fatalf("ExcludedDevices = %v", cfg.ExcludedDevices)
	}
	if cfg.Store.Backend != BackendSQLite || cfg.Store.Path != filepath.Join(home, "flow/state.db") {
		t.Fatalf("Store = %+v", cfg.Store)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "console" || cfg.Log.Path != filepath.Join(home, "flow/flow.log") {
		t.Fatalf("Log = %+v", cfg.Log)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9464" {
		t.Fatalf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}
	if cfg.Attribution.InstallID != "fixed-id" || cfg.Attribution.Delay != 250*time.Millisecond {
		t.Fatalf("Attribution = %+v", cfg.Attribution)
	}
	if cfg.Attribution.Fields["media_source"] != "fb" || cfg.Attribution.Fields["af_c"] != "summer" {
		t.Fatalf("Attribution.Fields = %v", cfg.Attribution.Fields)
	}
}

func TestLoad_SQLiteDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(writeConfig(t, "[store]\nbackend = \"sqlite\"\n"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Store.Path != filepath.Join(home, ".local/share/flowgate/state.db") {
		t.Fatalf("Store.Path = %q", cfg.Store.Path)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(writeConfig(t, `
warmup = "   "
device_class = ""
[log]
level = ""
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Warmup != flow.DefaultWarmup {
		t.Fatalf("Warmup = %v, want %v", cfg.Warmup, flow.DefaultWarmup)
	}
	if cfg.DeviceClass != defaultDeviceClass {
		t.Fatalf("DeviceClass = %q, want %q", cfg.DeviceClass, defaultDeviceClass)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	_, err := Load(writeConfig(t, `base_endpoint = [`))
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	for name, body := range map[string]string{
		"duration": `warmup = "soon"`,
		"negative": `rating_delay = "-1s"`,
		"date":     `activation_date = "15/01/2025"`,
		"backend":  "[store]\nbackend = \"redis\"",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Load error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestValidate_RejectsNonHTTPEndpoint(t *testing.T) {
	cfg := Default()
	cfg.BaseEndpoint = "router.example.com/entry"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Validate = %v, want ErrInvalid", err)
	}
}

func TestFlowSettings_ExplicitZeroIsImmediate(t *testing.T) {
	cfg := Default()
	cfg.Warmup = 0
	s := cfg.FlowSettings()
	if s.Warmup >= 0 {
		t.Fatalf("Warmup = %v, want a negative immediate marker", s.Warmup)
	}
	if s.AttributionTimeout != flow.DefaultAttributionTimeout {
		t.Fatalf("AttributionTimeout = %v", s.AttributionTimeout)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
