package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/flowgate/internal/config"
	"github.com/five82/flowgate/internal/kv"
	"github.com/five82/flowgate/internal/metrics"
)

func TestOpenStore_Backends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, cfg := range []config.Store{
		{Backend: config.BackendFile, Path: filepath.Join(dir, "state.toml")},
		{Backend: "", Path: filepath.Join(dir, "default.toml")},
		{Backend: config.BackendSQLite, Path: filepath.Join(dir, "state.db")},
	} {
		t.Run(cfg.Path, func(t *testing.T) {
			store, err := OpenStore(ctx, cfg)
			require.NoError(t, err)
			defer store.Close()

			require.NoError(t, store.Set(ctx, "k", "v"))
			v, ok, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v", v)
		})
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := OpenStore(context.Background(), config.Store{Backend: "redis"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalid))
}

func TestInstallID(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory(nil)

	id, err := InstallID(ctx, store, "")
	require.NoError(t, err)
	require.Len(t, id, 36)

	again, err := InstallID(ctx, store, "")
	require.NoError(t, err)
	assert.Equal(t, id, again, "generated id is reused")

	saved, ok, err := store.Get(ctx, KeyInstallID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, saved)
}

func TestInstallID_Override(t *testing.T) {
	store := kv.NewMemory(map[string]string{KeyInstallID: "persisted"})
	id, err := InstallID(context.Background(), store, "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", id)
}

func TestMetricsMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg).Gate("passed")

	srv := httptest.NewServer(metricsMux(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRun_RequiresBaseEndpoint(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "missing.toml")

	err := Run(context.Background(), Options{ConfigPath: path, Headless: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingEndpoint))
}
