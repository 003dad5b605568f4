package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/five82/flowgate/internal/config"
	"github.com/five82/flowgate/internal/logging"
	"github.com/five82/flowgate/internal/state"
)

func TestStartWatcher_LogsVisibleChanges(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	store := state.NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartWatcher(ctx, store, zap.New(core))

	surfaceLogs := func() int { return logs.FilterMessage("surface state").Len() }
	require.Eventually(t, func() bool { return surfaceLogs() == 1 }, time.Second, 5*time.Millisecond)

	store.Update(func(s *state.Snapshot) {
		s.Mode = state.ModeWebContent
		s.Endpoint = "https://landing.example.com/"
		s.HasEndpoint = true
		s.Loading = false
	})
	require.Eventually(t, func() bool { return surfaceLogs() == 2 }, time.Second, 5*time.Millisecond)

	store.Update(func(s *state.Snapshot) { s.LastUpdated = time.Now() })
	store.Update(func(s *state.Snapshot) { s.RatingRequested = true })
	require.Eventually(t, func() bool { return surfaceLogs() == 3 }, time.Second, 5*time.Millisecond)

	last := logs.FilterMessage("surface state").All()[2]
	assert.Equal(t, "web", last.ContextMap()["mode"])
	assert.Equal(t, true, last.ContextMap()["rating_requested"])
}

func TestVisibleChange(t *testing.T) {
	base := state.Snapshot{Mode: state.ModePreparing, Loading: true}
	assert.False(t, visibleChange(base, base))

	stamped := base
	stamped.LastUpdated = time.Now()
	assert.False(t, visibleChange(base, stamped))

	moved := base
	moved.Mode = state.ModeOriginal
	assert.True(t, visibleChange(base, moved))
}

func TestStartWatcher_OmitsEndpoint(t *testing.T) {
	const endpoint = "https://secret-landing.example.com/?pathid=abc123"
	path := filepath.Join(t.TempDir(), "flowgate.log")
	log, err := logging.New(config.Log{Level: "debug", Format: "json", Path: path})
	require.NoError(t, err)

	store := state.NewStore()
	store.Update(func(s *state.Snapshot) {
		s.Mode = state.ModeWebContent
		s.Endpoint = endpoint
		s.HasEndpoint = true
		s.Loading = false
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartWatcher(ctx, store, log)

	var content string
	require.Eventually(t, func() bool {
		_ = log.Sync()
		data, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		content = string(data)
		return strings.Contains(content, "surface state")
	}, time.Second, 10*time.Millisecond)

	assert.Contains(t, content, `"has_endpoint":true`)
	assert.NotContains(t, content, endpoint)
	assert.NotContains(t, content, "secret-landing")
}
