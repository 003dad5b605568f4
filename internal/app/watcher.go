package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/five82/flowgate/internal/state"
)

// Watchable is a snapshot source that signals changes.
type Watchable interface {
	Snapshot() state.Snapshot
	Changed() <-chan struct{}
}

// StartWatcher launches a background goroutine that logs every visible state
// change of src. The endpoint itself is never logged. It returns immediately.
func StartWatcher(ctx context.Context, src Watchable, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("watch")

	go func() {
		var last state.Snapshot
		first := true
		for {
			changed := src.Changed()
			snap := src.Snapshot()
			if first || visibleChange(last, snap) {
				log.Info("surface state",
					zap.Stringer("mode", snap.Mode),
					zap.Bool("has_endpoint", snap.HasEndpoint),
					zap.Bool("loading", snap.Loading),
					zap.Bool("rating_requested", snap.RatingRequested),
				)
				last, first = snap, false
			}
			select {
			case <-ctx.Done():
				return
			case <-changed:
			}
		}
	}()
}

func visibleChange(a, b state.Snapshot) bool {
	return a.Mode != b.Mode ||
		a.Endpoint != b.Endpoint ||
		a.HasEndpoint != b.HasEndpoint ||
		a.Loading != b.Loading ||
		a.RatingRequested != b.RatingRequested
}
