package app

import (
	"context"
	"maps"
	"time"

	"github.com/facebookgo/clock"

	"github.com/five82/flowgate/internal/attribution"
)

var _ attribution.SDK = (*ConfigSDK)(nil)

// ConfigSDK stands in for a real attribution provider. It reports the
// configured fields after Delay. With no fields configured it never reports,
// leaving the flow to its attribution timeout.
type ConfigSDK struct {
	Clock  clock.Clock
	ID     string
	Delay  time.Duration
	Fields map[string]string
}

func (s *ConfigSDK) InstallID() string { return s.ID }

// Conversion blocks until the configured delay elapses or ctx ends.
func (s *ConfigSDK) Conversion(ctx context.Context) (map[string]string, error) {
	if len(s.Fields) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	clk := s.Clock
	if clk == nil {
		clk = clock.New()
	}
	timer := clk.Timer(max(s.Delay, 0))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return maps.Clone(s.Fields), nil
	}
}
