package flow

import "time"

// Default timings.
const (
	DefaultWarmup             = 3 * time.Second
	DefaultAttributionTimeout = 10 * time.Second
	DefaultSuppressionWindow  = 3 * time.Second
	DefaultRatingDelay        = 2 * time.Second
)

// DefaultActivationDate is the first instant web content may be shown.
var DefaultActivationDate = time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

// Settings tune the controller. Zero durations fall back to the defaults;
// use a negative value to mean "immediately". A nil ExcludedDevices excludes
// tablets; an empty, non-nil slice excludes nothing.
type Settings struct {
	Warmup             time.Duration
	AttributionTimeout time.Duration
	SuppressionWindow  time.Duration
	RatingDelay        time.Duration
	ActivationDate     time.Time
	ExcludedDevices    []string
}

// DefaultSettings returns the production settings.
func DefaultSettings() Settings {
	return Settings{
		Warmup:             DefaultWarmup,
		AttributionTimeout: DefaultAttributionTimeout,
		SuppressionWindow:  DefaultSuppressionWindow,
		RatingDelay:        DefaultRatingDelay,
		ActivationDate:     DefaultActivationDate,
		ExcludedDevices:    []string{"tablet"},
	}
}

func (s Settings) withDefaults() Settings {
	s.Warmup = orDefault(s.Warmup, DefaultWarmup)
	s.AttributionTimeout = orDefault(s.AttributionTimeout, DefaultAttributionTimeout)
	s.SuppressionWindow = orDefault(s.SuppressionWindow, DefaultSuppressionWindow)
	s.RatingDelay = orDefault(s.RatingDelay, DefaultRatingDelay)
	if s.ActivationDate.IsZero() {
		s.ActivationDate = DefaultActivationDate
	}
	if s.ExcludedDevices == nil {
		s.ExcludedDevices = []string{"tablet"}
	}
	return s
}

func orDefault(d, def time.Duration) time.Duration {
	switch {
	case d == 0:
		return def
	case d < 0:
		return 0
	default:
		return d
	}
}
