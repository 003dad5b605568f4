package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/five82/flowgate/internal/state"
)

func TestNext_Table(t *testing.T) {
	fresh := state.Flags{}
	rated := state.Flags{RatingShown: true}

	tests := []struct {
		name    string
		from    state.Mode
		flags   state.Flags
		ev      Event
		to      state.Mode
		intents []Intent
	}{
		{
			name: "preparing to original",
			from: state.ModePreparing, flags: fresh, ev: EventForceOriginal,
			to:      state.ModeOriginal,
			intents: []Intent{IntentPersistFallback, IntentClearLoading},
		},
		{
			name: "preparing to web schedules rating",
			from: state.ModePreparing, flags: fresh, ev: EventEnterWeb,
			to:      state.ModeWebContent,
			intents: []Intent{IntentPersistWebShown, IntentClearLoading, IntentScheduleRating},
		},
		{
			name: "preparing to web after rating",
			from: state.ModePreparing, flags: rated, ev: EventEnterWeb,
			to:      state.ModeWebContent,
			intents: []Intent{IntentPersistWebShown, IntentClearLoading},
		},
		{
			name: "web stays web",
			from: state.ModeWebContent, flags: fresh, ev: EventEnterWeb,
			to:      state.ModeWebContent,
			intents: []Intent{IntentPersistWebShown},
		},
		{
			name: "web never returns to original",
			from: state.ModeWebContent, flags: fresh, ev: EventForceOriginal,
			to: state.ModeWebContent,
		},
		{
			name: "original is terminal for web",
			from: state.ModeOriginal, flags: fresh, ev: EventEnterWeb,
			to: state.ModeOriginal,
		},
		{
			name: "original is terminal for original",
			from: state.ModeOriginal, flags: fresh, ev: EventForceOriginal,
			to: state.ModeOriginal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.from, tt.flags, tt.ev)
			assert.Equal(t, tt.from, got.From)
			assert.Equal(t, tt.to, got.To)
			assert.Equal(t, tt.intents, got.Intents)
			assert.Equal(t, tt.from != tt.to, got.Changed())
		})
	}
}

func TestEvaluateGate(t *testing.T) {
	s := DefaultSettings()
	after := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	before := time.Date(2025, time.January, 14, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name   string
		device string
		now    time.Time
		flags  state.Flags
		want   GateDecision
	}{
		{"passes", "phone", after, state.Flags{}, GateDecision{Proceed: true, Reason: GatePassed}},
		{"excluded device", "Tablet", after, state.Flags{}, GateDecision{Reason: GateDevice}},
		{"device beats date", "tablet", before, state.Flags{}, GateDecision{Reason: GateDevice}},
		{"before activation", "phone", before, state.Flags{}, GateDecision{Reason: GateActivationDate}},
		{"at activation", "phone", DefaultActivationDate, state.Flags{}, GateDecision{Proceed: true, Reason: GatePassed}},
		{"fallback latched", "phone", after, state.Flags{Fallback: true}, GateDecision{Reason: GateFallback}},
		{"web shown still passes", "phone", after, state.Flags{WebShown: true}, GateDecision{Proceed: true, Reason: GatePassed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateGate(s, tt.device, tt.now, tt.flags))
		})
	}
}

func TestSettings_WithDefaults(t *testing.T) {
	s := Settings{Warmup: -1, RatingDelay: 5 * time.Second}.withDefaults()
	assert.Equal(t, time.Duration(0), s.Warmup)
	assert.Equal(t, 5*time.Second, s.RatingDelay)
	assert.Equal(t, DefaultAttributionTimeout, s.AttributionTimeout)
	assert.Equal(t, DefaultSuppressionWindow, s.SuppressionWindow)
	assert.True(t, s.ActivationDate.Equal(DefaultActivationDate))
	assert.Equal(t, []string{"tablet"}, s.ExcludedDevices)
}

func TestSettings_ExcludedDevices(t *testing.T) {
	zero := Settings{}.withDefaults()
	dec := EvaluateGate(zero, "tablet", launchTime, state.Flags{})
	assert.False(t, dec.Proceed)
	assert.Equal(t, GateDevice, dec.Reason)

	none := Settings{ExcludedDevices: []string{}}.withDefaults()
	assert.Empty(t, none.ExcludedDevices)
	assert.NotNil(t, none.ExcludedDevices)
	dec = EvaluateGate(none, "tablet", launchTime, state.Flags{})
	assert.True(t, dec.Proceed)
}
