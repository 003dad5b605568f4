package flow

import (
	"strings"
	"time"

	"github.com/five82/flowgate/internal/state"
)

// GateReason names the check that decided a gate evaluation.
type GateReason string

const (
	GateDevice         GateReason = "device"
	GateActivationDate GateReason = "activation_date"
	GateFallback       GateReason = "fallback"
	GatePassed         GateReason = "passed"
)

// GateDecision is the outcome of EvaluateGate.
type GateDecision struct {
	Proceed bool
	Reason  GateReason
}

// Device reports the class of the device the engine runs on.
type Device interface {
	Class() string
}

// StaticDevice is a Device with a fixed class.
type StaticDevice string

func (d StaticDevice) Class() string { return string(d) }

// EvaluateGate runs the startup checks in order. The first failing check
// decides.
func EvaluateGate(s Settings, deviceClass string, now time.Time, flags state.Flags) GateDecision {
	for _, excluded := range s.ExcludedDevices {
		if strings.EqualFold(strings.TrimSpace(excluded), strings.TrimSpace(deviceClass)) {
			return GateDecision{Reason: GateDevice}
		}
	}
	if now.Before(s.ActivationDate) {
		return GateDecision{Reason: GateActivationDate}
	}
	if flags.Fallback {
		return GateDecision{Reason: GateFallback}
	}
	return GateDecision{Proceed: true, Reason: GatePassed}
}
