package flow

import "github.com/five82/flowgate/internal/state"

// Event is an input to the mode state machine.
type Event int

const (
	// EventForceOriginal pins native content: a failed gate check or a failed
	// first resolution.
	EventForceOriginal Event = iota
	// EventEnterWeb shows web content: a cached endpoint, a successful
	// resolution, or any reacquisition outcome.
	EventEnterWeb
)

func (e Event) String() string {
	if e == EventEnterWeb {
		return "enter_web"
	}
	return "force_original"
}

// Intent is a side effect requested by a transition. The controller's effect
// executor performs them in order.
type Intent int

const (
	IntentPersistFallback Intent = iota
	IntentPersistWebShown
	IntentClearLoading
	IntentScheduleRating
)

func (i Intent) String() string {
	switch i {
	case IntentPersistFallback:
		return "persist_fallback"
	case IntentPersistWebShown:
		return "persist_web_shown"
	case IntentClearLoading:
		return "clear_loading"
	case IntentScheduleRating:
		return "schedule_rating"
	default:
		return "unknown"
	}
}

// Transition is the result of applying an Event.
type Transition struct {
	From    state.Mode
	To      state.Mode
	Intents []Intent
}

// Changed reports whether the mode moved.
func (t Transition) Changed() bool { return t.From != t.To }

// Next is the transition table. It has no side effects.
//
//	Preparing  --force_original--> Original    [persist_fallback clear_loading]
//	Preparing  --enter_web------>  WebContent  [persist_web_shown clear_loading schedule_rating?]
//	WebContent --enter_web------>  WebContent  [persist_web_shown]
//	WebContent --force_original--> WebContent  []
//	Original   --*-------------->  Original    []
//
// schedule_rating is only emitted while flags.RatingShown is false.
func Next(cur state.Mode, flags state.Flags, ev Event) Transition {
	t := Transition{From: cur, To: cur}

	switch cur {
	case state.ModeOriginal:
		return t

	case state.ModePreparing:
		switch ev {
		case EventForceOriginal:
			t.To = state.ModeOriginal
			t.Intents = []Intent{IntentPersistFallback, IntentClearLoading}
		case EventEnterWeb:
			t.To = state.ModeWebContent
			t.Intents = []Intent{IntentPersistWebShown, IntentClearLoading}
			if !flags.RatingShown {
				t.Intents = append(t.Intents, IntentScheduleRating)
			}
		}

	case state.ModeWebContent:
		if ev == EventEnterWeb {
			t.Intents = []Intent{IntentPersistWebShown}
		}
	}
	return t
}
