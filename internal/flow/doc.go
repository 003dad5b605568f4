// Package flow decides, once per launch, whether the host shows its native
// content or web content served from a resolved endpoint.
//
// # Overview
//
// A Controller starts in state.ModePreparing and settles into either
// state.ModeOriginal or state.ModeWebContent:
//
//  1. Warm-up: nothing happens for Settings.Warmup after Start.
//  2. Gate: excluded device classes, launches before the activation date and
//     installs with the fallback latch set go straight to Original.
//  3. Cached endpoint: if one is stored, WebContent is entered immediately and
//     the endpoint is probed in the background. An invalid endpoint triggers
//     reacquisition from the stored path token.
//  4. Returning user without a cached endpoint: reacquisition.
//  5. First launch: attribution data (or its timeout) feeds a single
//     resolution request. A redirect enters WebContent; anything else latches
//     the install to Original for good.
//
// # Concurrency Model
//
// Every piece of mutable flow state is owned by one sequencer goroutine that
// drains an event channel. Timers, the attribution race and network requests
// run on their own goroutines and post closures back to the sequencer, so no
// flow field is ever touched concurrently. Results carry the epoch of the
// request that produced them; a result whose epoch is no longer current, or
// that arrives after the mode has closed, is dropped.
//
// The display surface reads published snapshots (Snapshot, CurrentMode,
// CurrentEndpoint, IsLoading) and reports navigation with ReportObservedURL.
//
// # Mode Transitions
//
// Next is the pure transition table; the controller executes the Intents it
// returns (persist flags, clear loading, schedule the rating prompt).
// Original is terminal. WebContent never returns to Original.
//
// # Suppression Window
//
// Whenever the controller itself stores a resolved endpoint, observed URL
// reports are ignored for Settings.SuppressionWindow. The surface is still
// loading the new endpoint during that time and its reports describe
// intermediate hops.
package flow
