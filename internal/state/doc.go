// Package state holds the data model of the flow engine and the places it
// lives.
//
// # Overview
//
// Three kinds of state exist:
//
//   - Flags: durable per-install booleans (fallback latch, web shown, rating
//     shown), loaded once at startup and written back by the controller.
//   - Endpoints: the resolved endpoint, stored obfuscated, and the path token
//     extracted from it, stored under its own key.
//   - Store: the in-memory Snapshot the display surface reads (mode, current
//     endpoint, loading flag).
//
// # Concurrency Model
//
// The flow controller's sequencer is the only writer of all three. The
// display surface reads Store.Snapshot() from its own goroutine; Store uses a
// readers-writer lock and hands out copies, so a surface can never mutate
// engine state directly.
//
//	Sequencer:                       Surface:
//	┌──────────────────┐            ┌──────────────────┐
//	│ Flags / Endpoints│            │                  │
//	│      ↓           │            │                  │
//	│ store.Update()   │───────────→│ store.Snapshot() │
//	│                  │  (RWMutex) │      ↓           │
//	│                  │            │  render          │
//	└──────────────────┘            └──────────────────┘
//
// Store.Changed returns a channel that is closed on the next Update, which
// lets waiters block without polling.
//
// # Persistence Layout
//
// Keys are defined as constants in flags.go. Booleans are stored as
// "true"/"false"; unreadable values read as false so a corrupted store
// degrades to first-launch behavior rather than failing startup.
//
// The endpoint is never stored in plain text. Endpoints.Load still accepts a
// plain value that starts with "http" for installs that predate obfuscation,
// and treats anything else it cannot restore as "nothing cached".
package state
