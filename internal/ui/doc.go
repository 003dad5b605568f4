// Package ui provides the flowgate status surface, a Bubble Tea program that
// stands in for the host's display surface.
//
// # Architecture Overview
//
// The surface never drives the flow. It polls the engine's published
// state.Snapshot on a tick, renders it, and feeds observed URLs back through
// Source.ReportObservedURL. The engine decides whether a report is accepted.
//
//	┌─────────────────┐  Snapshot()          ┌──────────────┐
//	│ flow.Controller │ ───────────────────→ │  ui.Model    │
//	│                 │ ←─────────────────── │              │
//	└─────────────────┘  ReportObservedURL() └──────────────┘
//	         │ RequestReview()                       ↑
//	         └──────────→ ui.Prompter ───────────────┘ promptMsg
//
// # Components
//
//   - app.go: Model, messages, commands and Run
//   - view.go: header, status panel, log pane and help rendering
//   - keys.go: key bindings (bubbles/key) and help
//   - theme.go: Lipgloss themes with per-mode badge colors
//   - prompt.go: Prompter, the host side of the one-time rating prompt
//
// # Key Bindings
//
//   - o: enter an observed URL (enter submits, esc cancels)
//   - l: toggle the log pane (tail of the zap log file)
//   - T: cycle theme
//   - ?: help
//   - q / ctrl+c: quit
//
// Theme and log pane visibility persist through the prefs package.
package ui
