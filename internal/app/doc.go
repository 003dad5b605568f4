// Package app provides the orchestration layer for the flowgate host binary.
//
// # Overview
//
// This package wires together configuration, logging, persistence, the flow
// controller and the status view. It is the composition root where every
// dependency is initialized and connected.
//
// # Architecture
//
// Run follows a simple initialization pattern:
//
//  1. Load ~/.config/flowgate/config.toml and validate base_endpoint
//  2. Build the zap logger (file output, the TUI owns the terminal)
//  3. Open the file or SQLite key-value store
//  4. Reuse or generate the install id
//  5. Create the resolver client, metrics registry and flow.Controller
//  6. Start the controller, the snapshot watcher and the metrics listener
//  7. Run the status view and block until the user quits or ctx ends
//
// # Components
//
//   - app.go: Run, OpenStore and InstallID
//   - sdk.go: ConfigSDK, the attribution source driven by the [attribution] table
//   - watcher.go: background goroutine that logs surface state changes
//   - inspect.go: Inspect, Reset and WriteReport for the CLI maintenance commands
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()      Read flowgate config
//	       ├─────> OpenStore()        file or sqlite kv.Store
//	       ├─────> InstallID()        uuid, persisted once
//	       ├─────> flow.New/Start()   Sequencer + warm-up timer
//	       ├─────> StartWatcher()     Log snapshot changes
//	       ├─────> metrics server     /metrics and /health
//	       └─────> ui.Run()           Status view (blocks)
//
// # Error Handling
//
// Configuration, store and logger failures are fatal and returned from Run.
// Everything after Start is handled inside the flow: network and persistence
// errors are logged and decide the display mode, never the process exit.
// A failing metrics listener cancels the group and stops the host.
//
// # Usage Example
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := app.Run(ctx, app.Options{}); err != nil {
//		log.Fatalf("flowgate failed: %v", err)
//	}
package app
