// Package app provides application initialization and lifecycle management
// for the LabourPulse dashboard. It wires configuration, logging,
// observability, the dataset services and the HTTP router together, and
// owns graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and OpenTelemetry
//	3. Start the WebSocket hub and dataset services
//	4. Set up HTTP handlers and middleware
//	5. Configure and start the HTTP server
//	6. Start the source-file watcher
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM so that active requests
// complete, the watcher goroutine exits, WebSocket connections are
// closed cleanly and the OpenTelemetry providers are flushed.
//
// # Error Handling
//
// All initialization errors are returned to the caller. The app never
// calls os.Exit() directly, leaving exit control to main.
package app
