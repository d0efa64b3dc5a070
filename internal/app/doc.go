// Package app wires the explorer service together and runs it.
//
// # Initialization Flow
//
//	1. Load configuration from EXPLORER_* environment variables and an optional YAML file
//	2. Initialize logging and OpenTelemetry
//	3. Create the explorer service, the live view hub and the health service
//	4. Set up middleware, API routes, the WebSocket endpoint and the dashboard
//	5. Start the HTTP server
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM. Stop closes live view clients, drains
// in-flight requests, drops the in-memory datasets and flushes telemetry.
// Errors are returned to main; the package never calls os.Exit.
package app
