// Package services implements the business logic layer of the data explorer.
// It sits between the HTTP and WebSocket transports and the dataset,
// cleaning, analytics and chart packages.
//
// # Services
//
//	- ExplorerService: uploads, the dataset registry and every pipeline view
//	- HealthService: liveness, readiness and version reporting
//
// # Pipeline
//
// Every view re-runs the same sequence on the raw upload with the caller's
// settings:
//
//	load → validate non-empty → sample → clean → compute view → render
//
// The raw frame is kept in a DatasetRegistry with a sliding TTL. Derived
// frames and results are memoized in a MemoCache keyed by the BLAKE2b hash
// of the uploaded bytes plus the parameters, so two uploads of the same file
// share entries. Concurrent identical computations run once.
//
// # Error Handling
//
// Services return categorized application errors from internal/errors that
// the transports turn into problem details:
//
//	- PARSING and EMPTY_DATASET for uploads that cannot be used
//	- UNSUPPORTED_FILE and TOO_LARGE for rejected uploads
//	- NOT_FOUND for unknown or expired datasets
//	- VALIDATION for out-of-range settings or PCA components
//
// Conditions the user can fix by changing a selection are not errors; they
// come back as a notice on the result.
package services
