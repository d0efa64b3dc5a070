// Package shared holds code used across the explorer packages that belongs to
// no single layer.
//
// The testutil subpackage provides:
//
//	- sample CSV and XLSX fixtures
//	- a buffered slog handler for asserting on log output
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    // exercise code with logger
//	    testutil.AssertLogContains(t, handler, slog.LevelInfo, "dataset loaded")
//	}
package shared
