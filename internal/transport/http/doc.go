// Package http implements the HTTP handlers of the data explorer. Handlers
// are a thin layer over the explorer service: they parse query parameters
// and multipart uploads, validate request contracts, and format responses.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → ExplorerService
//	                                              ↓
//	HTTP Response ← Handler ← View / Image / Download
//
// Every dataset view accepts the cleaning settings as query parameters:
//
//	drop_duplicates, impute_numeric, impute_categorical  (default true)
//	sample_rows                                          (default 0, no sampling)
//
// Figures are returned as JSON by default; format=png or format=svg renders
// an image instead. When a view has nothing to draw the JSON result with its
// notice is returned, still with status 200.
//
// # Error Handling
//
// All errors are RFC 7807 problem documents written by the shared
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/dataset/unreadable",
//	    "title": "Unreadable File",
//	    "status": 422,
//	    "detail": "Failed to read file: no columns to parse from file",
//	    "instance": "/api/datasets"
//	}
//
// Informational conditions such as a missing chart column are never errors.
package http
