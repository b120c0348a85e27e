// Package httpapi serves the planner over HTTP.
//
// Routes:
//
//	GET  /health
//	GET  /metrics
//	POST /upload-spreadsheet   multipart "file"
//	POST /plans                multipart "file", "k", optional "format" and "deliverers"
//	POST /elbow                multipart "file", optional "max_k"
//	GET  /deliverers
//	GET  /deliverers/{id}/locations
//
// Errors are JSON objects with a single "detail" field.
package httpapi
