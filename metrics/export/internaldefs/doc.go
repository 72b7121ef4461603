// Package internaldefs holds the metric names, help strings, and bucket
// bounds of the exported series, kept apart from the client_golang collector
// so the engine's metric IDs map to names in one place.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
