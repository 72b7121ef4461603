// Package stores provides Redis-backed state shared between engines.
//
// [AvailabilityStore] holds the "automatic checks disabled" flag written after
// a range lookup fails. The record is versioned and binary-encoded; it carries
// a timestamp and a short reason code, never secret material.
//
// # What this package must NOT do
//
//   - Import goBreach or any sibling internal package.
//   - Cache breach verdicts or hash material.
package stores
