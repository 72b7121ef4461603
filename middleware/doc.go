// Package middleware exposes HTTP middleware that refuses requests carrying a
// breached password, built on top of goBreach.Engine checks.
//
// # Guards
//
//   - [Guard] — runs the check in the given [Mode].
//   - [RejectBreached] — automatic check; lets the request through when
//     automatic checks are disabled or the range API is down.
//   - [RequireChecked] — manual check; answers 503 when no verdict could be
//     obtained.
//
// Each guard pulls the password out of the request with a [SecretExtractor],
// calls the Engine, and injects the resulting verdict into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT talk
// to the range API itself; every lookup is delegated to the Engine.
//
// # What this package must NOT do
//
//   - Log, echo, or store the extracted password.
//   - Access Redis (Engine handles I/O).
//   - Decide anything beyond pass/reject from the Engine verdict.
package middleware
