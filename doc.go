// Package goBreach checks secrets against the Have I Been Pwned Pwned
// Passwords range API without revealing them: only the first five hex
// characters of the SHA-1 digest leave the process.
//
// The package is built for hosts that check many secrets concurrently, such
// as password managers or registration endpoints. Engine methods are safe to
// call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// goBreach is the orchestration surface. It exposes [Engine], [Builder],
// [Config], and value types ([Verdict], [BulkReport], [MetricsSnapshot]). The
// range protocol itself lives in the public hibp package and can be used on
// its own. Rate limiting, the shared availability flag, and audit dispatch
// live under internal/.
//
// # Manual and automatic checks
//
// [Engine.Check] always attempts a lookup. [Engine.CheckAutomatic] refuses
// with [ErrAutomaticChecksDisabled] once any lookup has failed with
// [ErrLookupUnavailable], until [Engine.ResetAvailability] or the configured
// Availability.DisableFor elapses. Background triggers then stop hammering
// an unreachable API while user-initiated checks keep working.
//
// # What this package must NOT do
//
//   - Log, audit, or return the secret, its digest, or its suffix.
//   - Cache verdicts or persist anything derived from a secret.
//   - Retry a failed lookup on its own.
package goBreach
