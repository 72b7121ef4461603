// Package rate provides the Redis-backed outbound lookup budget.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys, under
// the configured prefix:
//   - <prefix>:rl:g      — all lookups
//   - <prefix>:rl:ip:<ip> — lookups on behalf of one client IP
//
// # What this package must NOT do
//
//   - Decide what happens to a limited caller (the Engine maps the error).
//   - Be imported outside the goBreach module.
package rate
