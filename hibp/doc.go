// Package hibp implements the k-anonymity range lookup used by the Pwned
// Passwords API.
//
// # Protocol
//
// A secret is hashed with SHA-1 and rendered as 40 uppercase hex characters.
// The first five characters (the prefix) are sent to
//
//	GET https://api.pwnedpasswords.com/range/{prefix}
//
// and the remaining 35 characters (the suffix) are matched locally against the
// newline-delimited SUFFIX:COUNT rows of the response. SHA-1 is a protocol
// requirement of the remote API, not a protection for the secret.
//
// When padding is requested (Add-Padding: true) the response also carries
// decoy rows with a count of 0. A matched decoy is discarded and reported as
// not breached.
//
// # What this package must NOT do
//
//   - Send anything but the 5-character prefix over the network.
//   - Log secrets, digests, or suffixes.
//   - Retry, cache, or persist anything. A [Client] call is a single attempt.
package hibp
