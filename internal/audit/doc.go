// Package audit implements async dispatching of breach-lookup audit events.
//
// # Components
//
//   - [Sink] — interface for event consumers (channel, JSON writer, zap logger, no-op).
//   - [Dispatcher] — buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event] — structured record with timestamp, type, record, run, client IP, metadata.
//
// The Engine decides which events to emit; this package only buffers and delivers.
// Events must never carry secrets, digests, or hash suffixes.
package audit
