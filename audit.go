package goBreach

import (
	"io"

	"github.com/MrEthical07/goBreach/internal/audit"
	"go.uber.org/zap"
)

// AuditEvent is one lookup audit record. Events never carry the secret,
// its digest, or its suffix.
type AuditEvent = audit.Event

// AuditSink receives audit events from the Engine's dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards every event.
type NoOpSink = audit.NoOpSink

// ChannelSink forwards events to a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// LoggerSink writes events through a zap logger.
type LoggerSink = audit.LoggerSink

// NewChannelSink returns a sink whose channel holds up to buffer events.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink writes events to w, serializing concurrent writes.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewLoggerSink logs events at info level, or warn for failures. A nil
// logger discards them.
func NewLoggerSink(logger *zap.Logger) *LoggerSink {
	return audit.NewLoggerSink(logger)
}
