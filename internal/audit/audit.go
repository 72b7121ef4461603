package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is one breach-lookup audit record. It never carries secret material:
// no secret, digest, or suffix is ever placed in an Event.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	RecordID  string            `json:"record_id,omitempty"`
	RunID     string            `json:"run_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
}

// LoggerSink forwards events to a zap logger at info level, or warn when the
// event records a failure.
type LoggerSink struct {
	logger *zap.Logger
}

func NewLoggerSink(logger *zap.Logger) *LoggerSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerSink{logger: logger.Named("audit")}
}

func (s *LoggerSink) Emit(_ context.Context, event Event) {
	if s == nil {
		return
	}

	fields := make([]zap.Field, 0, 6+len(event.Metadata))
	fields = append(fields,
		zap.Time("timestamp", event.Timestamp),
		zap.Bool("success", event.Success),
	)
	if event.RecordID != "" {
		fields = append(fields, zap.String("record_id", event.RecordID))
	}
	if event.RunID != "" {
		fields = append(fields, zap.String("run_id", event.RunID))
	}
	if event.ClientIP != "" {
		fields = append(fields, zap.String("client_ip", event.ClientIP))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	for k, v := range event.Metadata {
		fields = append(fields, zap.String(k, v))
	}

	if event.Success {
		s.logger.Info(event.EventType, fields...)
		return
	}
	s.logger.Warn(event.EventType, fields...)
}
