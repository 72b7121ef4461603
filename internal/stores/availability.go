package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	availabilityRecordVersionV1 = 1
	maxReasonLen                = 255
)

var (
	ErrAvailabilityRedisUnavailable = errors.New("availability redis unavailable")
	ErrAvailabilityRecordCorrupt    = errors.New("availability record corrupt")
)

// AvailabilityRecord marks the range API as unavailable for automatic checks.
type AvailabilityRecord struct {
	TrippedAt int64
	Reason    string
}

// AvailabilityStore persists the "automatic checks disabled" flag so that
// every engine sharing the Redis observes the same state.
type AvailabilityStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewAvailabilityStore keys its record under prefix, "gb" when empty.
func NewAvailabilityStore(redisClient redis.UniversalClient, prefix string) *AvailabilityStore {
	if prefix == "" {
		prefix = "gb"
	}
	return &AvailabilityStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *AvailabilityStore) key() string {
	return s.prefix + ":unavail"
}

// Trip records the unavailable state. A ttl of 0 keeps it until Clear.
func (s *AvailabilityStore) Trip(ctx context.Context, record *AvailabilityRecord, ttl time.Duration) error {
	encoded, err := encodeAvailabilityRecord(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrAvailabilityRedisUnavailable, err)
	}
	return nil
}

// Get returns the current record, or nil when automatic checks are enabled.
func (s *AvailabilityStore) Get(ctx context.Context) (*AvailabilityRecord, error) {
	data, err := s.redis.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrAvailabilityRedisUnavailable, err)
	}

	record, err := decodeAvailabilityRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAvailabilityRecordCorrupt, err)
	}
	return record, nil
}

// Clear re-enables automatic checks.
func (s *AvailabilityStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrAvailabilityRedisUnavailable, err)
	}
	return nil
}

// Ping reports Redis reachability and round-trip latency.
func (s *AvailabilityStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAvailabilityRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func encodeAvailabilityRecord(record *AvailabilityRecord) ([]byte, error) {
	if record == nil {
		return nil, errors.New("availability record is nil")
	}
	reason := record.Reason
	if len(reason) > maxReasonLen {
		reason = reason[:maxReasonLen]
	}

	var buf bytes.Buffer
	buf.WriteByte(availabilityRecordVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, record.TrippedAt); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(len(reason)))
	buf.WriteString(reason)

	return buf.Bytes(), nil
}

func decodeAvailabilityRecord(data []byte) (*AvailabilityRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != availabilityRecordVersionV1 {
		return nil, errors.New("invalid availability record version")
	}

	record := &AvailabilityRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.TrippedAt); err != nil {
		return nil, err
	}

	reasonLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	reason := make([]byte, reasonLen)
	if _, err := io.ReadFull(reader, reason); err != nil {
		return nil, err
	}
	record.Reason = string(reason)

	return record, nil
}
