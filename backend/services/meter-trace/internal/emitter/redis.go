package emitter

import (
	"context"
	"time"

	redisstore "ocppmeter/backend/services/meter-trace/internal/redis"
)

// StreamStore appends records to a stream.
type StreamStore interface {
	Append(ctx context.Context, e redisstore.Entry) error
}

// RedisEmitter publishes one stream entry per record.
type RedisEmitter struct {
	store StreamStore
	runID string
	buf   recordBuffer
}

// NewRedisEmitter returns redis sink.
func NewRedisEmitter(store StreamStore, runID string) *RedisEmitter {
	return &RedisEmitter{store: store, runID: runID}
}

// BeginRecord implements Emitter.
func (e *RedisEmitter) BeginRecord(_ context.Context, at time.Time) error {
	e.buf.begin(at)
	return nil
}

// WriteChannel implements Emitter.
func (e *RedisEmitter) WriteChannel(_ context.Context, name string, value float64) error {
	return e.buf.write(name, value)
}

// Flush implements Flusher.
func (e *RedisEmitter) Flush(ctx context.Context) error {
	rec, ok := e.buf.take()
	if !ok {
		return nil
	}
	return e.store.Append(ctx, redisstore.Entry{RunID: e.runID, At: rec.At, Channels: rec.Map()})
}
