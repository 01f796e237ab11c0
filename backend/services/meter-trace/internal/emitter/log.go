package emitter

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LogEmitter writes one structured log line per record.
type LogEmitter struct {
	logger *zap.Logger
	buf    recordBuffer
}

// NewLogEmitter returns log sink.
func NewLogEmitter(logger *zap.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

// BeginRecord implements Emitter.
func (e *LogEmitter) BeginRecord(_ context.Context, at time.Time) error {
	e.buf.begin(at)
	return nil
}

// WriteChannel implements Emitter.
func (e *LogEmitter) WriteChannel(_ context.Context, name string, value float64) error {
	return e.buf.write(name, value)
}

// Flush implements Flusher.
func (e *LogEmitter) Flush(_ context.Context) error {
	rec, ok := e.buf.take()
	if !ok {
		return nil
	}
	fields := make([]zap.Field, 0, len(rec.Values)+1)
	fields = append(fields, zap.Time("recorded_at", rec.At))
	for _, v := range rec.Values {
		fields = append(fields, zap.Float64(v.Channel, v.Value))
	}
	e.logger.Info("meter record", fields...)
	return nil
}
