package emitter

import (
	"context"
	"time"

	"ocppmeter/backend/services/meter-trace/internal/models"
)

// SampleRepository stores the samples of one record.
type SampleRepository interface {
	InsertRecord(ctx context.Context, samples []models.ChannelSample) error
}

// PostgresEmitter writes one row per channel, one transaction per record.
type PostgresEmitter struct {
	repo  SampleRepository
	runID string
	buf   recordBuffer
}

// NewPostgresEmitter returns database sink.
func NewPostgresEmitter(repo SampleRepository, runID string) *PostgresEmitter {
	return &PostgresEmitter{repo: repo, runID: runID}
}

// BeginRecord implements Emitter.
func (e *PostgresEmitter) BeginRecord(_ context.Context, at time.Time) error {
	e.buf.begin(at)
	return nil
}

// WriteChannel implements Emitter.
func (e *PostgresEmitter) WriteChannel(_ context.Context, name string, value float64) error {
	return e.buf.write(name, value)
}

// Flush implements Flusher.
func (e *PostgresEmitter) Flush(ctx context.Context) error {
	rec, ok := e.buf.take()
	if !ok {
		return nil
	}
	samples := make([]models.ChannelSample, 0, len(rec.Values))
	for _, v := range rec.Values {
		samples = append(samples, models.ChannelSample{
			RunID:      e.runID,
			Channel:    v.Channel,
			Value:      v.Value,
			RecordedAt: rec.At,
		})
	}
	return e.repo.InsertRecord(ctx, samples)
}
