package emitter

import (
	"context"
	"time"

	"ocppmeter/backend/services/meter-trace/internal/clients"
)

// RecordNotifier posts a record to a remote service.
type RecordNotifier interface {
	NotifyMeterRecord(ctx context.Context, req clients.MeterRecordRequest) error
}

// HTTPEmitter posts every record to the telemetry endpoint.
type HTTPEmitter struct {
	client RecordNotifier
	runID  string
	buf    recordBuffer
}

// NewHTTPEmitter returns HTTP sink.
func NewHTTPEmitter(client RecordNotifier, runID string) *HTTPEmitter {
	return &HTTPEmitter{client: client, runID: runID}
}

// BeginRecord implements Emitter.
func (e *HTTPEmitter) BeginRecord(_ context.Context, at time.Time) error {
	e.buf.begin(at)
	return nil
}

// WriteChannel implements Emitter.
func (e *HTTPEmitter) WriteChannel(_ context.Context, name string, value float64) error {
	return e.buf.write(name, value)
}

// Flush implements Flusher.
func (e *HTTPEmitter) Flush(ctx context.Context) error {
	rec, ok := e.buf.take()
	if !ok {
		return nil
	}
	return e.client.NotifyMeterRecord(ctx, clients.MeterRecordRequest{
		RunID:     e.runID,
		Timestamp: rec.At,
		Channels:  rec.Map(),
	})
}
