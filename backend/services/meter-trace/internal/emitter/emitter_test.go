package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"ocppmeter/backend/services/meter-trace/internal/clients"
	"ocppmeter/backend/services/meter-trace/internal/measurand"
	"ocppmeter/backend/services/meter-trace/internal/models"
	redisstore "ocppmeter/backend/services/meter-trace/internal/redis"
)

var recordTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	batches [][]models.ChannelSample
	err     error
}

func (f *fakeRepo) InsertRecord(_ context.Context, samples []models.ChannelSample) error {
	f.batches = append(f.batches, samples)
	return f.err
}

type fakeStore struct {
	entries []redisstore.Entry
}

func (f *fakeStore) Append(_ context.Context, e redisstore.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

type fakeNotifier struct {
	requests []clients.MeterRecordRequest
}

func (f *fakeNotifier) NotifyMeterRecord(_ context.Context, req clients.MeterRecordRequest) error {
	f.requests = append(f.requests, req)
	return nil
}

type fakeConn struct {
	frames   []map[string]any
	writeErr error
	closed   bool
}

func (f *fakeConn) WriteJSON(v any) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

// failing fails every call with err.
type failing struct{ err error }

func (f failing) BeginRecord(context.Context, time.Time) error {
	return f.err
}

func (f failing) WriteChannel(context.Context, string, float64) error {
	return f.err
}

func writeRecord(t *testing.T, e Emitter, values ...Value) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.BeginRecord(ctx, recordTime))
	for _, v := range values {
		require.NoError(t, e.WriteChannel(ctx, v.Channel, v.Value))
	}
	if f, ok := e.(Flusher); ok {
		require.NoError(t, f.Flush(ctx))
	}
}

func TestWriteBeforeBeginFails(t *testing.T) {
	for name, e := range map[string]Emitter{
		"log":       NewLogEmitter(zap.NewNop()),
		"postgres":  NewPostgresEmitter(&fakeRepo{}, "run"),
		"redis":     NewRedisEmitter(&fakeStore{}, "run"),
		"http":      NewHTTPEmitter(&fakeNotifier{}, "run"),
		"websocket": NewWebSocketEmitter(&fakeConn{}, "run"),
	} {
		t.Run(name, func(t *testing.T) {
			err := e.WriteChannel(context.Background(), "voltage/L1", 1)
			assert.ErrorIs(t, err, ErrNoRecord)
			assert.NoError(t, e.(Flusher).Flush(context.Background()))
		})
	}
}

func TestLogEmitter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := NewLogEmitter(zap.New(core))

	writeRecord(t, e, Value{"voltage/L1", 230}, Value{"voltage/L2", 231})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "meter record", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, 230.0, fields["voltage/L1"])
	assert.Equal(t, 231.0, fields["voltage/L2"])
	assert.Contains(t, fields, "recorded_at")
}

func TestPostgresEmitter(t *testing.T) {
	repo := &fakeRepo{}
	e := NewPostgresEmitter(repo, "run-1")

	writeRecord(t, e, Value{"current/offered", 32}, Value{"power/offered", 11000})

	require.Len(t, repo.batches, 1)
	assert.Equal(t, []models.ChannelSample{
		{RunID: "run-1", Channel: "current/offered", Value: 32, RecordedAt: recordTime},
		{RunID: "run-1", Channel: "power/offered", Value: 11000, RecordedAt: recordTime},
	}, repo.batches[0])
}

func TestPostgresEmitterPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	e := NewPostgresEmitter(&fakeRepo{err: boom}, "run-1")
	ctx := context.Background()

	require.NoError(t, e.BeginRecord(ctx, recordTime))
	require.NoError(t, e.WriteChannel(ctx, "voltage/L1", 1))
	assert.ErrorIs(t, e.Flush(ctx), boom)
}

func TestRedisEmitter(t *testing.T) {
	store := &fakeStore{}
	e := NewRedisEmitter(store, "run-1")

	writeRecord(t, e, Value{"voltage/L3", 229.5})

	require.Len(t, store.entries, 1)
	assert.Equal(t, redisstore.Entry{RunID: "run-1", At: recordTime, Channels: map[string]float64{"voltage/L3": 229.5}}, store.entries[0])
}

func TestHTTPEmitter(t *testing.T) {
	notifier := &fakeNotifier{}
	e := NewHTTPEmitter(notifier, "run-1")

	writeRecord(t, e, Value{"current/import/L1", 16})
	writeRecord(t, e, Value{"current/import/L1", 17})

	require.Len(t, notifier.requests, 2)
	assert.Equal(t, 17.0, notifier.requests[1].Channels["current/import/L1"])
	assert.Equal(t, "run-1", notifier.requests[0].RunID)
}

func TestWebSocketEmitter(t *testing.T) {
	conn := &fakeConn{}
	e := NewWebSocketEmitter(conn, "run-1")
	ctx := context.Background()

	require.NoError(t, e.DescribeChannel(ctx, DefaultSeries()[0]))
	writeRecord(t, e, Value{"current/import/L1", 16})
	require.NoError(t, e.Close())

	require.Len(t, conn.frames, 2)
	series := conn.frames[0]
	assert.Equal(t, FrameSeries, series["type"])
	assert.Equal(t, "current/import/L1", series["channel"])
	assert.Equal(t, "Current.Import(L1)", series["name"])
	assert.Equal(t, []any{255.0, 0.0, 0.0}, series["color"])

	record := conn.frames[1]
	assert.Equal(t, FrameRecord, record["type"])
	assert.Equal(t, "run-1", record["run_id"])
	assert.Equal(t, "2024-01-01T12:00:00Z", record["ts"])
	assert.Equal(t, 1704110400.0, record["unix"])
	assert.Equal(t, map[string]any{"current/import/L1": 16.0}, record["channels"])
	assert.True(t, conn.closed)
}

func TestMultiFansOut(t *testing.T) {
	repo := &fakeRepo{}
	conn := &fakeConn{}
	m := NewMulti(NewPostgresEmitter(repo, "run"), NewWebSocketEmitter(conn, "run"))
	ctx := context.Background()

	require.NoError(t, m.DescribeChannel(ctx, Series{Channel: "voltage/L1"}))
	writeRecord(t, m, Value{"voltage/L1", 1})
	require.NoError(t, m.Close())

	assert.Len(t, repo.batches, 1)
	assert.Len(t, conn.frames, 2)
	assert.True(t, conn.closed)
}

func TestMultiStopsAtFirstError(t *testing.T) {
	boom := errors.New("sink down")
	repo := &fakeRepo{}
	m := NewMulti(failing{err: boom}, NewPostgresEmitter(repo, "run"))
	ctx := context.Background()

	assert.ErrorIs(t, m.BeginRecord(ctx, recordTime), boom)
	assert.ErrorIs(t, m.WriteChannel(ctx, "voltage/L1", 1), boom)
	require.NoError(t, m.Flush(ctx))
	assert.Empty(t, repo.batches)
}

func TestMultiDescribeError(t *testing.T) {
	boom := errors.New("closed")
	m := NewMulti(NewWebSocketEmitter(&fakeConn{writeErr: boom}, "run"))

	assert.ErrorIs(t, m.DescribeChannel(context.Background(), Series{}), boom)
}

func TestDefaultSeriesCoversChannels(t *testing.T) {
	series := DefaultSeries()

	require.Len(t, series, len(measurand.Channels))
	for i, s := range series {
		assert.Equal(t, string(measurand.Channels[i]), s.Channel)
		assert.NotEmpty(t, s.Name)
		assert.Positive(t, s.Width)
	}
}

func TestRecordMapLastWriteWins(t *testing.T) {
	rec := Record{Values: []Value{{"a", 1}, {"a", 2}, {"b", 3}}}

	assert.Equal(t, map[string]float64{"a": 2, "b": 3}, rec.Map())
}
