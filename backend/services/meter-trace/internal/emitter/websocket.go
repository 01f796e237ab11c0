package emitter

import (
	"context"
	"time"
)

// Frame types sent to the viewer.
const (
	FrameSeries = "series"
	FrameRecord = "record"
)

// JSONWriter is a message oriented connection such as a WebSocket.
type JSONWriter interface {
	WriteJSON(v any) error
	Close() error
}

type seriesFrame struct {
	Type  string `json:"type"`
	RunID string `json:"run_id"`
	Series
}

type recordFrame struct {
	Type     string             `json:"type"`
	RunID    string             `json:"run_id"`
	Time     time.Time          `json:"ts"`
	Unix     float64            `json:"unix"`
	Channels map[string]float64 `json:"channels"`
}

// WebSocketEmitter streams series metadata and records to a live viewer.
type WebSocketEmitter struct {
	conn  JSONWriter
	runID string
	buf   recordBuffer
}

// NewWebSocketEmitter returns viewer sink. The emitter owns conn and closes it on Close.
func NewWebSocketEmitter(conn JSONWriter, runID string) *WebSocketEmitter {
	return &WebSocketEmitter{conn: conn, runID: runID}
}

// DescribeChannel implements Describer.
func (e *WebSocketEmitter) DescribeChannel(_ context.Context, s Series) error {
	return e.conn.WriteJSON(seriesFrame{Type: FrameSeries, RunID: e.runID, Series: s})
}

// BeginRecord implements Emitter.
func (e *WebSocketEmitter) BeginRecord(_ context.Context, at time.Time) error {
	e.buf.begin(at)
	return nil
}

// WriteChannel implements Emitter.
func (e *WebSocketEmitter) WriteChannel(_ context.Context, name string, value float64) error {
	return e.buf.write(name, value)
}

// Flush implements Flusher.
func (e *WebSocketEmitter) Flush(_ context.Context) error {
	rec, ok := e.buf.take()
	if !ok {
		return nil
	}
	return e.conn.WriteJSON(recordFrame{
		Type:     FrameRecord,
		RunID:    e.runID,
		Time:     rec.At,
		Unix:     float64(rec.At.UnixNano()) / float64(time.Second),
		Channels: rec.Map(),
	})
}

// Close closes the connection.
func (e *WebSocketEmitter) Close() error {
	return e.conn.Close()
}
