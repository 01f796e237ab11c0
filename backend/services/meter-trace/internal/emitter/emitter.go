package emitter

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNoRecord is returned when a channel is written before BeginRecord.
var ErrNoRecord = errors.New("emitter: write outside of a record")

// Emitter receives decoded channel values. BeginRecord sets the instant for all
// following WriteChannel calls until the next BeginRecord.
type Emitter interface {
	BeginRecord(ctx context.Context, at time.Time) error
	WriteChannel(ctx context.Context, name string, value float64) error
}

// Describer is implemented by sinks that accept per-channel display metadata.
// It is called once per channel before the first record.
type Describer interface {
	DescribeChannel(ctx context.Context, s Series) error
}

// Flusher is implemented by sinks that batch a record and ship it on Flush.
// Flush is called after the last channel of every record.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Multi fans every call out to all emitters in order and stops at the first error.
type Multi struct {
	emitters []Emitter
}

// NewMulti returns fan-out emitter.
func NewMulti(emitters ...Emitter) *Multi {
	return &Multi{emitters: emitters}
}

// BeginRecord implements Emitter.
func (m *Multi) BeginRecord(ctx context.Context, at time.Time) error {
	for _, e := range m.emitters {
		if err := e.BeginRecord(ctx, at); err != nil {
			return err
		}
	}
	return nil
}

// WriteChannel implements Emitter.
func (m *Multi) WriteChannel(ctx context.Context, name string, value float64) error {
	for _, e := range m.emitters {
		if err := e.WriteChannel(ctx, name, value); err != nil {
			return err
		}
	}
	return nil
}

// DescribeChannel forwards to emitters implementing Describer.
func (m *Multi) DescribeChannel(ctx context.Context, s Series) error {
	for _, e := range m.emitters {
		if d, ok := e.(Describer); ok {
			if err := d.DescribeChannel(ctx, s); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush forwards to emitters implementing Flusher.
func (m *Multi) Flush(ctx context.Context) error {
	for _, e := range m.emitters {
		if f, ok := e.(Flusher); ok {
			if err := f.Flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every emitter implementing io.Closer and returns the joined errors.
func (m *Multi) Close() error {
	var errs []error
	for _, e := range m.emitters {
		if c, ok := e.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
