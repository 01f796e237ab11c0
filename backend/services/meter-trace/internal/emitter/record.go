package emitter

import (
	"time"

	"ocppmeter/backend/services/meter-trace/internal/measurand"
)

// Value is one channel write.
type Value struct {
	Channel string
	Value   float64
}

// Record is everything written between BeginRecord and Flush.
type Record struct {
	At     time.Time
	Values []Value
}

// Map returns the values keyed by channel. Later writes of a channel win.
func (r Record) Map() map[string]float64 {
	out := make(map[string]float64, len(r.Values))
	for _, v := range r.Values {
		out[v.Channel] = v.Value
	}
	return out
}

// recordBuffer collects writes for sinks that ship whole records.
type recordBuffer struct {
	open bool
	rec  Record
}

func (b *recordBuffer) begin(at time.Time) {
	b.open = true
	b.rec = Record{At: at.UTC(), Values: make([]Value, 0, len(measurand.Channels))}
}

func (b *recordBuffer) write(name string, value float64) error {
	if !b.open {
		return ErrNoRecord
	}
	b.rec.Values = append(b.rec.Values, Value{Channel: name, Value: value})
	return nil
}

// take returns the pending record and closes it. ok is false when nothing is pending.
func (b *recordBuffer) take() (Record, bool) {
	if !b.open {
		return Record{}, false
	}
	b.open = false
	rec := b.rec
	b.rec = Record{}
	return rec, true
}
