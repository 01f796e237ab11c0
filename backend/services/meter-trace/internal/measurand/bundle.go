package measurand

import (
	"strconv"
	"strings"

	"ocppmeter/backend/services/meter-trace/internal/ocpp/protocol"
)

// Sample is a single channel value of a Bundle.
type Sample struct {
	Channel Channel
	Value   float64
}

// Bundle holds the channel values extracted from one MeterValues request.
// Channels never written read as 0.
type Bundle struct {
	values map[Channel]float64
}

// Extract projects every sampled value of req onto channels. Later samples overwrite earlier
// ones for the same channel; unparsable values are stored as 0.
func Extract(req *protocol.MeterValuesRequest) Bundle {
	b := Bundle{values: make(map[Channel]float64, len(Channels))}
	if req == nil {
		return b
	}
	for _, mv := range req.MeterValue {
		for _, sv := range mv.SampledValue {
			ch, ok := Route(KindOf(sv.Measurand), PhaseOf(sv.Phase))
			if !ok {
				continue
			}
			b.values[ch] = ParseValue(sv.Value)
		}
	}
	return b
}

// ParseValue converts a sampled value to float64, returning 0 when it is not a number.
func ParseValue(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

// Lookup returns the value of ch and whether a sampled value was found for it.
// The sum channel is reported as found when any phase was.
func (b Bundle) Lookup(ch Channel) (float64, bool) {
	if ch == PowerActiveImportSum {
		_, ok1 := b.values[PowerActiveImportL1]
		_, ok2 := b.values[PowerActiveImportL2]
		_, ok3 := b.values[PowerActiveImportL3]
		return b.Value(ch), ok1 || ok2 || ok3
	}
	v, ok := b.values[ch]
	return v, ok
}

// Value returns the value of ch, 0 if it was not sampled.
func (b Bundle) Value(ch Channel) float64 {
	if ch == PowerActiveImportSum {
		return b.values[PowerActiveImportL1] + b.values[PowerActiveImportL2] + b.values[PowerActiveImportL3]
	}
	return b.values[ch]
}

// Found returns how many fixed channels received a sampled value.
func (b Bundle) Found() int {
	return len(b.values)
}

// Samples returns all channels, the derived sum last, in Channels order.
func (b Bundle) Samples() []Sample {
	out := make([]Sample, 0, len(Channels))
	for _, ch := range Channels {
		out = append(out, Sample{Channel: ch, Value: b.Value(ch)})
	}
	return out
}

// Map returns the samples keyed by channel name.
func (b Bundle) Map() map[string]float64 {
	out := make(map[string]float64, len(Channels))
	for _, ch := range Channels {
		out[string(ch)] = b.Value(ch)
	}
	return out
}
