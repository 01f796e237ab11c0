package ocpp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"ocppmeter/backend/services/meter-trace/internal/ocpp/protocol"
)

// ErrNotMeterValues marks payloads that are not a well formed MeterValues request.
// Trace files interleave other actions on the same line format, so callers treat it as a skip.
var ErrNotMeterValues = errors.New("ocpp: not a meter values payload")

// requiredShape mirrors MeterValuesRequest with pointers so absent members can be told apart from empty ones.
type requiredShape struct {
	MeterValue *[]struct {
		Timestamp    *json.RawMessage `json:"timestamp"`
		SampledValue *[]struct {
			Value *json.RawMessage `json:"value"`
		} `json:"sampledValue"`
	} `json:"meterValue"`
}

// Member names per object level. encoding/json matches keys case-insensitively,
// so case variants of these are removed before decoding.
var (
	requestKeys = []string{"connectorId", "transactionId", "meterValue"}
	meterKeys   = []string{"timestamp", "sampledValue"}
	sampleKeys  = []string{"value", "context", "format", "measurand", "phase", "location", "unit"}
)

// exactKeys drops object members whose name differs only in case from a known member.
// raw is returned unchanged when there is nothing to drop.
func exactKeys(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after object")
	}

	dropped := dropFolded(root, requestKeys)
	meters, _ := root["meterValue"].([]any)
	for _, m := range meters {
		mv, ok := m.(map[string]any)
		if !ok {
			continue
		}
		dropped = dropFolded(mv, meterKeys) || dropped
		samples, _ := mv["sampledValue"].([]any)
		for _, s := range samples {
			if sv, ok := s.(map[string]any); ok {
				dropped = dropFolded(sv, sampleKeys) || dropped
			}
		}
	}
	if !dropped {
		return raw, nil
	}
	return json.Marshal(root)
}

func dropFolded(obj map[string]any, known []string) bool {
	dropped := false
	for key := range obj {
		for _, name := range known {
			if key != name && strings.EqualFold(key, name) {
				delete(obj, key)
				dropped = true
				break
			}
		}
	}
	return dropped
}

// Decode convenience helper for typed payloads.
func Decode[T any](payload json.RawMessage) (T, error) {
	var target T
	if err := json.Unmarshal(payload, &target); err != nil {
		var zero T
		return zero, err
	}
	return target, nil
}

// Decoder turns the payload column of a trace line into a MeterValues request.
// Both bare request objects and OCPP-J CALL frames carrying a MeterValues action are accepted.
type Decoder struct {
	parser *Parser
}

// NewDecoder returns decoder.
func NewDecoder() *Decoder {
	return &Decoder{parser: NewParser()}
}

// Decode returns an error wrapping ErrNotMeterValues for anything that is not a MeterValues request.
func (d *Decoder) Decode(raw []byte) (*protocol.MeterValuesRequest, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		msg, err := d.parser.Parse(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotMeterValues, err)
		}
		if msg.Action != protocol.ActionMeterValues {
			return nil, fmt.Errorf("%w: action %q", ErrNotMeterValues, msg.Action)
		}
		trimmed = bytes.TrimSpace(msg.Payload)
	}
	return DecodeMeterValues(trimmed)
}

// DecodeMeterValues decodes a raw MeterValues.req object and checks required members.
func DecodeMeterValues(raw []byte) (*protocol.MeterValuesRequest, error) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrNotMeterValues)
	}

	raw, err := exactKeys(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMeterValues, err)
	}

	shape, err := Decode[requiredShape](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMeterValues, err)
	}
	if shape.MeterValue == nil {
		return nil, fmt.Errorf("%w: missing meterValue", ErrNotMeterValues)
	}
	for i, mv := range *shape.MeterValue {
		if mv.Timestamp == nil {
			return nil, fmt.Errorf("%w: meterValue[%d] missing timestamp", ErrNotMeterValues, i)
		}
		if mv.SampledValue == nil {
			return nil, fmt.Errorf("%w: meterValue[%d] missing sampledValue", ErrNotMeterValues, i)
		}
		for j, sv := range *mv.SampledValue {
			if sv.Value == nil {
				return nil, fmt.Errorf("%w: meterValue[%d].sampledValue[%d] missing value", ErrNotMeterValues, i, j)
			}
		}
	}

	req, err := Decode[protocol.MeterValuesRequest](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMeterValues, err)
	}
	return &req, nil
}
