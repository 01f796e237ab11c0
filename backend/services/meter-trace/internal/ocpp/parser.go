package ocpp

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType values as per OCPP-J.
const (
	MessageTypeCall       = 2
	MessageTypeCallResult = 3
	MessageTypeCallError  = 4
)

// ErrNotCall is returned for CALLRESULT and CALLERROR frames, which carry no action.
var ErrNotCall = errors.New("ocpp: response frame")

// Message represents parsed OCPP frame.
type Message struct {
	MessageType int
	UniqueID    string
	Action      string
	Payload     json.RawMessage
}

// Parser decodes raw JSON OCPP frames.
type Parser struct{}

// NewParser returns parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes []byte into Message struct. Only CALL frames carry an action and are accepted.
func (p *Parser) Parse(data []byte) (*Message, error) {
	var array []json.RawMessage
	if err := json.Unmarshal(data, &array); err != nil {
		return nil, err
	}

	if len(array) < 3 {
		return nil, errors.New("ocpp: malformed frame")
	}

	var msgType int
	if err := json.Unmarshal(array[0], &msgType); err != nil {
		return nil, err
	}

	msg := &Message{MessageType: msgType}

	switch msgType {
	case MessageTypeCall:
		if len(array) < 4 {
			return nil, errors.New("ocpp: incomplete CALL frame")
		}
		if err := json.Unmarshal(array[1], &msg.UniqueID); err != nil {
			return nil, fmt.Errorf("ocpp: read unique id: %w", err)
		}
		if err := json.Unmarshal(array[2], &msg.Action); err != nil {
			return nil, fmt.Errorf("ocpp: read action: %w", err)
		}
		msg.Payload = array[3]
	case MessageTypeCallResult, MessageTypeCallError:
		return nil, fmt.Errorf("%w: type %d", ErrNotCall, msgType)
	default:
		return nil, fmt.Errorf("ocpp: unsupported message type %d", msgType)
	}

	return msg, nil
}
