package protocol

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrReservedEvent  = errors.New("reserved event")
)

var validate = validator.New()

var emptyObject = json.RawMessage(`{}`)

// Envelope is the JSON shape of every frame in both directions.
type Envelope struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// InvalidPayloadError reports a frame whose payload failed validation.
// Message is the text to send back to the client; when empty the frame is
// dropped silently.
type InvalidPayloadError struct {
	Event   Event
	Message string
	Err     error
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("invalid %s payload: %v", e.Event, e.Err)
}

func (e *InvalidPayloadError) Unwrap() error {
	return e.Err
}

// Decode parses a client frame into its typed variant and validates it.
func Decode(frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrMalformedFrame)
	}
	if env.Event.Reserved() {
		return nil, fmt.Errorf("%w: %s", ErrReservedEvent, env.Event)
	}

	msg, err := newInbound(env.Event)
	if err != nil {
		return nil, err
	}

	if hasPayload(env.Data) {
		if err := json.Unmarshal(env.Data, msg); err != nil {
			return nil, invalid(msg, err)
		}
	}

	if err := validate.Struct(msg); err != nil {
		return nil, invalid(msg, err)
	}

	return normalize(msg), nil
}

// Encode renders an outbound frame.
func Encode(event Event, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// newInbound returns a pointer to the zero variant for event
func newInbound(event Event) (Inbound, error) {
	switch event {
	case EventSetUsername:
		return &SetUsername{}, nil
	case EventCreateRoom:
		return &CreateRoom{}, nil
	case EventJoinRoom:
		return &JoinRoom{}, nil
	case EventLeaveRoom:
		return &LeaveRoom{}, nil
	case EventGameAction:
		return &GameAction{}, nil
	case EventChatMessage:
		return &ChatMessage{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
}

// normalize dereferences the variant and fills in defaults
func normalize(msg Inbound) Inbound {
	switch m := msg.(type) {
	case *SetUsername:
		return *m
	case *CreateRoom:
		return *m
	case *JoinRoom:
		return *m
	case *LeaveRoom:
		return *m
	case *GameAction:
		if !hasPayload(m.Data) {
			m.Data = emptyObject
		}
		return *m
	case *ChatMessage:
		return *m
	}
	return msg
}

func invalid(msg Inbound, err error) error {
	return &InvalidPayloadError{
		Event:   msg.Kind(),
		Message: msg.rejection(),
		Err:     err,
	}
}

func hasPayload(data json.RawMessage) bool {
	return len(data) > 0 && string(data) != "null"
}
