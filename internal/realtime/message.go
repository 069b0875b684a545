package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/mstream/internal/shared"
)

// EventControl carries a [models.SyncEvent] between clients.
const EventControl = "control"

// Message is the envelope of every frame on the sync channel.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewMessage marshals data into a message for event.
func NewMessage(event string, data any) (Message, error) {
	if event == "" {
		return Message{}, fmt.Errorf("%w: event name", shared.ErrMissingArgument)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	return Message{Event: event, Data: raw}, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%w: %s event has no data", shared.ErrInvalidInput, m.Event)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", shared.ErrInvalidInput, m.Event, err)
	}
	return nil
}

// ParseMessage decodes a raw frame.
func ParseMessage(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if m.Event == "" {
		return Message{}, fmt.Errorf("%w: message without event", shared.ErrInvalidInput)
	}
	return m, nil
}
