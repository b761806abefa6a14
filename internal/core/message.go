package core

import "encoding/json"

// Message is the JSON envelope exchanged with clients in both directions:
// an event tag plus an opaque payload the relay never interprets.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Envelope is Message plus the originating instance ID, as carried
// across the backplane. Origin lets an instance drop its own publishes
// when they come back from the bus.
type Envelope struct {
	Origin string          `json:"origin"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// EncodeFrame builds the client-facing frame for one event.
func EncodeFrame(event string, data json.RawMessage) (Frame, error) {
	b, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}
