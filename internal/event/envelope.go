package event

import (
	"encoding/json"
	"fmt"
)

// Envelope is a decoded event body. It exposes the kind for dispatch and
// keeps the raw bytes so a handler can bind the kind-specific payload.
type Envelope struct {
	Kind Kind
	body []byte
}

// Encode serializes a payload struct for publishing.
func Encode(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// Decode reads the mandatory event field. Unknown kinds decode fine;
// filtering by kind is the router's concern.
func Decode(body []byte) (Envelope, error) {
	var head struct {
		Event Kind `json:"event"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if head.Event == "" {
		return Envelope{}, fmt.Errorf("envelope is missing the event field")
	}
	return Envelope{Kind: head.Event, body: body}, nil
}

// Bind unmarshals the full body into a payload struct. Fields the struct
// does not declare are ignored, so newer producers do not break older
// consumers.
func (e Envelope) Bind(payload any) error {
	if err := json.Unmarshal(e.body, payload); err != nil {
		return fmt.Errorf("failed to bind %s payload: %w", e.Kind, err)
	}
	return nil
}

func (e Envelope) Body() []byte {
	return e.body
}
