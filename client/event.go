package client

import (
	"encoding/json"
	"time"
)

// EventKind discriminates recorded event payloads.
type EventKind string

const (
	EventInteraction EventKind = "interaction"
	EventMutation    EventKind = "mutation"
	EventMeta        EventKind = "meta"
	EventNavigation  EventKind = "navigation"
	// EventCustom covers payloads emitted by engine plugins we don't know about.
	EventCustom EventKind = "custom"
)

// Event is a single entry in a recording session's event sequence. The payload
// is kind-specific and kept as raw JSON so unknown kinds pass through unchanged.
type Event struct {
	Kind      EventKind       `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	PageURL   string          `json:"pageUrl,omitempty"` // set on navigation/meta events
	Payload   json.RawMessage `json:"payload,omitempty"`
}
