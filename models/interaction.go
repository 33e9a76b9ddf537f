package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Interaction event types accepted by the field/form event sink.
const (
	InteractionFieldBlur       = "field_blur"
	InteractionFieldError      = "field_error"
	InteractionFormSubmit      = "form_submit"
	InteractionFormAbandonment = "form_abandonment"
)

// InteractionEvent represents a stored field/form event row.
type InteractionEvent struct {
	ID            int64           `json:"id"`
	ProjectID     int64           `json:"projectId"` // Foreign key to Project model
	ProjectDomain string          `json:"projectDomain"`
	SessionID     string          `json:"sessionId"`
	EventType     string          `json:"eventType"`
	PageURL       string          `json:"pageUrl"`
	ElementID     string          `json:"elementId"`
	ElementText   string          `json:"elementText"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// InteractionEventReceiver holds what the client pipeline sends.
type InteractionEventReceiver struct {
	SessionID   string          `json:"sessionId"`
	EventType   string          `json:"eventType"`
	PageURL     string          `json:"pageUrl"`
	ElementID   string          `json:"elementId"`
	ElementText string          `json:"elementText"`
	Metadata    json.RawMessage `json:"metadata"`
	Timestamp   time.Time       `json:"timestamp"`
}

func (e *InteractionEventReceiver) Validate() error {
	if e.SessionID == "" {
		return errors.New("sessionId is required")
	}
	if e.PageURL == "" {
		return errors.New("pageUrl is required")
	}
	switch e.EventType {
	case InteractionFieldBlur, InteractionFieldError, InteractionFormSubmit, InteractionFormAbandonment:
		return nil
	default:
		return errors.New("unknown event type")
	}
}
