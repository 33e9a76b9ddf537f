package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInteractionEventReceiverValidate(t *testing.T) {
	for _, eventType := range []string{
		InteractionFieldBlur,
		InteractionFieldError,
		InteractionFormSubmit,
		InteractionFormAbandonment,
	} {
		e := InteractionEventReceiver{
			SessionID: "s1",
			PageURL:   "https://app.example.com/signup",
			EventType: eventType,
		}
		assert.NoError(t, e.Validate(), eventType)
	}
}

func TestInteractionEventReceiverValidateRejects(t *testing.T) {
	e := InteractionEventReceiver{PageURL: "https://x", EventType: InteractionFieldBlur}
	assert.EqualError(t, e.Validate(), "sessionId is required")

	e = InteractionEventReceiver{SessionID: "s1", EventType: InteractionFieldBlur}
	assert.EqualError(t, e.Validate(), "pageUrl is required")

	e = InteractionEventReceiver{SessionID: "s1", PageURL: "https://x", EventType: "page_view"}
	assert.EqualError(t, e.Validate(), "unknown event type")
}
