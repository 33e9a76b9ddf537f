package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validRecordingReceiver() RecordingReceiver {
	return RecordingReceiver{
		SessionID:  "0f0b9a1e-5c2d-4f6a-9b3e-7d8c1a2b3c4d",
		PageURL:    "https://app.example.com/home",
		StartTime:  time.Now(),
		DurationMs: 1200,
		PageCount:  1,
		EventCount: 4,
	}
}

func TestRecordingReceiverValidate(t *testing.T) {
	r := validRecordingReceiver()
	assert.NoError(t, r.Validate())
}

func TestRecordingReceiverValidateRejectsMissingFields(t *testing.T) {
	r := validRecordingReceiver()
	r.SessionID = ""
	assert.EqualError(t, r.Validate(), "sessionId is required")

	r = validRecordingReceiver()
	r.PageURL = ""
	assert.EqualError(t, r.Validate(), "pageUrl is required")

	r = validRecordingReceiver()
	r.StartTime = time.Time{}
	assert.EqualError(t, r.Validate(), "startTime is required")

	r = validRecordingReceiver()
	r.DurationMs = -1
	assert.EqualError(t, r.Validate(), "durationMs must not be negative")
}
