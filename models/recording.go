package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Recording represents a stored session recording row.
type Recording struct {
	ID            int64           `json:"id"`
	ProjectID     int64           `json:"projectId"` // Foreign key to Project model
	ProjectDomain string          `json:"projectDomain"`
	SessionID     string          `json:"sessionId"`
	Events        json.RawMessage `json:"events,omitempty"`
	StartTime     time.Time       `json:"startTime"`
	EndTime       *time.Time      `json:"endTime"`
	DurationMs    int64           `json:"durationMs"`
	PageCount     int             `json:"pageCount"`
	EventCount    int             `json:"eventCount"`
	UserAgent     string          `json:"userAgent"`
	DeviceType    string          `json:"deviceType"`
	OS            string          `json:"os"`
	Browser       string          `json:"browser"`
	Language      string          `json:"language"`
	Country       string          `json:"country"`
	Region        string          `json:"region"`
	City          string          `json:"city"`
	IsUnique      bool            `json:"isUnique"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// RecordingMetadata is the device/viewport metadata the pipeline attaches to
// every flush.
type RecordingMetadata struct {
	UserAgent      string `json:"userAgent"`
	ViewportWidth  int    `json:"viewportWidth"`
	ViewportHeight int    `json:"viewportHeight"`
	Language       string `json:"language"`
}

// RecordingReceiver holds what the client pipeline sends on create and update.
type RecordingReceiver struct {
	SessionID  string            `json:"sessionId"`
	PageURL    string            `json:"pageUrl"`
	Events     json.RawMessage   `json:"events"`
	StartTime  time.Time         `json:"startTime"`
	EndTime    *time.Time        `json:"endTime"`
	DurationMs int64             `json:"durationMs"`
	PageCount  int               `json:"pageCount"`
	EventCount int               `json:"eventCount"`
	Metadata   RecordingMetadata `json:"metadata"`
	Privacy    json.RawMessage   `json:"privacy,omitempty"`
}

func (r *RecordingReceiver) Validate() error {
	if r.SessionID == "" {
		return errors.New("sessionId is required")
	}
	if r.PageURL == "" {
		return errors.New("pageUrl is required")
	}
	if r.StartTime.IsZero() {
		return errors.New("startTime is required")
	}
	if r.DurationMs < 0 {
		return errors.New("durationMs must not be negative")
	}
	return nil
}

// RecordingInsert represents the structure for inserting new recording rows
// after enrichment.
type RecordingInsert struct {
	ProjectID     int64           `json:"projectId"`
	ProjectDomain string          `json:"projectDomain"`
	SessionID     string          `json:"sessionId"`
	Events        json.RawMessage `json:"events"`
	StartTime     time.Time       `json:"startTime"`
	EndTime       *time.Time      `json:"endTime"`
	DurationMs    int64           `json:"durationMs"`
	PageCount     int             `json:"pageCount"`
	EventCount    int             `json:"eventCount"`
	UserAgent     string          `json:"userAgent"`
	DeviceType    string          `json:"deviceType"`
	OS            string          `json:"os"`
	Browser       string          `json:"browser"`
	Language      string          `json:"language"`
	Country       string          `json:"country"`
	Region        string          `json:"region"`
	City          string          `json:"city"`
	IsUnique      bool            `json:"isUnique"`
	Metadata      json.RawMessage `json:"metadata"`
}
