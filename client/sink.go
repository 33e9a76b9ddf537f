package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RecordingUpsert is what lands at the persistence sink on every flush: the
// full accumulated event sequence plus the derived session counters.
type RecordingUpsert struct {
	SessionID  string          `json:"sessionId"`
	PageURL    string          `json:"pageUrl"`
	Events     []Event         `json:"events"`
	StartTime  time.Time       `json:"startTime"`
	EndTime    *time.Time      `json:"endTime,omitempty"`
	DurationMs int64           `json:"durationMs"`
	PageCount  int             `json:"pageCount"`
	EventCount int             `json:"eventCount"`
	Metadata   SessionMetadata `json:"metadata"`
	Privacy    PrivacyPolicy   `json:"privacy"`
}

// SessionMetadata describes the device and viewport the recording came from.
type SessionMetadata struct {
	UserAgent      string `json:"userAgent"`
	ViewportWidth  int    `json:"viewportWidth"`
	ViewportHeight int    `json:"viewportHeight"`
	Language       string `json:"language"`
}

// RecordingSink persists recording sessions. CreateRecording returns the
// server-assigned identifier used to key all subsequent updates.
type RecordingSink interface {
	CreateRecording(ctx context.Context, up RecordingUpsert) (string, error)
	UpdateRecording(ctx context.Context, id string, up RecordingUpsert) error
}

// InteractionEvent is an append-only field/form event record.
type InteractionEvent struct {
	SessionID   string          `json:"sessionId"`
	EventType   string          `json:"eventType"`
	PageURL     string          `json:"pageUrl"`
	ElementID   string          `json:"elementId"`
	ElementText string          `json:"elementText"`
	Timestamp   time.Time       `json:"timestamp"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// InteractionSink accepts field/form events, independently of and more eagerly
// than the periodic recording flush.
type InteractionSink interface {
	SendInteraction(ctx context.Context, event InteractionEvent) error
}

// HTTPSink talks to the traceflow ingestion API. It implements both
// RecordingSink and InteractionSink.
type HTTPSink struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPSink(baseURL string) *HTTPSink {
	return &HTTPSink{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  http.DefaultClient,
	}
}

func (s *HTTPSink) CreateRecording(ctx context.Context, up RecordingUpsert) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/api/recording", up, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (s *HTTPSink) UpdateRecording(ctx context.Context, id string, up RecordingUpsert) error {
	return s.do(ctx, http.MethodPut, "/api/recording/"+id, up, nil)
}

func (s *HTTPSink) SendInteraction(ctx context.Context, event InteractionEvent) error {
	return s.do(ctx, http.MethodPost, "/api/interaction", event, nil)
}

func (s *HTTPSink) do(ctx context.Context, method, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
