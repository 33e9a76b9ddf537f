package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Interaction event types emitted by the form tracker.
const (
	EventTypeFieldBlur       = "field_blur"
	EventTypeFieldError      = "field_error"
	EventTypeFormSubmit      = "form_submit"
	EventTypeFormAbandonment = "form_abandonment"
)

// FieldInteraction is the per-field timeline entry. Raw input values never
// enter the tracker; only the coarse filled/empty indicator is kept.
type FieldInteraction struct {
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	FocusedAt   time.Time  `json:"focusedAt"`
	BlurredAt   *time.Time `json:"blurredAt,omitempty"`
	TimeSpentMs int64      `json:"timeSpentMs"`
	HasError    bool       `json:"hasError"`
	Abandoned   bool       `json:"abandoned"`
	ValueState  string     `json:"valueState"` // "filled" or "empty"
}

type formRecord struct {
	id        string
	name      string
	startedAt time.Time
	fields    map[string]*FieldInteraction
	order     []string
	submitted bool
	abandoned bool
}

// FormTrackerConfig configures a FormTracker.
type FormTrackerConfig struct {
	SessionID string
	PageURL   string
	Sink      InteractionSink
	Logger    *zap.Logger
	Now       func() time.Time
}

// FormTracker builds a per-form, per-field interaction timeline independent of
// the session recorder, emitting point-in-time events to the interaction sink.
// Every emission is independently guarded: one sink failure never prevents
// later field events or the final form-level event from being attempted.
type FormTracker struct {
	sessionID string
	pageURL   string
	sink      InteractionSink
	logger    *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	form *formRecord
}

func NewFormTracker(cfg FormTrackerConfig) *FormTracker {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &FormTracker{
		sessionID: cfg.SessionID,
		pageURL:   cfg.PageURL,
		sink:      cfg.Sink,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

// InitFormTracking resets the active form record. Calling it again overwrites
// any prior unsent record; there is no merge.
func (t *FormTracker) InitFormTracking(id, name string) {
	t.mu.Lock()
	t.form = &formRecord{
		id:        id,
		name:      name,
		startedAt: t.now(),
		fields:    make(map[string]*FieldInteraction),
	}
	t.mu.Unlock()
}

// TrackFieldFocus records a focus timestamp for the field. Re-focusing an
// already tracked field does not duplicate or overwrite its record.
func (t *FormTracker) TrackFieldFocus(field, fieldType string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.form == nil {
		return
	}
	if _, ok := t.form.fields[field]; ok {
		return
	}
	t.form.fields[field] = &FieldInteraction{
		Name:       field,
		Type:       fieldType,
		FocusedAt:  t.now(),
		ValueState: "empty",
	}
	t.form.order = append(t.form.order, field)
}

// TrackFieldBlur records the blur, computes the time spent on the field (zero
// when focus was never recorded), and immediately emits a field_blur event.
// The raw value is only inspected for presence and never persisted.
func (t *FormTracker) TrackFieldBlur(field string, hasError bool, value string) {
	t.mu.Lock()
	if t.form == nil {
		t.mu.Unlock()
		return
	}
	entry, ok := t.form.fields[field]
	if !ok {
		entry = &FieldInteraction{Name: field}
		t.form.fields[field] = entry
		t.form.order = append(t.form.order, field)
	}
	now := t.now()
	entry.BlurredAt = &now
	if !entry.FocusedAt.IsZero() {
		entry.TimeSpentMs = now.Sub(entry.FocusedAt).Milliseconds()
	}
	entry.HasError = hasError
	if value != "" {
		entry.ValueState = "filled"
	} else {
		entry.ValueState = "empty"
	}
	snapshot := *entry
	t.mu.Unlock()

	t.emit(EventTypeFieldBlur, field, "", map[string]any{
		"field":       snapshot.Name,
		"fieldType":   snapshot.Type,
		"timeSpentMs": snapshot.TimeSpentMs,
		"hasError":    snapshot.HasError,
		"valueState":  snapshot.ValueState,
	})
}

// TrackFormSubmit marks the form as submitted, finalizes the total elapsed
// time, and emits one aggregate form_submit event summarizing all fields.
func (t *FormTracker) TrackFormSubmit() {
	t.mu.Lock()
	if t.form == nil || t.form.submitted {
		t.mu.Unlock()
		return
	}
	t.form.submitted = true
	formID, formName, meta := t.summaryLocked()
	t.mu.Unlock()

	t.emit(EventTypeFormSubmit, formID, formName, meta)
}

// TrackFormAbandonment marks all un-blurred fields as abandoned and emits one
// form_abandonment aggregate. It only fires if the form was never submitted
// and is idempotent: a second call, or a call after submit, is a no-op.
func (t *FormTracker) TrackFormAbandonment() {
	t.mu.Lock()
	if t.form == nil || t.form.submitted || t.form.abandoned {
		t.mu.Unlock()
		return
	}
	t.form.abandoned = true
	for _, entry := range t.form.fields {
		if entry.BlurredAt == nil {
			entry.Abandoned = true
		}
	}
	formID, formName, meta := t.summaryLocked()
	t.mu.Unlock()

	t.emit(EventTypeFormAbandonment, formID, formName, meta)
}

// summaryLocked builds the aggregate payload for submit/abandonment events.
// Caller must hold the mutex.
func (t *FormTracker) summaryLocked() (formID, formName string, meta map[string]any) {
	fields := make([]FieldInteraction, 0, len(t.form.order))
	errored := 0
	abandoned := 0
	for _, name := range t.form.order {
		entry := t.form.fields[name]
		if entry.HasError {
			errored++
		}
		if entry.Abandoned {
			abandoned++
		}
		fields = append(fields, *entry)
	}
	meta = map[string]any{
		"formId":          t.form.id,
		"formName":        t.form.name,
		"totalTimeMs":     t.now().Sub(t.form.startedAt).Milliseconds(),
		"fieldCount":      len(fields),
		"erroredFields":   errored,
		"abandonedFields": abandoned,
		"fields":          fields,
	}
	return t.form.id, t.form.name, meta
}

func (t *FormTracker) emit(eventType, elementID, elementText string, metadata map[string]any) {
	raw, err := json.Marshal(metadata)
	if err != nil {
		t.logger.Warn("interaction metadata marshal failed", zap.String("eventType", eventType), zap.Error(err))
		raw = nil
	}
	err = t.sink.SendInteraction(context.Background(), InteractionEvent{
		SessionID:   t.sessionID,
		EventType:   eventType,
		PageURL:     t.pageURL,
		ElementID:   elementID,
		ElementText: elementText,
		Timestamp:   t.now(),
		Metadata:    raw,
	})
	if err != nil {
		t.logger.Warn("interaction event dropped", zap.String("eventType", eventType), zap.Error(err))
	}
}
