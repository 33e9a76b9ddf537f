package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// flusher persists the session's event buffer and derived metadata. The first
// successful flush creates the recording and caches the server-assigned id;
// every later flush updates that row. Flushing never fails upward: errors are
// logged and dropped, and the next periodic tick retries implicitly with a
// larger buffer.
type flusher struct {
	sink      RecordingSink
	sessionID string
	pageURL   string
	meta      SessionMetadata
	privacy   PrivacyPolicy
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.Mutex
	startedAt   time.Time
	recordingID string
}

func newFlusher(sink RecordingSink, sessionID, pageURL string, meta SessionMetadata, privacy PrivacyPolicy, logger *zap.Logger, now func() time.Time) *flusher {
	return &flusher{
		sink:      sink,
		sessionID: sessionID,
		pageURL:   pageURL,
		meta:      meta,
		privacy:   privacy,
		logger:    logger,
		now:       now,
		startedAt: now(),
	}
}

func (f *flusher) flush(ctx context.Context, events []Event, final bool) {
	f.mu.Lock()
	now := f.now()
	up := RecordingUpsert{
		SessionID:  f.sessionID,
		PageURL:    f.pageURL,
		Events:     events,
		StartTime:  f.startedAt,
		DurationMs: now.Sub(f.startedAt).Milliseconds(),
		PageCount:  countPages(events),
		EventCount: len(events),
		Metadata:   f.meta,
		Privacy:    f.privacy,
	}
	if final {
		end := now
		up.EndTime = &end
	}
	id := f.recordingID
	f.mu.Unlock()

	if id == "" {
		created, err := f.sink.CreateRecording(ctx, up)
		if err != nil {
			f.logger.Warn("recording create failed", zap.String("sessionId", f.sessionID), zap.Error(err))
			return
		}
		f.mu.Lock()
		f.recordingID = created
		f.mu.Unlock()
		return
	}

	if err := f.sink.UpdateRecording(ctx, id, up); err != nil {
		f.logger.Warn("recording update failed", zap.String("recordingId", id), zap.Error(err))
	}
}

// countPages counts distinct page URLs seen in navigation and meta events.
// A session always covers at least one page.
func countPages(events []Event) int {
	pages := make(map[string]struct{})
	for _, e := range events {
		if (e.Kind == EventNavigation || e.Kind == EventMeta) && e.PageURL != "" {
			pages[e.PageURL] = struct{}{}
		}
	}
	if len(pages) == 0 {
		return 1
	}
	return len(pages)
}
