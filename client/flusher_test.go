package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeRecordingSink struct {
	mu        sync.Mutex
	creates   []RecordingUpsert
	updates   []RecordingUpsert
	updateIDs []string
	createErr error
	updateErr error
}

func (s *fakeRecordingSink) CreateRecording(_ context.Context, up RecordingUpsert) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates = append(s.creates, up)
	if s.createErr != nil {
		return "", s.createErr
	}
	return fmt.Sprintf("rec-%d", len(s.creates)), nil
}

func (s *fakeRecordingSink) UpdateRecording(_ context.Context, id string, up RecordingUpsert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, up)
	s.updateIDs = append(s.updateIDs, id)
	return s.updateErr
}

func navEvent(pageURL string) Event {
	return Event{Kind: EventNavigation, Timestamp: time.Now(), PageURL: pageURL}
}

func clickEvent() Event {
	return Event{Kind: EventInteraction, Timestamp: time.Now()}
}

func TestFlushCreatesThenUpdates(t *testing.T) {
	sink := &fakeRecordingSink{}
	clk := newFakeClock()
	f := newFlusher(sink, "s1", "http://app/home", SessionMetadata{}, DefaultPrivacyPolicy(), zap.NewNop(), clk.Now)

	ctx := context.Background()
	f.flush(ctx, []Event{clickEvent()}, false)
	f.flush(ctx, []Event{clickEvent(), clickEvent()}, false)
	f.flush(ctx, []Event{clickEvent(), clickEvent(), clickEvent()}, false)
	f.flush(ctx, []Event{clickEvent(), clickEvent(), clickEvent()}, true)

	require.Len(t, sink.creates, 1)
	require.Len(t, sink.updates, 3)
	assert.Equal(t, []string{"rec-1", "rec-1", "rec-1"}, sink.updateIDs)
}

func TestFlushRetriesCreateOnNextTick(t *testing.T) {
	sink := &fakeRecordingSink{createErr: errors.New("network down")}
	clk := newFakeClock()
	f := newFlusher(sink, "s1", "http://app/home", SessionMetadata{}, DefaultPrivacyPolicy(), zap.NewNop(), clk.Now)

	ctx := context.Background()
	f.flush(ctx, []Event{clickEvent()}, false)
	require.Len(t, sink.creates, 1)
	require.Empty(t, sink.updates)

	// id was never assigned, so the next flush creates again
	sink.createErr = nil
	f.flush(ctx, []Event{clickEvent(), clickEvent()}, false)
	require.Len(t, sink.creates, 2)

	f.flush(ctx, []Event{clickEvent(), clickEvent()}, false)
	require.Len(t, sink.creates, 2)
	require.Len(t, sink.updates, 1)
	assert.Equal(t, "rec-2", sink.updateIDs[0])
}

func TestFlushDerivesDurationAndCounts(t *testing.T) {
	sink := &fakeRecordingSink{}
	clk := newFakeClock()
	started := clk.Now()
	f := newFlusher(sink, "s1", "http://app/home", SessionMetadata{}, DefaultPrivacyPolicy(), zap.NewNop(), clk.Now)

	clk.Advance(5 * time.Second)
	events := []Event{
		navEvent("http://app/home"),
		clickEvent(),
		navEvent("http://app/pricing"),
		navEvent("http://app/home"),
	}
	f.flush(context.Background(), events, false)

	require.Len(t, sink.creates, 1)
	up := sink.creates[0]
	assert.Equal(t, "s1", up.SessionID)
	assert.Equal(t, started, up.StartTime)
	assert.Equal(t, int64(5000), up.DurationMs)
	assert.Equal(t, 2, up.PageCount)
	assert.Equal(t, 4, up.EventCount)
	assert.Nil(t, up.EndTime)
}

func TestFinalFlushSealsEndTime(t *testing.T) {
	sink := &fakeRecordingSink{}
	clk := newFakeClock()
	f := newFlusher(sink, "s1", "http://app/home", SessionMetadata{}, DefaultPrivacyPolicy(), zap.NewNop(), clk.Now)

	clk.Advance(90 * time.Second)
	f.flush(context.Background(), nil, true)

	require.Len(t, sink.creates, 1)
	up := sink.creates[0]
	require.NotNil(t, up.EndTime)
	assert.Equal(t, clk.Now(), *up.EndTime)
	assert.Equal(t, int64(90000), up.DurationMs)
}

func TestCountPages(t *testing.T) {
	assert.Equal(t, 1, countPages(nil))
	assert.Equal(t, 1, countPages([]Event{clickEvent(), clickEvent()}))
	assert.Equal(t, 2, countPages([]Event{
		navEvent("http://app/a"),
		navEvent("http://app/b"),
		navEvent("http://app/a"),
	}))
	assert.Equal(t, 1, countPages([]Event{
		{Kind: EventMeta, PageURL: "http://app/a"},
		{Kind: EventInteraction, PageURL: "http://app/b"},
	}))
}
