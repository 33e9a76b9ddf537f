package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name           string
		online         bool
		syncing        bool
		queueSize      int
		recentlySynced bool
		want           SyncStatus
	}{
		{"offline wins over everything", false, true, 3, true, StatusOffline},
		{"syncing while draining", true, true, 2, false, StatusSyncing},
		{"pending backlog", true, false, 2, false, StatusPending},
		{"synced ack", true, false, 0, true, StatusSynced},
		{"nothing to show", true, false, 0, false, StatusHidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.online, tt.syncing, tt.queueSize, tt.recentlySynced)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyncStatusString(t *testing.T) {
	assert.Equal(t, "hidden", StatusHidden.String())
	assert.Equal(t, "offline", StatusOffline.String())
	assert.Equal(t, "syncing", StatusSyncing.String())
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "synced", StatusSynced.String())
}

func TestIndicatorLifecycle(t *testing.T) {
	doer := &fakeDoer{respond: respond(http.StatusOK)}
	q := newTestQueue(doer)
	clk := newFakeClock()
	ind := NewIndicator(q)
	ind.now = clk.Now
	defer ind.Close()

	assert.Equal(t, StatusHidden, ind.Status())

	q.SetOnline(false)
	assert.Equal(t, StatusOffline, ind.Status())

	q.QueueRequest("http://sink/a", RequestOptions{})
	q.QueueRequest("http://sink/b", RequestOptions{})
	assert.Equal(t, StatusOffline, ind.Status())
	assert.Equal(t, 2, ind.Pending())

	// drain on reconnect empties the queue and arms the synced ack
	q.SetOnline(true)
	assert.Equal(t, StatusSynced, ind.Status())
	assert.Equal(t, 0, ind.Pending())

	clk.Advance(defaultAckWindow + time.Second)
	assert.Equal(t, StatusHidden, ind.Status())
}

func TestIndicatorShowsPendingBacklog(t *testing.T) {
	doer := &fakeDoer{respond: respond(http.StatusOK)}
	q := newTestQueue(doer)
	ind := NewIndicator(q)
	defer ind.Close()

	q.QueueRequest("http://sink/a", RequestOptions{})
	require.Equal(t, StatusPending, ind.Status())
	assert.Equal(t, 1, ind.Pending())

	q.ProcessQueue()
	assert.Equal(t, 0, ind.Pending())
}

func TestIndicatorObservesSyncingDuringDrain(t *testing.T) {
	doer := &fakeDoer{}
	q := newTestQueue(doer)
	ind := NewIndicator(q)
	defer ind.Close()

	var seen []SyncStatus
	q.Subscribe(func(bool, int) {
		seen = append(seen, ind.Status())
	})

	q.SetOnline(false)
	q.QueueRequest("http://sink/a", RequestOptions{})
	doer.respond = respond(http.StatusOK)
	q.SetOnline(true)

	assert.Contains(t, seen, StatusSyncing)
}
