package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	queueKey   = "traceflow_sync_queue"
	maxRetries = 3
	syncTag    = "traceflow-sync"
)

// QueuedRequest is a mutating request captured while offline, persisted until
// it is delivered or dropped.
type QueuedRequest struct {
	ID         string            `json:"id"`
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       []byte            `json:"body,omitempty"`
	EnqueuedAt time.Time         `json:"enqueuedAt"`
	RetryCount int               `json:"retryCount"`
}

// RequestOptions mirrors the options of the failed call being queued.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    []byte
}

// Subscriber receives (isSyncing, queueSize) on every queue state change.
type Subscriber func(isSyncing bool, queueSize int)

// BackgroundSync registers a platform delivery task so queued requests can be
// attempted even after the owning process exits. Registration is best effort
// and never required for correctness.
type BackgroundSync interface {
	Register(tag string) error
}

// Doer issues the replayed HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SyncQueueConfig configures a SyncQueue.
type SyncQueueConfig struct {
	Store      Storage
	Client     Doer
	Background BackgroundSync
	Logger     *zap.Logger
}

// SyncQueue guarantees best-effort eventual delivery, in strict FIFO order, of
// mutating requests issued while the client is offline. It is an explicit
// object: construct one per pipeline instance and pass it to consumers.
type SyncQueue struct {
	store      Storage
	client     Doer
	background BackgroundSync
	logger     *zap.Logger

	mu        sync.Mutex
	online    bool
	draining  bool
	delivered int
	failed    int
	nextSub   int
	subs      map[int]Subscriber
}

func NewSyncQueue(cfg SyncQueueConfig) *SyncQueue {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &SyncQueue{
		store:      cfg.Store,
		client:     cfg.Client,
		background: cfg.Background,
		logger:     cfg.Logger,
		online:     true,
		subs:       make(map[int]Subscriber),
	}
}

// QueueRequest persists a request for later delivery and returns its id.
func (q *SyncQueue) QueueRequest(url string, opts RequestOptions) string {
	method := opts.Method
	if method == "" {
		method = http.MethodPost
	}
	item := QueuedRequest{
		ID:         uuid.NewString(),
		URL:        url,
		Method:     method,
		Headers:    opts.Headers,
		Body:       opts.Body,
		EnqueuedAt: time.Now(),
	}

	q.mu.Lock()
	items := append(q.loadLocked(), item)
	q.saveLocked(items)
	size := len(items)
	q.mu.Unlock()

	if q.background != nil {
		if err := q.background.Register(syncTag); err != nil {
			q.logger.Debug("background sync registration failed", zap.Error(err))
		}
	}
	q.notify(false, size)
	return item.ID
}

// SetOnline records the connectivity state. The offline to online transition
// triggers a drain.
func (q *SyncQueue) SetOnline(online bool) {
	q.mu.Lock()
	was := q.online
	q.online = online
	size := len(q.loadLocked())
	q.mu.Unlock()

	if online && !was {
		q.ProcessQueue()
		return
	}
	if !online && was {
		q.notify(false, size)
	}
}

// Online reports the last recorded connectivity state.
func (q *SyncQueue) Online() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.online
}

// ProcessQueue drains the queue in enqueue order. It is a no-op while another
// drain is running or while offline; the draining flag guarantees at most one
// drain at a time. Each item gets one attempt per drain: 2xx removes it, 5xx
// or a network error keeps it for the next drain until the retry budget is
// spent, and any other status drops it immediately as not retryable.
func (q *SyncQueue) ProcessQueue() {
	q.mu.Lock()
	if q.draining || !q.online {
		q.mu.Unlock()
		return
	}
	q.draining = true
	items := q.loadLocked()
	q.mu.Unlock()

	q.notify(true, len(items))

	for _, item := range items {
		delivered, retryable, status := q.attempt(item)
		keep := false
		switch {
		case delivered:
			q.mu.Lock()
			q.delivered++
			q.mu.Unlock()
		case retryable:
			if item.RetryCount < maxRetries {
				item.RetryCount++
				keep = true
				q.logger.Warn("replay failed, keeping for retry",
					zap.String("id", item.ID), zap.Int("retryCount", item.RetryCount))
			} else {
				q.mu.Lock()
				q.failed++
				q.mu.Unlock()
				q.logger.Warn("request dropped after max retries", zap.String("id", item.ID))
			}
		default:
			q.mu.Lock()
			q.failed++
			q.mu.Unlock()
			q.logger.Warn("request dropped, not retryable",
				zap.String("id", item.ID), zap.Int("status", status))
		}

		// Persist against the live stored queue, not the drain snapshot, so
		// requests enqueued while this drain is in flight are preserved. Only
		// the item just attempted is removed or updated, by id.
		q.mu.Lock()
		stored := q.loadLocked()
		next := make([]QueuedRequest, 0, len(stored))
		for _, s := range stored {
			if s.ID != item.ID {
				next = append(next, s)
				continue
			}
			if keep {
				next = append(next, item)
			}
		}
		q.saveLocked(next)
		q.mu.Unlock()
		q.notify(true, len(next))
	}

	q.mu.Lock()
	q.draining = false
	size := len(q.loadLocked())
	q.mu.Unlock()
	q.notify(false, size)
}

// attempt issues one delivery attempt and classifies the outcome.
func (q *SyncQueue) attempt(item QueuedRequest) (delivered, retryable bool, status int) {
	req, err := http.NewRequest(item.Method, item.URL, bytes.NewReader(item.Body))
	if err != nil {
		return false, false, 0
	}
	for k, v := range item.Headers {
		req.Header.Set(k, v)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return false, true, 0
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, false, resp.StatusCode
	}
	if resp.StatusCode >= 500 {
		return false, true, resp.StatusCode
	}
	return false, false, resp.StatusCode
}

// Subscribe registers a state-change listener and returns its unsubscribe.
func (q *SyncQueue) Subscribe(fn Subscriber) func() {
	q.mu.Lock()
	id := q.nextSub
	q.nextSub++
	q.subs[id] = fn
	q.mu.Unlock()
	return func() {
		q.mu.Lock()
		delete(q.subs, id)
		q.mu.Unlock()
	}
}

// Size reports the number of queued requests.
func (q *SyncQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.loadLocked())
}

// Stats reports items delivered and items permanently dropped.
func (q *SyncQueue) Stats() (delivered, failed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.delivered, q.failed
}

func (q *SyncQueue) loadLocked() []QueuedRequest {
	raw, ok, err := q.store.Get(queueKey)
	if err != nil {
		q.logger.Warn("sync queue read failed", zap.Error(err))
		return nil
	}
	if !ok || len(raw) == 0 {
		return nil
	}
	var items []QueuedRequest
	if err := json.Unmarshal(raw, &items); err != nil {
		q.logger.Warn("sync queue corrupted, resetting", zap.Error(err))
		_ = q.store.Delete(queueKey)
		return nil
	}
	return items
}

func (q *SyncQueue) saveLocked(items []QueuedRequest) {
	if len(items) == 0 {
		if err := q.store.Delete(queueKey); err != nil {
			q.logger.Warn("sync queue delete failed", zap.Error(err))
		}
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		q.logger.Warn("sync queue marshal failed", zap.Error(err))
		return
	}
	if err := q.store.Set(queueKey, raw); err != nil {
		q.logger.Warn("sync queue write failed", zap.Error(err))
	}
}

func (q *SyncQueue) notify(isSyncing bool, size int) {
	q.mu.Lock()
	subs := make([]Subscriber, 0, len(q.subs))
	for _, fn := range q.subs {
		subs = append(subs, fn)
	}
	q.mu.Unlock()
	for _, fn := range subs {
		fn(isSyncing, size)
	}
}
