package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultFlushInterval = 30 * time.Second
	defaultStartDelay    = 3 * time.Second
	scrollThrottle       = 300 * time.Millisecond
	mediaThrottle        = 800 * time.Millisecond
)

// Config configures a session Recorder.
type Config struct {
	SessionID string
	PageURL   string
	Sink      RecordingSink
	Privacy   PrivacyPolicy
	Metadata  SessionMetadata

	// FlushInterval is the periodic flush cadence. Defaults to 30s.
	FlushInterval time.Duration
	// StartDelay postpones loading the recording engine after Start so it
	// never contends with the host application's startup. Defaults to 3s;
	// zero loads the engine inline.
	StartDelay time.Duration
	LoadEngine EngineLoader

	// Logger receives every swallowed error. Defaults to a nop logger.
	Logger *zap.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Recorder produces the append-only event sequence for one recording session
// and drives the periodic flush. Its public operations never return an error:
// analytics must never break the host application, so every failure is
// contained and logged.
type Recorder struct {
	cfg     Config
	logger  *zap.Logger
	flusher *flusher
	done    chan struct{}

	mu         sync.Mutex
	started    bool
	stopped    bool
	begun      bool
	stopEngine func()
	startTimer *time.Timer
	events     []Event
}

func NewRecorder(cfg Config) *Recorder {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.StartDelay < 0 {
		cfg.StartDelay = defaultStartDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	r := &Recorder{
		cfg:    cfg,
		logger: cfg.Logger,
		done:   make(chan struct{}),
	}
	r.flusher = newFlusher(cfg.Sink, cfg.SessionID, cfg.PageURL, cfg.Metadata, cfg.Privacy, cfg.Logger, cfg.Now)
	return r
}

// Start begins recording. It is idempotent: calling it while already recording
// is a no-op. Recording silently does not start when the current page is
// excluded by the privacy policy or when the engine fails to load.
func (r *Recorder) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	if r.cfg.Privacy.ExcludesPage(r.cfg.PageURL) {
		r.mu.Unlock()
		r.logger.Info("recording disabled for excluded page", zap.String("page", r.cfg.PageURL))
		return
	}
	r.mu.Unlock()

	if r.cfg.StartDelay > 0 {
		r.mu.Lock()
		r.startTimer = time.AfterFunc(r.cfg.StartDelay, r.begin)
		r.mu.Unlock()
		return
	}
	r.begin()
}

func (r *Recorder) begin() {
	engine, err := r.cfg.LoadEngine()
	if err != nil {
		r.logger.Warn("recording engine failed to load", zap.Error(err))
		return
	}

	stop, err := engine.Start(EngineOptions{
		MaskAllInputs:   r.cfg.Privacy.MaskAllInputs,
		BlockSelectors:  r.cfg.Privacy.BlockSelectors,
		SampleMouseMove: false,
		ScrollThrottle:  scrollThrottle,
		MediaThrottle:   mediaThrottle,
	}, r.append)
	if err != nil {
		r.logger.Warn("recording engine failed to start", zap.Error(err))
		return
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		stop()
		return
	}
	r.stopEngine = stop
	r.begun = true
	r.mu.Unlock()

	go r.flushLoop()
}

func (r *Recorder) append(e Event) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) flushLoop() {
	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.flushNow(false)
		case <-r.done:
			return
		}
	}
}

// flushNow snapshots the full accumulated buffer and hands it to the flusher.
// Each flush re-sends the complete sequence so the sink always holds a
// self-consistent event array, even when an earlier flush was lost.
func (r *Recorder) flushNow(final bool) {
	r.mu.Lock()
	events := make([]Event, len(r.events))
	copy(events, r.events)
	r.mu.Unlock()
	r.flusher.flush(context.Background(), events, final)
}

// Stop halts event emission, cancels the periodic flush, and performs one
// final synchronous flush that seals the session's end time. The final flush
// only happens if the engine actually began recording; a visit that bounces
// before the start delay elapses leaves nothing behind. Safe to call more
// than once and from unload paths.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	if r.startTimer != nil {
		r.startTimer.Stop()
	}
	stop := r.stopEngine
	begun := r.begun
	r.mu.Unlock()

	close(r.done)
	if stop != nil {
		stop()
	}
	if !begun {
		return
	}
	r.flushNow(true)
}

// EventCount reports the size of the in-memory buffer.
func (r *Recorder) EventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
