package client

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	mu     sync.Mutex
	starts int
	stops  int
	opts   EngineOptions
	emit   func(Event)
}

func (e *fakeEngine) Start(opts EngineOptions, emit func(Event)) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.starts++
	e.opts = opts
	e.emit = emit
	return func() {
		e.mu.Lock()
		e.stops++
		e.mu.Unlock()
	}, nil
}

func (e *fakeEngine) emitEvent(ev Event) {
	e.mu.Lock()
	emit := e.emit
	e.mu.Unlock()
	emit(ev)
}

func countingLoader(engine *fakeEngine, loads *int) EngineLoader {
	return func() (Engine, error) {
		*loads++
		return engine, nil
	}
}

func testConfig(sink RecordingSink, loader EngineLoader) Config {
	return Config{
		SessionID:  "s1",
		PageURL:    "http://app/home",
		Sink:       sink,
		Privacy:    DefaultPrivacyPolicy(),
		LoadEngine: loader,
		StartDelay: 0,
	}
}

func TestStartIsIdempotent(t *testing.T) {
	engine := &fakeEngine{}
	loads := 0
	r := NewRecorder(testConfig(&fakeRecordingSink{}, countingLoader(engine, &loads)))

	r.Start()
	r.Start()
	r.Start()

	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, engine.starts)
	r.Stop()
}

func TestEngineLoadFailureDisablesRecording(t *testing.T) {
	sink := &fakeRecordingSink{}
	r := NewRecorder(testConfig(sink, func() (Engine, error) {
		return nil, errors.New("script blocked")
	}))

	r.Start()
	r.Stop()

	// a session that never recorded must not be persisted
	assert.Empty(t, sink.creates)
	assert.Empty(t, sink.updates)
}

func TestExcludedPageDisablesRecording(t *testing.T) {
	engine := &fakeEngine{}
	loads := 0
	cfg := testConfig(&fakeRecordingSink{}, countingLoader(engine, &loads))
	cfg.PageURL = "http://app/admin/settings"
	cfg.Privacy.ExcludePages = []string{"http://app/admin/*"}
	sink := cfg.Sink.(*fakeRecordingSink)
	r := NewRecorder(cfg)

	r.Start()
	r.Stop()

	assert.Equal(t, 0, loads)
	assert.Empty(t, sink.creates)
}

func TestPrivacyPolicyReachesEngine(t *testing.T) {
	engine := &fakeEngine{}
	loads := 0
	cfg := testConfig(&fakeRecordingSink{}, countingLoader(engine, &loads))
	cfg.Privacy.MaskAllInputs = true
	cfg.Privacy.BlockSelectors = []string{".card-number"}
	r := NewRecorder(cfg)

	r.Start()
	defer r.Stop()

	assert.True(t, engine.opts.MaskAllInputs)
	assert.Equal(t, []string{".card-number"}, engine.opts.BlockSelectors)
	assert.Equal(t, scrollThrottle, engine.opts.ScrollThrottle)
	assert.Equal(t, mediaThrottle, engine.opts.MediaThrottle)
}

func TestStopFlushesFinalStateAndHaltsEngine(t *testing.T) {
	engine := &fakeEngine{}
	loads := 0
	sink := &fakeRecordingSink{}
	r := NewRecorder(testConfig(sink, countingLoader(engine, &loads)))

	r.Start()
	engine.emitEvent(clickEvent())
	engine.emitEvent(navEvent("http://app/pricing"))
	require.Equal(t, 2, r.EventCount())

	r.Stop()
	r.Stop()

	assert.Equal(t, 1, engine.stops)
	require.Len(t, sink.creates, 1)
	up := sink.creates[0]
	assert.Equal(t, 2, up.EventCount)
	require.NotNil(t, up.EndTime)

	// emissions after stop are dropped
	engine.emitEvent(clickEvent())
	assert.Equal(t, 2, r.EventCount())
}

func TestFullBufferIsResentEachFlush(t *testing.T) {
	engine := &fakeEngine{}
	loads := 0
	sink := &fakeRecordingSink{}
	r := NewRecorder(testConfig(sink, countingLoader(engine, &loads)))

	r.Start()
	engine.emitEvent(clickEvent())
	r.flushNow(false)
	engine.emitEvent(clickEvent())
	r.flushNow(false)

	require.Len(t, sink.creates, 1)
	require.Len(t, sink.updates, 1)
	assert.Equal(t, 1, sink.creates[0].EventCount)
	assert.Equal(t, 2, sink.updates[0].EventCount)

	r.Stop()
}

func TestPeriodicFlushTicks(t *testing.T) {
	engine := &fakeEngine{}
	loads := 0
	sink := &fakeRecordingSink{}
	cfg := testConfig(sink, countingLoader(engine, &loads))
	cfg.FlushInterval = 10 * time.Millisecond
	r := NewRecorder(cfg)

	r.Start()
	engine.emitEvent(clickEvent())

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.creates) >= 1
	}, time.Second, time.Millisecond)

	r.Stop()
}

func TestDelayedStartCancelledByStop(t *testing.T) {
	engine := &fakeEngine{}
	loads := 0
	sink := &fakeRecordingSink{}
	cfg := testConfig(sink, countingLoader(engine, &loads))
	cfg.StartDelay = time.Hour
	r := NewRecorder(cfg)

	r.Start()
	r.Stop()

	assert.Equal(t, 0, loads)
	assert.Equal(t, 0, engine.starts)

	// a visit that bounces before the start delay elapses must not persist an
	// empty recording
	assert.Empty(t, sink.creates)
	assert.Empty(t, sink.updates)
}
