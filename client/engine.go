package client

import "time"

// EngineOptions carries the privacy rules and sampling throttles handed to the
// recording engine. Mouse movement capture is disabled outright; scroll and
// media events are sampled to bound DOM serialization cost.
type EngineOptions struct {
	MaskAllInputs   bool
	BlockSelectors  []string
	SampleMouseMove bool
	ScrollThrottle  time.Duration
	MediaThrottle   time.Duration
}

// Engine is the underlying DOM-mutation/interaction recorder. Start begins
// pushing events through emit and returns a stop function. Implementations
// must not block inside emit.
type Engine interface {
	Start(opts EngineOptions, emit func(Event)) (stop func(), err error)
}

// EngineLoader defers construction of the engine until recording actually
// starts, so the engine never contends with the host application's startup.
type EngineLoader func() (Engine, error)
