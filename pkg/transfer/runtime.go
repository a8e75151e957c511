package transfer

import "sync"

// RuntimeConfig configures the opt-in, concurrency-bounded offload used by
// the Memcpy strategy. Fabric completion waits (Spawn) are not governed by
// it.
//
// Grounded on pkg/pool.PoolConfig's Enabled/MaxSize shape, adapted from an
// object-pool sizing knob into a worker-count sizing knob: the same
// "disabled by default, bounded when enabled" posture, applied to task
// dispatch instead of allocation reuse.
type RuntimeConfig struct {
	// OffloadEnabled routes Memcpy copies through Offload, which caps how
	// many run at once; each copy still runs on the calling goroutine.
	OffloadEnabled bool

	// Workers bounds the number of offloaded copies running at once.
	// Ignored if OffloadEnabled is false; fabric completion waits are not
	// counted against it.
	Workers int
}

// DefaultRuntimeConfig matches §8's documented default: Memcpy blocks the
// calling goroutine unless a caller explicitly opts into offload.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{OffloadEnabled: false, Workers: 4}
}

// RuntimeHandle runs fabric-completion waits on their own goroutines and,
// when offload is enabled, caps how many Memcpy copies run at once across
// callers. It is the Go analogue of the async runtime
// handle `TransferContext::async_rt_handle()` exposes in the original
// source for spawning fabric completion tasks off the calling thread.
type RuntimeHandle struct {
	cfg  RuntimeConfig
	sem  chan struct{}
	once sync.Once
}

// NewRuntimeHandle constructs a RuntimeHandle from cfg. A zero Workers
// with OffloadEnabled true is corrected to 1 so Offload never deadlocks.
func NewRuntimeHandle(cfg RuntimeConfig) *RuntimeHandle {
	if cfg.OffloadEnabled && cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	h := &RuntimeHandle{cfg: cfg}
	if cfg.OffloadEnabled {
		h.sem = make(chan struct{}, cfg.Workers)
	}
	return h
}

// Spawn runs fn on a new goroutine, always used for fabric completion
// polling (§4.6.4) regardless of OffloadEnabled, since fabric transfers
// are inherently asynchronous and must never block the executor's
// caller.
func (h *RuntimeHandle) Spawn(fn func()) {
	go fn()
}

// OffloadEnabled reports whether Memcpy copies should be dispatched to
// the worker pool instead of running inline.
func (h *RuntimeHandle) OffloadEnabled() bool { return h.cfg.OffloadEnabled }

// Offload runs fn on the calling goroutine once one of the Workers slots
// is free, blocking the caller until fn has returned. Only valid when OffloadEnabled
// is true; callers check OffloadEnabled before calling this to decide
// between the inline and offloaded Memcpy path.
func (h *RuntimeHandle) Offload(fn func()) {
	h.sem <- struct{}{}
	defer func() { <-h.sem }()
	fn()
}
