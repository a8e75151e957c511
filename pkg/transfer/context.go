package transfer

import (
	"sync/atomic"

	"github.com/nornicdb/blockmover/pkg/fabric"
	"github.com/nornicdb/blockmover/pkg/gpu"
)

// StreamPoolConfig controls how many streams a Context mints from its
// device, letting multiple concurrent contexts share one device without
// sharing a stream (§5 S4: same device, distinct contexts, independent
// per-context ordering).
type StreamPoolConfig struct {
	DeviceID    int `yaml:"deviceId"`
	StreamCount int `yaml:"streamCount"`
}

// DefaultStreamPoolConfig mints a single stream on device 0.
func DefaultStreamPoolConfig() StreamPoolConfig {
	return StreamPoolConfig{DeviceID: 0, StreamCount: 1}
}

// Context is the Transfer Context (C6): the GPU stream(s) async copies
// and events are enqueued on, the fabric agent used by the Fabric
// back-end, and the runtime handle fabric completion polling and
// offloaded Memcpy copies run on.
//
// All transfers sharing one Context serialize on its stream in enqueue
// order; callers wanting parallel GPU transfers construct more Contexts
// (or request a larger StreamCount and round-robin Stream()).
type Context struct {
	streams []*gpu.Stream
	next    uint64

	agent   fabric.Agent
	runtime *RuntimeHandle
}

// NewContext constructs a Context, initializing cfg.DeviceID's gpu.Context
// and minting cfg.StreamCount streams from it.
func NewContext(cfg StreamPoolConfig, agent fabric.Agent, rt *RuntimeHandle) (*Context, error) {
	if cfg.StreamCount <= 0 {
		return nil, InvalidConfig("StreamPoolConfig.StreamCount must be positive")
	}
	devCtx, err := gpu.GetOrCreate(cfg.DeviceID)
	if err != nil {
		return nil, Cuda(err)
	}

	streams := make([]*gpu.Stream, cfg.StreamCount)
	for i := range streams {
		streams[i] = devCtx.NewStream()
	}

	if rt == nil {
		rt = NewRuntimeHandle(DefaultRuntimeConfig())
	}

	return &Context{streams: streams, agent: agent, runtime: rt}, nil
}

// Stream returns a stream from the pool, round-robining across
// StreamCount streams so concurrent calls to Execute spread across them.
func (c *Context) Stream() *gpu.Stream {
	i := atomic.AddUint64(&c.next, 1) - 1
	return c.streams[i%uint64(len(c.streams))]
}

// Agent returns the fabric agent this context posts Fabric-strategy
// transfers to.
func (c *Context) Agent() fabric.Agent { return c.agent }

// Runtime returns the runtime handle fabric completion waits and
// offloaded Memcpy copies run on.
func (c *Context) Runtime() *RuntimeHandle { return c.runtime }

// RecordEvent posts a GPU event on stream and, when it retires, closes
// done. Used by the executor's CudaAsync* dispatch so the completion
// channel fires only after the stream has actually drained past every
// copy enqueued ahead of the event -- not merely after the enqueue calls
// return.
func (c *Context) RecordEvent(stream *gpu.Stream, done chan<- struct{}) {
	stream.Enqueue(func() {
		close(done)
	})
}
