package gpu

import "sync"

// Context is a single GPU device's runtime state: its simulated device
// memory arena and the stream(s) transfers are enqueued on. Exactly one
// Context exists per device-id, handed out by the Registry.
//
// Device memory is simulated by an in-process arena rather than a real
// CUDA allocation, so the engine's transfer logic, strategy resolution,
// and round-trip tests are exercised without a GPU present.
type Context struct {
	DeviceID int

	mu      sync.Mutex
	streams []*Stream
	arena   *arena
}

func newContext(deviceID int) (*Context, error) {
	return &Context{
		DeviceID: deviceID,
		arena:    newArena(),
	}, nil
}

// NewStream mints a new Stream bound to this context. Callers who want
// transfers to proceed in parallel on the GPU allocate more streams (or
// more contexts); all transfers sharing one Stream serialize in enqueue
// order.
func (c *Context) NewStream() *Stream {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := newStream()
	c.streams = append(c.streams, s)
	return s
}

// DefaultStream returns this context's first stream, creating it on first
// use.
func (c *Context) DefaultStream() *Stream {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.streams) == 0 {
		c.streams = append(c.streams, newStream())
	}
	return c.streams[0]
}

// Alloc reserves size bytes in this context's simulated device arena and
// returns its opaque address.
func (c *Context) Alloc(size int) (uintptr, error) {
	return c.arena.alloc(size)
}

// Free drops addr's region from this context's arena, including a region
// registered through Adopt. A no-op if addr is unknown.
func (c *Context) Free(addr uintptr) {
	c.arena.free(addr)
}

// Lookup returns the backing byte slice for a simulated device address, or
// nil if addr is not owned by this context's arena.
func (c *Context) Lookup(addr uintptr) []byte {
	return c.arena.lookup(addr)
}

// Adopt registers a foreign region (already-allocated elsewhere, e.g. by a
// tensor framework) into this context's address space so Lookup can find
// it. The arena does not take ownership: Free is never called on an
// adopted address by storage.Close.
func (c *Context) Adopt(addr uintptr, data []byte) {
	c.arena.adopt(addr, data)
}
