package fabric

import (
	"fmt"
	"sync"
)

// XferOp is the operation a batched fabric post performs.
type XferOp uint8

const (
	OpRead XferOp = iota
	OpWrite
)

// Future is resolved when a posted transfer completes. It mirrors the
// shape of a NIXL transfer future without depending on a real transport.
type Future interface {
	// Wait blocks until the transfer completes, returning any error the
	// remote side reported.
	Wait() error
}

// Agent posts batched descriptor-list transfers to a remote fabric peer.
// Descriptor batches are passed as flatbuffer-encoded buffers (see
// wire.go's EncodeBatch/DecodeBatch), the same shape a real transport
// would receive the batch in over its own control plane, rather than as
// []Descriptor directly. A real implementation wraps an RDMA or NIXL
// transport; this package ships only LoopbackAgent, an in-process
// stand-in used when no such transport is configured (§ Non-goals: no
// real RDMA/NIXL bring-up).
type Agent interface {
	Post(op XferOp, srcBuf []byte, srcCount int, dstBuf []byte, dstCount int) (Future, error)
}

type doneFuture struct {
	err error
}

func (f *doneFuture) Wait() error { return f.err }

// LoopbackAgent simulates a fabric peer by copying bytes directly between
// the descriptors' addresses within the same process, using the byte
// slices registered against each address via Register. It exists so the
// executor's Fabric dispatch path, wire encoding, and completion-future
// plumbing are exercised without a real transport.
type LoopbackAgent struct {
	mu      sync.Mutex
	regions map[uintptr][]byte
}

// NewLoopbackAgent constructs an empty LoopbackAgent.
func NewLoopbackAgent() *LoopbackAgent {
	return &LoopbackAgent{regions: make(map[uintptr][]byte)}
}

// Register associates addr with the backing bytes a real transport would
// resolve through its own memory registration. Callers register both the
// local and (in single-process tests) the simulated-remote side before
// posting a transfer.
func (a *LoopbackAgent) Register(addr uintptr, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.regions[addr] = data
}

// Post decodes srcBuf/dstBuf (as produced by EncodeBatch) back into
// Descriptor batches and copies bytes between their registered regions.
func (a *LoopbackAgent) Post(op XferOp, srcBuf []byte, srcCount int, dstBuf []byte, dstCount int) (Future, error) {
	if srcCount != dstCount {
		return nil, fmt.Errorf("fabric: mismatched descriptor counts: %d srcs, %d dsts", srcCount, dstCount)
	}
	srcs := DecodeBatch(srcBuf, srcCount)
	dsts := DecodeBatch(dstBuf, dstCount)

	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range srcs {
		s, ok := a.regions[srcs[i].Addr]
		if !ok {
			return nil, fmt.Errorf("fabric: source descriptor at %#x not registered", srcs[i].Addr)
		}
		d, ok := a.regions[dsts[i].Addr]
		if !ok {
			return nil, fmt.Errorf("fabric: destination descriptor at %#x not registered", dsts[i].Addr)
		}
		n := srcs[i].Size
		if n > dsts[i].Size {
			n = dsts[i].Size
		}
		switch op {
		case OpWrite, OpRead:
			copy(d[:n], s[:n])
		}
	}

	return &doneFuture{}, nil
}
