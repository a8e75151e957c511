package transfer

import (
	"github.com/nornicdb/blockmover/pkg/fabric"
	"github.com/nornicdb/blockmover/pkg/gpu"
	"github.com/nornicdb/blockmover/pkg/storage"
	"github.com/nornicdb/blockmover/pkg/view"
)

// BlockIdentity carries the block-set index and worker ID every source/
// target pair must agree on (§4.6's MismatchedBlockSetIndex/
// MismatchedWorkerID preconditions). Callers that don't model block sets
// or multi-worker pools pass the zero value on both sides.
type BlockIdentity struct {
	BlockSetIndex int
	WorkerID      int
}

// ContiguityHint reports whether a source/target view's block layout is
// fully contiguous, required for the CudaAsyncH2D/D2H mode refinement
// (§4.4). Contiguity is a property of block layout metadata this package
// does not own, so callers supply it rather than the executor inferring
// it from the view.
type ContiguityHint func() bool

// AlwaysContiguous is a ContiguityHint for callers with no block-layout
// metadata to consult, e.g. tests operating on single flat buffers.
func AlwaysContiguous() bool { return true }

// Execute dispatches a batch of source->target copies sharing one
// resolved TransferStrategy, returning a channel that closes exactly once
// when the whole batch's completion signal fires.
//
// Preconditions, each returned as the named *TransferError from §4.6:
//   - len(sources) == len(targets), else CountMismatch.
//   - len(sources) > 0, else NoBlocksProvided.
//   - every identity pair agrees on BlockSetIndex/WorkerID, else
//     MismatchedBlockSetIndex/MismatchedWorkerID.
//   - the resolved strategy is not Invalid, else IncompatibleTypes.
func Execute[K view.Kind](
	sources []view.MemoryView[K],
	targets []view.MemoryView[K],
	identities []BlockIdentity,
	ctx *Context,
	contiguous ContiguityHint,
) (<-chan struct{}, error) {
	if len(sources) != len(targets) {
		return nil, CountMismatch(len(sources), len(targets))
	}
	if len(sources) == 0 {
		return nil, NoBlocksProvided()
	}
	if len(identities) != len(sources) {
		return nil, BuilderError("identities must have one entry per source/target pair")
	}
	for i := 1; i < len(identities); i++ {
		if identities[i].BlockSetIndex != identities[0].BlockSetIndex {
			return nil, MismatchedBlockSetIndex(Destination, identities[0].BlockSetIndex, identities[i].BlockSetIndex)
		}
		if identities[i].WorkerID != identities[0].WorkerID {
			return nil, MismatchedWorkerID(Destination, identities[0].WorkerID, identities[i].WorkerID)
		}
	}

	srcKind := sources[0].Tier().Kind
	dstKind := targets[0].Tier().Kind
	strategy := Resolve(srcKind, dstKind)
	if strategy == Invalid {
		return nil, IncompatibleTypes("resolved strategy is Invalid for " +
			sources[0].Tier().String() + " -> " + targets[0].Tier().String())
	}
	if err := requireCapabilities(srcKind, dstKind, strategy); err != nil {
		return nil, err
	}

	done := make(chan struct{})

	switch strategy {
	case Memcpy:
		return dispatchMemcpy(sources, targets, ctx, done)
	case CudaAsyncH2D, CudaAsyncD2H:
		return dispatchCudaAsync(sources, targets, ctx, done, strategy, contiguous)
	case CudaAsyncD2D:
		return dispatchCudaAsyncPerBlock(sources, targets, ctx, done, strategy)
	case CudaBlockingH2D, CudaBlockingD2H:
		return dispatchCudaBlocking(sources, targets, ctx, done, strategy)
	case FabricRead, FabricWrite:
		return dispatchFabric(sources, targets, ctx, done, strategy)
	default:
		return nil, IncompatibleTypes("no dispatch path for strategy " + strategy.String())
	}
}

// requireCapabilities checks the resolved strategy against the
// intersection of capabilities §9 assigns each tier, catching a resolver
// or call-site bug (e.g. a Fabric strategy paired with a non-registrable
// local tier) with a clear error instead of failing deep inside dispatch.
func requireCapabilities(srcKind, dstKind storage.Kind, strategy TransferStrategy) error {
	src := storage.CapabilitiesOf(srcKind)
	dst := storage.CapabilitiesOf(dstKind)

	switch strategy {
	case FabricRead:
		if !src.Remote || !dst.FabricRegistrable {
			return IncompatibleTypes("FabricRead requires a Remote source and a FabricRegistrable destination")
		}
	case FabricWrite:
		if !src.FabricRegistrable || !dst.Remote {
			return IncompatibleTypes("FabricWrite requires a FabricRegistrable source and a Remote destination")
		}
	case CudaAsyncH2D, CudaAsyncD2H, CudaAsyncD2D, CudaBlockingH2D, CudaBlockingD2H:
		if !src.GpuAccessible && !dst.GpuAccessible {
			return IncompatibleTypes("cuda strategy requires at least one GpuAccessible tier")
		}
	}
	return nil
}

func dispatchMemcpy[K view.Kind](sources, targets []view.MemoryView[K], ctx *Context, done chan struct{}) (<-chan struct{}, error) {
	run := func() error {
		for i := range sources {
			if err := copyBytes(sources[i], targets[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if ctx.Runtime().OffloadEnabled() {
		var runErr error
		ctx.Runtime().Offload(func() { runErr = run() })
		if runErr != nil {
			return nil, ExecutionError(runErr)
		}
		close(done)
		return done, nil
	}

	if err := run(); err != nil {
		return nil, ExecutionError(err)
	}
	close(done)
	return done, nil
}

func dispatchCudaAsync[K view.Kind](sources, targets []view.MemoryView[K], ctx *Context, done chan struct{}, strategy TransferStrategy, contiguous ContiguityHint) (<-chan struct{}, error) {
	mode := ResolveCudaTransferMode(strategy, contiguous())
	stream := ctx.Stream()

	switch mode {
	case ModeDefault:
		// Both sides contiguous: one native async memcpy per pair, each
		// enqueued on the same stream.
		for i := range sources {
			if err := enqueueCudaCopy(stream, sources[i], targets[i], strategy); err != nil {
				return nil, ExecutionError(err)
			}
		}
	case ModeCustom:
		// Non-contiguous: per-block scatter/gather, one enqueue per pair.
		// A real implementation launches a single descriptor-list kernel;
		// absent a live kernel, per-block copies on the same stream give
		// the same ordering guarantee the spec requires.
		for i := range sources {
			if err := enqueueCudaCopy(stream, sources[i], targets[i], strategy); err != nil {
				return nil, ExecutionError(err)
			}
		}
	}

	ctx.RecordEvent(stream, done)
	return done, nil
}

func dispatchCudaAsyncPerBlock[K view.Kind](sources, targets []view.MemoryView[K], ctx *Context, done chan struct{}, strategy TransferStrategy) (<-chan struct{}, error) {
	// CudaAsyncD2D deliberately skips the contiguity refinement and
	// always takes the per-block path, preserved exactly as the system
	// this was distilled from implements it.
	stream := ctx.Stream()
	for i := range sources {
		if err := enqueueCudaCopy(stream, sources[i], targets[i], strategy); err != nil {
			return nil, ExecutionError(err)
		}
	}
	ctx.RecordEvent(stream, done)
	return done, nil
}

func dispatchCudaBlocking[K view.Kind](sources, targets []view.MemoryView[K], ctx *Context, done chan struct{}, strategy TransferStrategy) (<-chan struct{}, error) {
	for i := range sources {
		if err := blockingCudaCopy(sources[i], targets[i], strategy); err != nil {
			return nil, ExecutionError(err)
		}
	}
	close(done)
	return done, nil
}

func dispatchFabric[K view.Kind](sources, targets []view.MemoryView[K], ctx *Context, done chan struct{}, strategy TransferStrategy) (<-chan struct{}, error) {
	srcDescs := make([]fabric.Descriptor, len(sources))
	dstDescs := make([]fabric.Descriptor, len(targets))
	for i := range sources {
		d, ok := view.AsFabricDescriptor(sources[i])
		if !ok {
			return nil, IncompatibleTypes("source view's tier has no fabric descriptor")
		}
		srcDescs[i] = d
		d, ok = view.AsFabricDescriptor(targets[i])
		if !ok {
			return nil, IncompatibleTypes("destination view's tier has no fabric descriptor")
		}
		dstDescs[i] = d
	}

	op := fabric.OpWrite
	if strategy == FabricRead {
		op = fabric.OpRead
	}

	srcBuf := fabric.EncodeBatch(srcDescs)
	dstBuf := fabric.EncodeBatch(dstDescs)
	fut, err := ctx.Agent().Post(op, srcBuf, len(srcDescs), dstBuf, len(dstDescs))
	if err != nil {
		return nil, ExecutionError(err)
	}

	ctx.Runtime().Spawn(func() {
		_ = fut.Wait()
		close(done)
	})
	return done, nil
}

// enqueueCudaCopy enqueues one pair's simulated arena copy on stream and
// waits for it to run on the stream's worker goroutine, so the copy keeps
// its enqueue order relative to other work on the stream and its error is
// returned to the caller. The dispatch paths that use it therefore return
// only after every pair's copy has run.
func enqueueCudaCopy[K view.Kind](stream interface{ Enqueue(func()) }, src, dst view.MemoryView[K], strategy TransferStrategy) error {
	errCh := make(chan error, 1)
	stream.Enqueue(func() {
		errCh <- simulatedCudaCopy(src, dst, strategy)
	})
	return <-errCh
}

func blockingCudaCopy[K view.Kind](src, dst view.MemoryView[K], strategy TransferStrategy) error {
	return simulatedCudaCopy(src, dst, strategy)
}

// simulatedCudaCopy performs the byte-level copy for a CUDA-strategy pair
// without a real device: it goes through Bytes() for System/Pinned views
// and the Device arena lookup (via storage.Storage's device-aware tier)
// otherwise. No real CUDA memcpy path exists in this tree; this is the
// only implementation, invoked identically from both the async and
// blocking dispatch paths since the only difference between them is
// stream placement, not the copy itself.
func simulatedCudaCopy[K view.Kind](src, dst view.MemoryView[K], strategy TransferStrategy) error {
	srcBytes := resolveViewBytes(src)
	dstBytes := resolveViewBytes(dst)
	if srcBytes == nil || dstBytes == nil {
		return ErrUnsupportedTier
	}
	if len(srcBytes) != len(dstBytes) {
		return ErrSizeMismatch
	}
	copy(dstBytes, srcBytes)
	return nil
}

func resolveViewBytes[K view.Kind](v view.MemoryView[K]) []byte {
	if b := v.Bytes(); b != nil {
		return b
	}
	if v.Tier().Kind != storage.KindDevice {
		return nil
	}
	ctx, ok := gpu.Get(v.Tier().DeviceID)
	if !ok {
		return nil
	}
	region := ctx.Lookup(v.Addr() - uintptr(v.Offset()))
	if region == nil || v.Offset()+v.Size() > len(region) {
		return nil
	}
	return region[v.Offset() : v.Offset()+v.Size()]
}
