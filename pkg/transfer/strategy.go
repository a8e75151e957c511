// Package transfer implements the Strategy Resolver (C5), Transfer
// Context (C6), and Transfer Executor (C7): resolving a tier pair to a
// TransferStrategy, holding the GPU stream/fabric agent/runtime handle a
// transfer runs against, and dispatching a batch of block copies to
// completion.
package transfer

import "github.com/nornicdb/blockmover/pkg/storage"

// TransferStrategy is the closed set of ways a transfer between two tiers
// can be carried out. Invalid is a sentinel for tier pairs Resolve has no
// strategy for; the executor must refuse to run it rather than silently
// fabricating a copy path.
//
// Grounded 1:1 on block/transfer.rs's TransferStrategy enum, with Nixl(op)
// renamed Fabric(op) to match this system's vocabulary.
type TransferStrategy uint8

const (
	Invalid TransferStrategy = iota
	Memcpy
	CudaAsyncH2D
	CudaAsyncD2H
	CudaAsyncD2D
	CudaBlockingH2D
	CudaBlockingD2H
	FabricRead
	FabricWrite
)

func (s TransferStrategy) String() string {
	switch s {
	case Memcpy:
		return "Memcpy"
	case CudaAsyncH2D:
		return "CudaAsyncH2D"
	case CudaAsyncD2H:
		return "CudaAsyncD2H"
	case CudaAsyncD2D:
		return "CudaAsyncD2D"
	case CudaBlockingH2D:
		return "CudaBlockingH2D"
	case CudaBlockingD2H:
		return "CudaBlockingD2H"
	case FabricRead:
		return "Fabric(Read)"
	case FabricWrite:
		return "Fabric(Write)"
	default:
		return "Invalid"
	}
}

// Resolve is a pure function of the source and destination tier kinds,
// implementing the strategy table of §4.4. A Fabric destination resolves
// to FabricWrite; a Fabric source with a local destination resolves in the
// opposite direction, to FabricRead (the local writable reads from the
// remote side). Resolve returns Invalid only for Fabric -> Fabric.
//
// Disk is treated as source/destination-equivalent to System: it is a
// Local, non-GPU tier with no async copy path of its own, so it shares
// System's row/column of the table. This is a resolved Open Question
// (the distilled table only names System/Pinned/Device/Fabric) recorded
// in the project's design notes.
func Resolve(src, dst storage.Kind) TransferStrategy {
	if dst == storage.KindFabric {
		if src == storage.KindFabric {
			return Invalid
		}
		return FabricWrite
	}
	if src == storage.KindFabric {
		return FabricRead
	}

	srcLocal := localRow(src)
	dstLocal := localCol(dst)
	return localMatrix[srcLocal][dstLocal]
}

// localRow/localCol fold System and Disk onto the same matrix row/column
// since both are Local, non-GPU tiers.
type localTier uint8

const (
	localSystem localTier = iota
	localPinned
	localDevice
)

func localRow(k storage.Kind) localTier {
	switch k {
	case storage.KindPinned:
		return localPinned
	case storage.KindDevice:
		return localDevice
	default: // KindSystem, KindDisk
		return localSystem
	}
}

func localCol(k storage.Kind) localTier { return localRow(k) }

var localMatrix = [3][3]TransferStrategy{
	localSystem: {localSystem: Memcpy, localPinned: Memcpy, localDevice: CudaBlockingH2D},
	localPinned: {localSystem: Memcpy, localPinned: Memcpy, localDevice: CudaAsyncH2D},
	localDevice: {localSystem: CudaBlockingD2H, localPinned: CudaAsyncD2H, localDevice: CudaAsyncD2D},
}

// CudaTransferMode selects between the driver's native async memcpy and a
// custom scatter/gather kernel for the CudaAsyncH2D/D2H strategies.
type CudaTransferMode uint8

const (
	// ModeDefault uses the driver's native async memcpy; both source and
	// destination blocks must be fully contiguous.
	ModeDefault CudaTransferMode = iota
	// ModeCustom uses a per-block scatter/gather kernel, required whenever
	// either side is non-contiguous.
	ModeCustom
)

// ResolveCudaTransferMode chooses Default vs Custom for CudaAsyncH2D/D2H
// per §4.4's contiguity refinement. It panics if called with a strategy
// other than CudaAsyncH2D/CudaAsyncD2H, mirroring resolve_cuda_transfer_mode
// in transfer.rs, which treats being called on the wrong strategy as a
// programmer error rather than a recoverable one.
//
// CudaAsyncD2D deliberately never calls this: it always uses the per-block
// path regardless of contiguity, preserved exactly as the original source
// implements it (see the project's design notes on this Open Question).
func ResolveCudaTransferMode(strategy TransferStrategy, isContiguous bool) CudaTransferMode {
	switch strategy {
	case CudaAsyncH2D, CudaAsyncD2H:
		if isContiguous {
			return ModeDefault
		}
		return ModeCustom
	default:
		panic("transfer: ResolveCudaTransferMode called with non-async-cuda strategy " + strategy.String())
	}
}
