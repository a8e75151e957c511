// Package view provides the Typed Memory View (C4): a bounded,
// tier-tagged window onto a storage.Storage region, distinguishing a view
// over a whole block from a view over a single layer within one at the
// type level.
//
// Grounded on block_manager/block/data/view.rs's MemoryView<S, K>, whose
// PhantomData<K> marker has no Go equivalent; a generic type parameter
// constrained to the Kind interface plays the same role here, giving
// BlockView and LayerView distinct static types even though their runtime
// representation is identical.
package view

import (
	"errors"

	"github.com/nornicdb/blockmover/pkg/storage"
)

// ErrOutOfBounds is returned when a requested view would read or write
// past the end of its backing storage.
var ErrOutOfBounds = errors.New("view: out of bounds")

// Kind marks whether a MemoryView addresses an entire block or a single
// layer within one. It exists purely at compile time; BlockKind and
// LayerKind carry no data.
type Kind interface {
	kind()
}

// BlockKind marks a view over an entire block.
type BlockKind struct{}

func (BlockKind) kind() {}

// LayerKind marks a view over a single layer within a block.
type LayerKind struct{}

func (LayerKind) kind() {}

// MemoryView is a read-only, bounded window onto a Storage region. K is a
// phantom type parameter: MemoryView[BlockKind] and MemoryView[LayerKind]
// are distinct types even though View holds the same fields, preventing a
// layer-granularity view from being passed where a whole-block view is
// expected and vice versa.
type MemoryView[K Kind] struct {
	backing  storage.Storage
	offset   int
	length   int
	tierType storage.StorageType
}

// New constructs a MemoryView over [offset, offset+length) of backing.
// Fails with ErrOutOfBounds if that range exceeds backing's size.
func New[K Kind](backing storage.Storage, offset, length int) (MemoryView[K], error) {
	if offset < 0 || length < 0 || offset+length > backing.Size() {
		return MemoryView[K]{}, ErrOutOfBounds
	}
	return MemoryView[K]{
		backing:  backing,
		offset:   offset,
		length:   length,
		tierType: backing.Tier(),
	}, nil
}

// Addr returns the view's base address: backing.Addr()+offset for
// pointer-addressable tiers, or backing.Addr() unchanged for Disk (whose
// address is a file descriptor, not a memory offset) and Fabric (which
// has no local address at all).
func (v MemoryView[K]) Addr() uintptr {
	switch v.tierType.Kind {
	case storage.KindDisk, storage.KindFabric:
		return v.backing.Addr()
	default:
		return v.backing.Addr() + uintptr(v.offset)
	}
}

// Offset returns the byte offset this view starts at within its backing
// storage, meaningful on its own for Disk-tier views (a positioned
// read/write offset rather than a pointer adjustment).
func (v MemoryView[K]) Offset() int { return v.offset }

// Size returns the view's length in bytes.
func (v MemoryView[K]) Size() int { return v.length }

// Tier returns the tier tag of the underlying storage.
func (v MemoryView[K]) Tier() storage.StorageType { return v.tierType }

// Storage returns the backing Storage this view was taken on, used by the
// transfer executor to reach tier-specific operations (e.g. Disk's
// ReadAt/WriteAt) that the view itself does not expose.
func (v MemoryView[K]) Storage() storage.Storage { return v.backing }

// Bytes returns the raw backing slice this view addresses, for tiers that
// expose one directly (System, Pinned). Returns nil for Device, Disk, and
// Fabric views, which must go through their tier-specific access path
// instead.
func (v MemoryView[K]) Bytes() []byte {
	var full []byte
	switch v.tierType.Kind {
	case storage.KindSystem:
		full = storage.SystemBytes(v.backing)
	case storage.KindPinned:
		full = storage.PinnedBytes(v.backing)
	default:
		return nil
	}
	if full == nil {
		return nil
	}
	return full[v.offset : v.offset+v.length]
}

// MemoryViewMut is the mutable counterpart of MemoryView. Go has no
// mechanism equivalent to Rust's shared/exclusive borrow split, so
// exclusivity between a MemoryView and MemoryViewMut taken over the same
// region is a caller discipline, matching the teacher's own reliance on
// doc comments rather than compiler enforcement for internal invariants.
type MemoryViewMut[K Kind] struct {
	MemoryView[K]
}

// NewMut constructs a mutable MemoryViewMut over [offset, offset+length)
// of backing.
func NewMut[K Kind](backing storage.Storage, offset, length int) (MemoryViewMut[K], error) {
	v, err := New[K](backing, offset, length)
	if err != nil {
		return MemoryViewMut[K]{}, err
	}
	return MemoryViewMut[K]{MemoryView: v}, nil
}

// BlockView is a view over an entire block.
type BlockView = MemoryView[BlockKind]

// BlockViewMut is a mutable view over an entire block.
type BlockViewMut = MemoryViewMut[BlockKind]

// LayerView is a view over a single layer within a block.
type LayerView = MemoryView[LayerKind]

// LayerViewMut is a mutable view over a single layer within a block.
type LayerViewMut = MemoryViewMut[LayerKind]
