// Package storage provides tier-specific block storage for the blockmover
// transfer engine.
//
// A Storage is a contiguous, owned region of memory in exactly one tier:
// System (pageable host memory), Pinned (page-locked host memory), Device
// (GPU memory), Disk (a backing file), or Fabric (a remote region described
// by a descriptor received from a peer, never allocated locally). All four
// local tiers are created by a per-tier Allocator and mutated only through
// memset or a view from pkg/view.
//
// Example:
//
//	alloc := storage.NewSystemAllocator()
//	s, err := alloc.Allocate(4096)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer s.Close()
//	s.Memset(0xAB, 0, 4096)
package storage

import "errors"

// Sentinel errors returned by Storage and Allocator implementations.
var (
	ErrInvalidConfig   = errors.New("storage: invalid configuration")
	ErrOperationFailed = errors.New("storage: operation failed")
	ErrAlreadyExists   = errors.New("storage: already exists")
	ErrNotFound        = errors.New("storage: not found")
	ErrClosed          = errors.New("storage: already released")
	ErrCuda            = errors.New("storage: cuda driver error")
)

// Kind is the tier tag of a Storage. It is a closed set: System, Pinned,
// Device, Disk, Fabric. Go has no sum types, so Kind is a byte enum and the
// device-id/fd/remote-handle payload that only some kinds carry lives
// alongside it in StorageType.
type Kind uint8

const (
	KindSystem Kind = iota
	KindPinned
	KindDevice
	KindDisk
	KindFabric
)

func (k Kind) String() string {
	switch k {
	case KindSystem:
		return "System"
	case KindPinned:
		return "Pinned"
	case KindDevice:
		return "Device"
	case KindDisk:
		return "Disk"
	case KindFabric:
		return "Fabric"
	default:
		return "Unknown"
	}
}

// StorageType is the tier tag carried by every Storage and, via
// view.MemoryView, by every view taken on it. DeviceID is meaningful only
// for KindDevice, FD only for KindDisk, and Handle only for KindFabric.
type StorageType struct {
	Kind     Kind
	DeviceID int
	FD       uintptr
	Handle   string
}

func System() StorageType  { return StorageType{Kind: KindSystem} }
func Pinned() StorageType  { return StorageType{Kind: KindPinned} }
func Device(id int) StorageType {
	return StorageType{Kind: KindDevice, DeviceID: id}
}
func Disk(fd uintptr) StorageType { return StorageType{Kind: KindDisk, FD: fd} }
func Fabric(handle string) StorageType {
	return StorageType{Kind: KindFabric, Handle: handle}
}

func (t StorageType) String() string {
	switch t.Kind {
	case KindDevice:
		return "Device(" + itoa(t.DeviceID) + ")"
	case KindDisk:
		return "Disk(fd=" + itoa(int(t.FD)) + ")"
	case KindFabric:
		return "Fabric(" + t.Handle + ")"
	default:
		return t.Kind.String()
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// state tracks the C1 lifecycle: Uninit -> Allocated -> Registered(k1..kn)
// -> Released. memset and view issuance are only valid while not released.
type state uint8

const (
	stateAllocated state = iota
	stateReleased
)

// Storage is a contiguous owned region of memory in exactly one tier.
//
// Storage is single-owner: it is created by an Allocator, mutated only via
// Memset or a pkg/view.MemoryView, and destroyed by Close, which releases
// every registration before running the tier-specific deallocator -- unless
// the storage holds foreign (adopted) memory, in which case the
// deallocator is skipped and only the external owner's reference is
// dropped.
type Storage interface {
	// Tier returns this storage's tier tag, including any device-id/fd/
	// handle payload.
	Tier() StorageType

	// Addr returns the opaque base address of the region. For Disk
	// storage this is the file descriptor; for Fabric storage it is the
	// remote address token the descriptor was built from, which is not
	// locally dereferenceable.
	Addr() uintptr

	// Size returns the region size in bytes.
	Size() int

	// Memset fills length bytes starting at offset with value. Returns
	// ErrOperationFailed if offset+length exceeds Size.
	Memset(value byte, offset, length int) error

	// Register inserts an opaque registration under key. Insertion is
	// idempotent-by-key: a second Register with the same key fails with
	// ErrAlreadyExists.
	Register(key string, handle Registration) error

	// IsRegistered reports whether key has been registered.
	IsRegistered(key string) bool

	// RegistrationHandle returns the registration stored under key, or
	// (nil, false) if absent.
	RegistrationHandle(key string) (Registration, bool)

	// Close releases every registration, then runs the tier-specific
	// deallocator (skipped for adopted foreign memory). Close is
	// idempotent; a Storage cannot move from Released back to Allocated.
	Close() error
}

// Allocator allocates a Storage in exactly one tier.
type Allocator interface {
	Allocate(size int) (Storage, error)
}

// Registration is an opaque handle associated with a Storage under a
// string key (e.g. a fabric registration token). Release is called exactly
// once, during Storage.Close, before the backing memory is freed.
type Registration interface {
	Release() error
}
