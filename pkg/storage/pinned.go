package storage

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// pinnedStorage is page-locked ("pinned") host memory. It is backed by an
// anonymous mmap region that has been mlock'd so the kernel never swaps or
// migrates it, the property that lets a CUDA driver DMA directly between it
// and device memory without an intermediate staging copy.
type pinnedStorage struct {
	mu    state
	data  []byte
	regs  *RegistrationTable
}

// PinnedAllocator allocates page-locked host memory via mmap+mlock.
type PinnedAllocator struct{}

// NewPinnedAllocator returns an Allocator for the Pinned tier.
func NewPinnedAllocator() *PinnedAllocator { return &PinnedAllocator{} }

func (a *PinnedAllocator) Allocate(size int) (Storage, error) {
	if size <= 0 {
		return nil, ErrInvalidConfig
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap: %s", ErrOperationFailed, err)
	}

	if err := unix.Mlock(data); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("%w: mlock: %s", ErrOperationFailed, err)
	}

	return &pinnedStorage{
		data: data,
		regs: NewRegistrationTable(),
	}, nil
}

func (s *pinnedStorage) Tier() StorageType { return Pinned() }

func (s *pinnedStorage) Addr() uintptr {
	if len(s.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&s.data[0]))
}

func (s *pinnedStorage) Size() int { return len(s.data) }

func (s *pinnedStorage) Memset(value byte, offset, length int) error {
	if s.mu == stateReleased {
		return ErrClosed
	}
	if offset < 0 || length < 0 || offset+length > len(s.data) {
		return ErrOperationFailed
	}
	region := s.data[offset : offset+length]
	for i := range region {
		region[i] = value
	}
	return nil
}

func (s *pinnedStorage) Register(key string, handle Registration) error {
	if s.mu == stateReleased {
		return ErrClosed
	}
	return s.regs.Register(key, handle)
}

func (s *pinnedStorage) IsRegistered(key string) bool { return s.regs.IsRegistered(key) }

func (s *pinnedStorage) RegistrationHandle(key string) (Registration, bool) {
	return s.regs.Handle(key)
}

func (s *pinnedStorage) Close() error {
	if s.mu == stateReleased {
		return nil
	}
	relErr := s.regs.ReleaseAll()

	if err := unix.Munlock(s.data); err != nil && relErr == nil {
		relErr = fmt.Errorf("%w: munlock: %s", ErrOperationFailed, err)
	}
	if err := unix.Munmap(s.data); err != nil && relErr == nil {
		relErr = fmt.Errorf("%w: munmap: %s", ErrOperationFailed, err)
	}

	s.mu = stateReleased
	s.data = nil
	return relErr
}

// Bytes exposes the raw backing slice for Pinned storage so pkg/view can
// build bounded views without re-deriving a pointer from Addr().
func (s *pinnedStorage) Bytes() []byte { return s.data }

// PinnedBytes returns the raw backing slice of a Storage known to be
// Pinned-tier, or nil if st is not a *pinnedStorage.
func PinnedBytes(st Storage) []byte {
	if s, ok := st.(*pinnedStorage); ok {
		return s.Bytes()
	}
	return nil
}
