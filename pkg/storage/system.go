package storage

import "unsafe"

// systemStorage is ordinary host-allocated pageable memory. It is both the
// simplest tier and the fallback destination for every other tier's
// read-back path in the round-trip tests.
type systemStorage struct {
	mu    state
	data  []byte
	regs  *RegistrationTable
}

// SystemAllocator allocates ordinary pageable host memory, word-aligned by
// construction because Go's allocator always returns slices aligned to at
// least the platform word size.
type SystemAllocator struct{}

// NewSystemAllocator returns an Allocator for the System tier.
func NewSystemAllocator() *SystemAllocator { return &SystemAllocator{} }

func (a *SystemAllocator) Allocate(size int) (Storage, error) {
	if size <= 0 {
		return nil, ErrInvalidConfig
	}
	return &systemStorage{
		data: make([]byte, size),
		regs: NewRegistrationTable(),
	}, nil
}

func (s *systemStorage) Tier() StorageType { return System() }

func (s *systemStorage) Addr() uintptr {
	if len(s.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&s.data[0]))
}

func (s *systemStorage) Size() int { return len(s.data) }

func (s *systemStorage) Memset(value byte, offset, length int) error {
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

func (s *systemStorage) Register(key string, handle Registration) error {
	if s.mu == stateReleased {
		return ErrClosed
	}
	return s.regs.Register(key, handle)
}

func (s *systemStorage) IsRegistered(key string) bool { return s.regs.IsRegistered(key) }

func (s *systemStorage) RegistrationHandle(key string) (Registration, bool) {
	return s.regs.Handle(key)
}

func (s *systemStorage) Close() error {
	if s.mu == stateReleased {
		return nil
	}
	err := s.regs.ReleaseAll()
	s.mu = stateReleased
	s.data = nil
	return err
}

// Bytes exposes the raw backing slice for System storage so pkg/view can
// build bounded views without re-deriving a pointer from Addr(). Only
// System storage offers this directly; other tiers go through their own
// pointer accessors.
func (s *systemStorage) Bytes() []byte { return s.data }

// SystemBytes returns the raw backing slice of a Storage known to be
// System-tier, or nil if st is not a *systemStorage.
func SystemBytes(st Storage) []byte {
	if s, ok := st.(*systemStorage); ok {
		return s.Bytes()
	}
	return nil
}
