package storage

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// diskStorage is a fixed-size region of a backing file, addressed by file
// descriptor and accessed with positioned reads/writes so concurrent
// callers never need to coordinate a shared file offset.
type diskStorage struct {
	mu      state
	file    *os.File
	size    int
	regs    *RegistrationTable
	store   *RegistrationStore
	storeID string
}

// DiskAllocator allocates Disk-tier storage backed by temporary files
// under dir. An empty dir uses the OS default temp directory.
type DiskAllocator struct {
	dir   string
	store *RegistrationStore
}

// NewDiskAllocator returns an Allocator for the Disk tier, creating
// backing files under dir. Registrations made on storage it allocates are
// kept in memory only.
func NewDiskAllocator(dir string) *DiskAllocator {
	return &DiskAllocator{dir: dir}
}

// NewDiskAllocatorWithStore is NewDiskAllocator, but additionally persists
// every Register/Close on the storage it allocates to store, so a Disk
// region's fabric registrations survive process restart. store is shared
// across every diskStorage the allocator produces; callers own its
// lifetime (Close it after every allocated Storage has been Closed).
func NewDiskAllocatorWithStore(dir string, store *RegistrationStore) *DiskAllocator {
	return &DiskAllocator{dir: dir, store: store}
}

func (a *DiskAllocator) Allocate(size int) (Storage, error) {
	if size <= 0 {
		return nil, ErrInvalidConfig
	}

	f, err := os.CreateTemp(a.dir, "blockmover-disk-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %s", ErrOperationFailed, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("%w: truncate: %s", ErrOperationFailed, err)
	}

	return &diskStorage{
		file:    f,
		size:    size,
		regs:    NewRegistrationTable(),
		store:   a.store,
		storeID: f.Name(),
	}, nil
}

func (s *diskStorage) Tier() StorageType { return Disk(s.file.Fd()) }

// Addr returns the backing file descriptor, the only address a Disk
// region has.
func (s *diskStorage) Addr() uintptr { return s.file.Fd() }

func (s *diskStorage) Size() int { return s.size }

func (s *diskStorage) Memset(value byte, offset, length int) error {
	if s.mu == stateReleased {
		return ErrClosed
	}
	if offset < 0 || length < 0 || offset+length > s.size {
		return ErrOperationFailed
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = value
	}
	if _, err := unix.Pwrite(int(s.file.Fd()), buf, int64(offset)); err != nil {
		return fmt.Errorf("%w: pwrite: %s", ErrOperationFailed, err)
	}
	return nil
}

// ReadAt reads length bytes starting at offset via a positioned read,
// used by pkg/view to materialize a Disk-backed view for the Memcpy
// transfer strategy.
func (s *diskStorage) ReadAt(offset, length int) ([]byte, error) {
	if s.mu == stateReleased {
		return nil, ErrClosed
	}
	if offset < 0 || length < 0 || offset+length > s.size {
		return nil, ErrOperationFailed
	}
	buf := make([]byte, length)
	n, err := unix.Pread(int(s.file.Fd()), buf, int64(offset))
	if err != nil {
		return nil, fmt.Errorf("%w: pread: %s", ErrOperationFailed, err)
	}
	return buf[:n], nil
}

// WriteAt writes data starting at offset via a positioned write.
func (s *diskStorage) WriteAt(offset int, data []byte) error {
	if s.mu == stateReleased {
		return ErrClosed
	}
	if offset < 0 || offset+len(data) > s.size {
		return ErrOperationFailed
	}
	if _, err := unix.Pwrite(int(s.file.Fd()), data, int64(offset)); err != nil {
		return fmt.Errorf("%w: pwrite: %s", ErrOperationFailed, err)
	}
	return nil
}

func (s *diskStorage) Register(key string, handle Registration) error {
	if s.mu == stateReleased {
		return ErrClosed
	}
	if err := s.regs.Register(key, handle); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Record(s.storeID, key); err != nil {
			s.regs.Unregister(key)
			return fmt.Errorf("%w: persist registration: %s", ErrOperationFailed, err)
		}
	}
	return nil
}

func (s *diskStorage) IsRegistered(key string) bool { return s.regs.IsRegistered(key) }

func (s *diskStorage) RegistrationHandle(key string) (Registration, bool) {
	return s.regs.Handle(key)
}

func (s *diskStorage) Close() error {
	if s.mu == stateReleased {
		return nil
	}
	if s.store != nil {
		for _, key := range s.regs.Keys() {
			_ = s.store.Forget(s.storeID, key)
		}
	}
	err := s.regs.ReleaseAll()

	name := s.file.Name()
	if cerr := s.file.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: close: %s", ErrOperationFailed, cerr)
	}
	_ = os.Remove(name)

	s.mu = stateReleased
	return err
}

// DiskReaderWriter is implemented by Disk-tier Storage, giving pkg/view and
// pkg/transfer positioned access without a type assertion on the
// unexported diskStorage type.
type DiskReaderWriter interface {
	ReadAt(offset, length int) ([]byte, error)
	WriteAt(offset int, data []byte) error
}

var _ DiskReaderWriter = (*diskStorage)(nil)
