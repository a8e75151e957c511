package storage

import (
	"fmt"

	"github.com/nornicdb/blockmover/pkg/gpu"
)

// deviceOwnership distinguishes memory this package allocated (and must
// free on Close) from memory adopted from a foreign owner, e.g. a tensor
// framework's existing device buffer. Close skips the deallocator for
// adopted memory entirely; the foreign owner remains responsible for it.
type deviceOwnership uint8

const (
	ownedDevice deviceOwnership = iota
	adoptedDevice
)

// ForeignTensor describes device memory owned by something outside this
// package (a tensor framework) that is being registered into the block
// storage system without a copy. Adopting a ForeignTensor never mints new
// device memory; it only lets the rest of the engine address bytes the
// caller already allocated.
type ForeignTensor struct {
	DeviceID  int
	DataPtr   uintptr
	SizeBytes int
}

// deviceStorage is GPU-resident memory, either allocated by this package
// from a device context's arena or adopted from a ForeignTensor.
type deviceStorage struct {
	mu        state
	ownership deviceOwnership
	deviceID  int
	addr      uintptr
	size      int
	regs      *RegistrationTable
}

// DeviceAllocator allocates device-resident memory on a fixed GPU device.
type DeviceAllocator struct {
	deviceID int
}

// NewDeviceAllocator returns an Allocator for the Device tier bound to
// deviceID, initializing that device's context on first use.
func NewDeviceAllocator(deviceID int) *DeviceAllocator {
	return &DeviceAllocator{deviceID: deviceID}
}

func (a *DeviceAllocator) Allocate(size int) (Storage, error) {
	if size <= 0 {
		return nil, ErrInvalidConfig
	}

	ctx, err := gpu.GetOrCreate(a.deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCuda, err)
	}

	addr, err := ctx.Alloc(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCuda, err)
	}

	return &deviceStorage{
		ownership: ownedDevice,
		deviceID:  a.deviceID,
		addr:      addr,
		size:      size,
		regs:      NewRegistrationTable(),
	}, nil
}

// AdoptForeignTensor wraps an already-allocated device buffer as Device
// storage without copying or taking ownership. Close on the returned
// Storage releases registrations only; the backing memory outlives it.
//
// Fails with ErrInvalidConfig if the tensor's device context has not been
// initialized yet -- adoption requires an existing context, unlike
// Allocate, which creates one on demand.
func AdoptForeignTensor(t ForeignTensor) (Storage, error) {
	if t.SizeBytes <= 0 {
		return nil, ErrInvalidConfig
	}
	ctx, ok := gpu.Get(t.DeviceID)
	if !ok {
		return nil, fmt.Errorf("%w: device %d has no initialized context", ErrInvalidConfig, t.DeviceID)
	}
	ctx.Adopt(t.DataPtr, ctx.Lookup(t.DataPtr))

	return &deviceStorage{
		ownership: adoptedDevice,
		deviceID:  t.DeviceID,
		addr:      t.DataPtr,
		size:      t.SizeBytes,
		regs:      NewRegistrationTable(),
	}, nil
}

func (s *deviceStorage) Tier() StorageType { return Device(s.deviceID) }

func (s *deviceStorage) Addr() uintptr { return s.addr }

func (s *deviceStorage) Size() int { return s.size }

func (s *deviceStorage) Memset(value byte, offset, length int) error {
	if s.mu == stateReleased {
		return ErrClosed
	}
	if offset < 0 || length < 0 || offset+length > s.size {
		return ErrOperationFailed
	}
	ctx, ok := gpu.Get(s.deviceID)
	if !ok {
		return ErrOperationFailed
	}
	region := ctx.Lookup(s.addr)
	if region == nil || offset+length > len(region) {
		return ErrOperationFailed
	}
	for i := offset; i < offset+length; i++ {
		region[i] = value
	}
	return nil
}

func (s *deviceStorage) Register(key string, handle Registration) error {
	if s.mu == stateReleased {
		return ErrClosed
	}
	return s.regs.Register(key, handle)
}

func (s *deviceStorage) IsRegistered(key string) bool { return s.regs.IsRegistered(key) }

func (s *deviceStorage) RegistrationHandle(key string) (Registration, bool) {
	return s.regs.Handle(key)
}

func (s *deviceStorage) Close() error {
	if s.mu == stateReleased {
		return nil
	}
	err := s.regs.ReleaseAll()

	if s.ownership == ownedDevice {
		if ctx, ok := gpu.Get(s.deviceID); ok {
			ctx.Free(s.addr)
		}
	}

	s.mu = stateReleased
	return err
}

// IsAdopted reports whether this Device storage wraps a ForeignTensor
// rather than memory this package allocated.
func (s *deviceStorage) IsAdopted() bool { return s.ownership == adoptedDevice }
