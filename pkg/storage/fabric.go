package storage

// fabricStorage describes a remote memory region registered by a peer. It
// is never allocated locally -- the only constructor is FromDescriptor,
// taking the handle and remote address a peer has already handed over the
// control plane. Memset, Register, and local Close on Fabric storage are
// meaningless: the region belongs to another process.
type fabricStorage struct {
	handle string
	addr   uintptr
	size   int
}

// FromDescriptor wraps a remote region identified by handle (the wire
// token the fabric control plane used to describe it) and addr (the
// remote-side address token a transport resolves through its own memory
// registration -- never locally dereferenceable outside a loopback
// simulation) as Fabric-tier Storage, so the rest of the engine can
// address it through the same Storage interface as a local tier.
func FromDescriptor(handle string, addr uintptr, size int) Storage {
	return &fabricStorage{handle: handle, addr: addr, size: size}
}

func (s *fabricStorage) Tier() StorageType { return Fabric(s.handle) }

// Addr returns the remote address token this descriptor was built from.
// It is never locally dereferenceable through a real fabric transport;
// only pkg/fabric's LoopbackAgent treats it as a direct address, for
// in-process simulation.
func (s *fabricStorage) Addr() uintptr { return s.addr }

func (s *fabricStorage) Size() int { return s.size }

// Memset is not supported on Fabric storage; there is no local memory to
// fill.
func (s *fabricStorage) Memset(value byte, offset, length int) error {
	return ErrOperationFailed
}

func (s *fabricStorage) Register(key string, handle Registration) error {
	return ErrOperationFailed
}

func (s *fabricStorage) IsRegistered(key string) bool { return false }

func (s *fabricStorage) RegistrationHandle(key string) (Registration, bool) {
	return nil, false
}

// Close is a no-op: Fabric storage never owns local resources.
func (s *fabricStorage) Close() error { return nil }
