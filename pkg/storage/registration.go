package storage

import (
	"encoding/hex"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// RegistrationTable is a per-storage side-table of named opaque
// registrations (e.g. fabric pins). Insertion is idempotent-by-key: a
// second Register with an already-used key fails. On Storage.Close, every
// handle is released in insertion-independent order before the backing
// memory is freed.
//
// Grounded on original_source/storage/cuda.rs's RegistrationHandles.
type RegistrationTable struct {
	mu      sync.Mutex
	entries map[string]Registration
}

// NewRegistrationTable returns an empty registration table.
func NewRegistrationTable() *RegistrationTable {
	return &RegistrationTable{entries: make(map[string]Registration)}
}

// fingerprint reduces a caller-supplied key to a fixed 32-character hex
// string (the first 16 bytes of its BLAKE2b-256 digest),
// keeping persisted registration keys (see registrationstore.go) bounded in
// size regardless of what the caller passes in.
func fingerprint(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// Register inserts handle under key. Returns ErrAlreadyExists if key is
// already registered.
func (t *RegistrationTable) Register(key string, handle Registration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[key]; exists {
		return ErrAlreadyExists
	}
	t.entries[key] = handle
	return nil
}

// IsRegistered reports whether key is currently registered.
func (t *RegistrationTable) IsRegistered(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, exists := t.entries[key]
	return exists
}

// Handle returns the registration stored under key.
func (t *RegistrationTable) Handle(key string) (Registration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.entries[key]
	return h, ok
}

// Unregister removes key without releasing its handle, for callers that
// must roll back a Register that failed a later step (e.g. persisting the
// registration to a RegistrationStore).
func (t *RegistrationTable) Unregister(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// Keys returns every currently-registered key, in no particular order.
// Used by callers (e.g. diskStorage.Close) that must reconcile a
// persisted ledger against the live table before releasing it.
func (t *RegistrationTable) Keys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.entries))
	for key := range t.entries {
		keys = append(keys, key)
	}
	return keys
}

// ReleaseAll releases every registration in the table, in whatever order
// map iteration happens to produce (the spec does not require an order),
// and empties the table. The first release error is returned after every
// handle has been given a chance to release.
func (t *RegistrationTable) ReleaseAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	for key, handle := range t.entries {
		if err := handle.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(t.entries, key)
	}
	return firstErr
}
