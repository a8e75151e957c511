package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// prefixRegistration namespaces registration-ledger keys within the
// Badger DB, following the teacher's single-byte-prefix key convention
// (pkg/storage/badger.go's prefixNode/prefixEdge/...).
const prefixRegistration = byte(0x10)

// RegistrationStore persists registration-table metadata to disk so a
// Disk-tier Storage's fabric pins survive process restart. It records
// only metadata (storage id, key, a timestamp) -- the Registration value
// itself is an in-process handle (e.g. a fabric pin token) and is not
// serializable, so the live RegistrationTable remains the source of truth
// for Release(); the store is a durable ledger of *which* keys were
// registered, used to reconcile on startup.
//
// This is the Disk-tier analogue of the teacher's BadgerEngine.
type RegistrationStore struct {
	db     *badger.DB
	mu     sync.Mutex
	closed bool
}

// RegistrationStoreOptions configures the persisted registration ledger.
type RegistrationStoreOptions struct {
	// DataDir is the directory Badger uses for its files. Required
	// unless InMemory is set.
	DataDir string

	// InMemory runs Badger in memory-only mode, useful for tests.
	InMemory bool

	// SyncWrites forces fsync after each write.
	SyncWrites bool
}

// OpenRegistrationStore opens (creating if absent) a persisted
// registration ledger.
func OpenRegistrationStore(opts RegistrationStoreOptions) (*RegistrationStore, error) {
	bopts := badger.DefaultOptions(opts.DataDir)
	bopts = bopts.WithInMemory(opts.InMemory).WithSyncWrites(opts.SyncWrites).WithLogger(nil)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("storage: open registration store: %w", err)
	}
	return &RegistrationStore{db: db}, nil
}

func registrationKey(storageID, key string) []byte {
	fp := fingerprint(key)
	buf := make([]byte, 0, 1+len(storageID)+1+len(fp))
	buf = append(buf, prefixRegistration)
	buf = append(buf, storageID...)
	buf = append(buf, 0x00)
	buf = append(buf, fp...)
	return buf
}

// Record persists that storageID registered key at the current time.
func (s *RegistrationStore) Record(storageID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	ts, err := time.Now().MarshalBinary()
	if err != nil {
		return fmt.Errorf("storage: marshal registration timestamp: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(registrationKey(storageID, key), ts)
	})
}

// Forget removes a previously recorded registration.
func (s *RegistrationStore) Forget(storageID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(registrationKey(storageID, key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// Contains reports whether storageID has a recorded registration for key.
func (s *RegistrationStore) Contains(storageID, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}

	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(registrationKey(storageID, key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// Close releases the underlying Badger DB. Idempotent.
func (s *RegistrationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
