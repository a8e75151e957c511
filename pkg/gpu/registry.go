// Package gpu provides the process-wide GPU context registry (C2) and the
// per-context simulated device arena / stream pool used by the storage and
// transfer packages.
//
// Exactly one registry exists per process. It is lazily initialized on
// first GetOrCreate and lives for the lifetime of the process; contexts
// are released in arbitrary order at process teardown.
//
// Grounded on original_source/storage/cuda.rs's Cuda singleton
// (OnceLock<Mutex<Cuda>>) and the teacher's own sync.Once-guarded global
// (pkg/cache.GlobalQueryCache).
package gpu

import (
	"fmt"
	"sync"
)

// Registry is the process-wide device-id -> *Context map. Use the package
// level functions Get/GetOrCreate rather than constructing a Registry
// directly; they operate on the single process-wide instance.
type Registry struct {
	mu       sync.Mutex
	contexts map[int]*Context
}

var (
	instance     *Registry
	instanceOnce sync.Once
)

func registry() *Registry {
	instanceOnce.Do(func() {
		instance = &Registry{contexts: make(map[int]*Context)}
	})
	return instance
}

// Get returns the existing context for deviceID, or (nil, false) if none
// has been created yet. It never creates a context.
func Get(deviceID int) (*Context, bool) {
	r := registry()
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, ok := r.contexts[deviceID]
	return ctx, ok
}

// GetOrCreate returns the existing context for deviceID, creating one if
// absent. Creation is idempotent per device id: concurrent callers racing
// on the same uninitialized id observe exactly one created context.
func GetOrCreate(deviceID int) (*Context, error) {
	r := registry()
	r.mu.Lock()
	defer r.mu.Unlock()

	if ctx, ok := r.contexts[deviceID]; ok {
		return ctx, nil
	}

	ctx, err := newContext(deviceID)
	if err != nil {
		return nil, fmt.Errorf("gpu: initialize device %d: %w", deviceID, err)
	}
	r.contexts[deviceID] = ctx
	return ctx, nil
}

// IsInitialized reports whether a context already exists for deviceID.
func IsInitialized(deviceID int) bool {
	_, ok := Get(deviceID)
	return ok
}

// reset tears down the registry. Only used by tests, which need a clean
// process-wide slate between cases that exercise distinct device ids.
func reset() {
	r := registry()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts = make(map[int]*Context)
}

// Reset tears down every registered context. Exported for tests in other
// packages that need isolation between cases.
func Reset() { reset() }
