package transfer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRuntimeHandleCorrectsZeroWorkers(t *testing.T) {
	h := NewRuntimeHandle(RuntimeConfig{OffloadEnabled: true, Workers: 0})
	assert.True(t, h.OffloadEnabled())

	var ran int32
	h.Offload(func() { atomic.AddInt32(&ran, 1) })
	assert.EqualValues(t, 1, ran)
}

func TestRuntimeHandleOffloadDisabledReportsFalse(t *testing.T) {
	h := NewRuntimeHandle(DefaultRuntimeConfig())
	assert.False(t, h.OffloadEnabled())
}

func TestRuntimeHandleOffloadBoundsConcurrency(t *testing.T) {
	h := NewRuntimeHandle(RuntimeConfig{OffloadEnabled: true, Workers: 2})

	var inFlight, maxSeen int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Offload(func() {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					cur := atomic.LoadInt32(&maxSeen)
					if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
			})
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, maxSeen, int32(2))
}

func TestRuntimeHandleSpawnRunsOnGoroutine(t *testing.T) {
	h := NewRuntimeHandle(DefaultRuntimeConfig())
	done := make(chan struct{})
	h.Spawn(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Spawn did not run fn")
	}
}
