package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinnedAllocatorAllocate(t *testing.T) {
	alloc := NewPinnedAllocator()

	s, err := alloc.Allocate(4096)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, KindPinned, s.Tier().Kind)
	assert.Equal(t, 4096, s.Size())
	assert.NotZero(t, s.Addr())

	require.NoError(t, s.Memset(0x11, 0, 4096))
	b := PinnedBytes(s)
	require.Len(t, b, 4096)
	assert.Equal(t, byte(0x11), b[0])
	assert.Equal(t, byte(0x11), b[4095])
}

func TestPinnedAllocatorRejectsNonPositiveSize(t *testing.T) {
	alloc := NewPinnedAllocator()
	_, err := alloc.Allocate(0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDiskAllocatorRoundTrip(t *testing.T) {
	alloc := NewDiskAllocator(t.TempDir())

	s, err := alloc.Allocate(1024)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, KindDisk, s.Tier().Kind)
	assert.Equal(t, 1024, s.Size())

	rw, ok := s.(DiskReaderWriter)
	require.True(t, ok)

	payload := []byte("block data payload")
	require.NoError(t, rw.WriteAt(10, payload))

	got, err := rw.ReadAt(10, len(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDiskStorageMemsetOutOfBounds(t *testing.T) {
	alloc := NewDiskAllocator(t.TempDir())
	s, err := alloc.Allocate(16)
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Memset(0, 10, 10), ErrOperationFailed)
}

func TestFabricStorageIsRemoteOnly(t *testing.T) {
	s := FromDescriptor("peer-handle-1", 0, 2048)

	assert.Equal(t, KindFabric, s.Tier().Kind)
	assert.Equal(t, 2048, s.Size())
	assert.Zero(t, s.Addr())

	assert.ErrorIs(t, s.Memset(0, 0, 1), ErrOperationFailed)
	assert.ErrorIs(t, s.Register("k", &fakeRegistration{}), ErrOperationFailed)
	assert.False(t, s.IsRegistered("k"))

	_, ok := s.RegistrationHandle("k")
	assert.False(t, ok)

	assert.NoError(t, s.Close())
}
