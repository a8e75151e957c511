package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nornicdb/blockmover/pkg/storage"
)

func TestNewRejectsOutOfBounds(t *testing.T) {
	s, err := storage.NewSystemAllocator().Allocate(64)
	require.NoError(t, err)
	defer s.Close()

	_, err = New[BlockKind](s, 0, 128)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = New[BlockKind](s, 32, 64)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestSystemViewBytesIsScopedToOffset(t *testing.T) {
	s, err := storage.NewSystemAllocator().Allocate(64)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Memset(0xAA, 0, 32))
	require.NoError(t, s.Memset(0xBB, 32, 32))

	v, err := New[BlockKind](s, 32, 16)
	require.NoError(t, err)

	b := v.Bytes()
	require.Len(t, b, 16)
	for _, x := range b {
		assert.Equal(t, byte(0xBB), x)
	}
	assert.Equal(t, s.Addr()+32, v.Addr())
}

func TestDiskViewBytesIsNilAndAddrIsFD(t *testing.T) {
	s, err := storage.NewDiskAllocator(t.TempDir()).Allocate(64)
	require.NoError(t, err)
	defer s.Close()

	v, err := New[BlockKind](s, 10, 20)
	require.NoError(t, err)

	assert.Nil(t, v.Bytes())
	assert.Equal(t, s.Addr(), v.Addr(), "disk views keep the fd unchanged, not offset by the byte offset")
}

func TestBlockAndLayerViewsAreDistinctTypes(t *testing.T) {
	s, err := storage.NewSystemAllocator().Allocate(64)
	require.NoError(t, err)
	defer s.Close()

	block, err := New[BlockKind](s, 0, 64)
	require.NoError(t, err)
	layer, err := New[LayerKind](s, 0, 32)
	require.NoError(t, err)

	assert.Equal(t, 64, block.Size())
	assert.Equal(t, 32, layer.Size())
}

func TestNewMutWrapsMemoryView(t *testing.T) {
	s, err := storage.NewSystemAllocator().Allocate(16)
	require.NoError(t, err)
	defer s.Close()

	v, err := NewMut[BlockKind](s, 0, 16)
	require.NoError(t, err)
	assert.Equal(t, 16, v.Size())
}
