package fabric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nornicdb/blockmover/pkg/storage"
)

func TestFromStorageMapsLocalTiers(t *testing.T) {
	sys, err := storage.NewSystemAllocator().Allocate(64)
	require.NoError(t, err)
	defer sys.Close()

	d, ok := FromStorage(sys)
	require.True(t, ok)
	assert.Equal(t, MemSystem, d.MemType)
	assert.Equal(t, 64, d.Size)
	assert.Equal(t, sys.Addr(), d.Addr)
}

func TestFromStorageMapsDiskToFile(t *testing.T) {
	disk, err := storage.NewDiskAllocator(t.TempDir()).Allocate(16)
	require.NoError(t, err)
	defer disk.Close()

	d, ok := FromStorage(disk)
	require.True(t, ok)
	assert.Equal(t, MemFile, d.MemType)
	assert.Equal(t, 16, d.Size)
	assert.Equal(t, disk.Addr(), d.Addr)
	assert.Equal(t, int(disk.Addr()), d.DeviceID)
}

func TestFromStorageRejectsFabric(t *testing.T) {
	remote := storage.FromDescriptor("peer-1", 0x9000, 16)
	_, ok := FromStorage(remote)
	assert.False(t, ok)
}

func TestLoopbackAgentPostCopiesBytes(t *testing.T) {
	agent := NewLoopbackAgent()

	src := []byte("hello fabric transfer")
	dst := make([]byte, len(src))

	srcAddr := uintptr(0x1000)
	dstAddr := uintptr(0x2000)
	agent.Register(srcAddr, src)
	agent.Register(dstAddr, dst)

	srcDesc := Descriptor{MemType: MemSystem, Addr: srcAddr, Size: len(src)}
	dstDesc := Descriptor{MemType: MemSystem, Addr: dstAddr, Size: len(dst)}

	srcBuf := EncodeBatch([]Descriptor{srcDesc})
	dstBuf := EncodeBatch([]Descriptor{dstDesc})
	fut, err := agent.Post(OpWrite, srcBuf, 1, dstBuf, 1)
	require.NoError(t, err)
	require.NoError(t, fut.Wait())

	assert.Equal(t, src, dst)
}

func TestLoopbackAgentPostRejectsUnregisteredAddr(t *testing.T) {
	agent := NewLoopbackAgent()

	srcBuf := EncodeBatch([]Descriptor{{Addr: 0x1}})
	dstBuf := EncodeBatch([]Descriptor{{Addr: 0x2}})
	_, err := agent.Post(OpRead, srcBuf, 1, dstBuf, 1)
	assert.Error(t, err)
}

func TestLoopbackAgentPostRejectsMismatchedCounts(t *testing.T) {
	agent := NewLoopbackAgent()
	srcBuf := EncodeBatch([]Descriptor{{}})
	dstBuf := EncodeBatch([]Descriptor{{}, {}})
	_, err := agent.Post(OpRead, srcBuf, 1, dstBuf, 2)
	assert.Error(t, err)
}

func TestWireEncodeDecodeRoundTrip(t *testing.T) {
	descriptors := []Descriptor{
		{MemType: MemSystem, DeviceID: 0, Addr: 0x1000, Size: 4096},
		{MemType: MemPinned, DeviceID: 0, Addr: 0x2000, Size: 8192},
		{MemType: MemDevice, DeviceID: 3, Addr: 0x7f0000000000, Size: 1024},
	}

	buf := EncodeBatch(descriptors)
	require.NotEmpty(t, buf)

	decoded := DecodeBatch(buf, len(descriptors))
	require.Len(t, decoded, len(descriptors))
	assert.Equal(t, descriptors, decoded)
}

func TestWireEncodeDecodeEmptyBatch(t *testing.T) {
	buf := EncodeBatch(nil)
	decoded := DecodeBatch(buf, 0)
	assert.Empty(t, decoded)
}
