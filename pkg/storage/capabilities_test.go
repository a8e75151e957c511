package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilitiesOfSystem(t *testing.T) {
	c := CapabilitiesOf(KindSystem)
	assert.True(t, c.Local)
	assert.True(t, c.SystemAccessible)
	assert.True(t, c.FabricRegistrable)
	assert.False(t, c.Remote)
	assert.False(t, c.GpuAccessible)
}

func TestCapabilitiesOfPinned(t *testing.T) {
	c := CapabilitiesOf(KindPinned)
	assert.True(t, c.Local)
	assert.True(t, c.SystemAccessible)
	assert.True(t, c.GpuAccessible)
	assert.True(t, c.FabricRegistrable)
}

func TestCapabilitiesOfDevice(t *testing.T) {
	c := CapabilitiesOf(KindDevice)
	assert.True(t, c.Local)
	assert.False(t, c.SystemAccessible)
	assert.True(t, c.GpuAccessible)
	assert.True(t, c.FabricRegistrable)
}

func TestCapabilitiesOfDisk(t *testing.T) {
	c := CapabilitiesOf(KindDisk)
	assert.True(t, c.Local)
	assert.False(t, c.SystemAccessible)
	assert.False(t, c.GpuAccessible)
	assert.True(t, c.FabricRegistrable)
}

func TestCapabilitiesOfFabric(t *testing.T) {
	c := CapabilitiesOf(KindFabric)
	assert.True(t, c.Remote)
	assert.False(t, c.Local)
	assert.False(t, c.SystemAccessible)
	assert.False(t, c.GpuAccessible)
	assert.False(t, c.FabricRegistrable)
}

func TestCapabilitiesOfUnknownKindIsZeroValue(t *testing.T) {
	c := CapabilitiesOf(Kind(255))
	assert.Equal(t, Capabilities{}, c)
}
