package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nornicdb/blockmover/pkg/storage"
)

func TestResolveLocalMatrix(t *testing.T) {
	tests := []struct {
		name     string
		src, dst storage.Kind
		want     TransferStrategy
	}{
		{"system->system", storage.KindSystem, storage.KindSystem, Memcpy},
		{"system->pinned", storage.KindSystem, storage.KindPinned, Memcpy},
		{"system->device", storage.KindSystem, storage.KindDevice, CudaBlockingH2D},
		{"pinned->system", storage.KindPinned, storage.KindSystem, Memcpy},
		{"pinned->pinned", storage.KindPinned, storage.KindPinned, Memcpy},
		{"pinned->device", storage.KindPinned, storage.KindDevice, CudaAsyncH2D},
		{"device->system", storage.KindDevice, storage.KindSystem, CudaBlockingD2H},
		{"device->pinned", storage.KindDevice, storage.KindPinned, CudaAsyncD2H},
		{"device->device", storage.KindDevice, storage.KindDevice, CudaAsyncD2D},

		// Disk folds onto System's row/column.
		{"disk->system", storage.KindDisk, storage.KindSystem, Memcpy},
		{"system->disk", storage.KindSystem, storage.KindDisk, Memcpy},
		{"disk->disk", storage.KindDisk, storage.KindDisk, Memcpy},
		{"disk->device", storage.KindDisk, storage.KindDevice, CudaBlockingH2D},
		{"device->disk", storage.KindDevice, storage.KindDisk, CudaBlockingD2H},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.src, tt.dst))
		})
	}
}

func TestResolveFabric(t *testing.T) {
	tests := []struct {
		name     string
		src, dst storage.Kind
		want     TransferStrategy
	}{
		{"system->fabric", storage.KindSystem, storage.KindFabric, FabricWrite},
		{"device->fabric", storage.KindDevice, storage.KindFabric, FabricWrite},
		{"fabric->system", storage.KindFabric, storage.KindSystem, FabricRead},
		{"fabric->device", storage.KindFabric, storage.KindDevice, FabricRead},
		{"fabric->fabric", storage.KindFabric, storage.KindFabric, Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.src, tt.dst))
		})
	}
}

func TestResolveCudaTransferMode(t *testing.T) {
	assert.Equal(t, ModeDefault, ResolveCudaTransferMode(CudaAsyncH2D, true))
	assert.Equal(t, ModeCustom, ResolveCudaTransferMode(CudaAsyncH2D, false))
	assert.Equal(t, ModeDefault, ResolveCudaTransferMode(CudaAsyncD2H, true))
	assert.Equal(t, ModeCustom, ResolveCudaTransferMode(CudaAsyncD2H, false))
}

func TestResolveCudaTransferModePanicsOnWrongStrategy(t *testing.T) {
	assert.Panics(t, func() {
		ResolveCudaTransferMode(CudaAsyncD2D, true)
	})
	assert.Panics(t, func() {
		ResolveCudaTransferMode(Memcpy, true)
	})
}

func TestTransferStrategyString(t *testing.T) {
	assert.Equal(t, "Memcpy", Memcpy.String())
	assert.Equal(t, "Fabric(Read)", FabricRead.String())
	assert.Equal(t, "Invalid", Invalid.String())
}
