package view

import (
	"github.com/nornicdb/blockmover/pkg/fabric"
	"github.com/nornicdb/blockmover/pkg/storage"
)

// AsFabricDescriptor builds the fabric.Descriptor for this view's backing
// storage, scaled to the view's own offset and length rather than the
// whole storage region -- letting the executor register a single layer
// for remote transfer without re-registering its parent block.
//
// A view over Fabric-tier storage (the remote side of a FabricRead/Write,
// built via storage.FromDescriptor) has no local MemType to report since
// it was never allocated by a local Allocator; its descriptor carries only
// the remote address token and size the peer already advertised.
func AsFabricDescriptor[K Kind](v MemoryView[K]) (fabric.Descriptor, bool) {
	if v.tierType.Kind == storage.KindFabric {
		return fabric.Descriptor{Addr: v.Addr(), Size: v.length}, true
	}
	d, ok := fabric.FromStorage(v.backing)
	if !ok {
		return fabric.Descriptor{}, false
	}
	d.Addr = v.Addr()
	d.Size = v.length
	return d, true
}
