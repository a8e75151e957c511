package storage

// Capabilities reports the capability set a Kind opts into, letting
// callers (pkg/transfer's executor checks it before dispatch) reason
// about what a tier pairing permits without a type switch over concrete
// Storage implementations. This mirrors the teacher's own marker-trait
// idiom (e.g. CudaAccessible in the CUDA bridge) generalized to the five
// tiers this engine moves bytes between, expressed as a value struct
// rather than marker interfaces since nothing here implements per-type
// behavior beyond the boolean flags themselves.
//
// The Fabric tier is Remote only; every local tier is FabricRegistrable
// (it can be wrapped in a descriptor and offered to a peer) and Local.
type Capabilities struct {
	Local             bool
	Remote            bool
	SystemAccessible  bool
	GpuAccessible     bool
	FabricRegistrable bool
}

// CapabilitiesOf returns the capability set for k.
func CapabilitiesOf(k Kind) Capabilities {
	switch k {
	case KindSystem:
		return Capabilities{Local: true, SystemAccessible: true, FabricRegistrable: true}
	case KindPinned:
		return Capabilities{Local: true, SystemAccessible: true, GpuAccessible: true, FabricRegistrable: true}
	case KindDevice:
		return Capabilities{Local: true, GpuAccessible: true, FabricRegistrable: true}
	case KindDisk:
		return Capabilities{Local: true, FabricRegistrable: true}
	case KindFabric:
		return Capabilities{Remote: true}
	default:
		return Capabilities{}
	}
}
