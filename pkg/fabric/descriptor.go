// Package fabric provides the Fabric Descriptor Adaptor (C8): the
// serializable description of a memory region handed to or received from
// a remote transfer agent, and the Agent interface that posts batched
// fabric read/write operations.
//
// A real fabric transport (RDMA, NIXL) exchanges these descriptors
// out-of-band before a transfer begins; this package never performs the
// out-of-band exchange itself, only the encode/decode and the in-process
// loopback agent used when no real transport is configured.
package fabric

import "github.com/nornicdb/blockmover/pkg/storage"

// MemType identifies which local tier a Descriptor's memory lives in, from
// the remote peer's point of view.
type MemType uint8

const (
	MemSystem MemType = iota
	MemPinned
	MemDevice
	MemFile
)

// Descriptor is the wire-exchanged description of one registered memory
// region: enough for a remote peer to target it with an RDMA read or
// write. It carries no pointer that is meaningful outside the process
// that registered it until the remote agent resolves Addr through its own
// transport's memory registration.
type Descriptor struct {
	MemType  MemType
	DeviceID int
	Addr     uintptr
	Size     int
}

// FromStorage builds the Descriptor for a locally registered Storage.
// Storage must be System, Pinned, Device, or Disk tier; Fabric storage is
// already remote and has no local descriptor of its own, so FromStorage
// returns false for it.
//
// Disk maps to MemFile per §4.7, with DeviceID repurposed to carry the
// backing file descriptor rather than a GPU device id -- the same value
// storage.diskStorage.Addr() reports, since a Disk region's only address
// is its fd.
func FromStorage(st storage.Storage) (Descriptor, bool) {
	tier := st.Tier()
	var mt MemType
	deviceID := tier.DeviceID
	switch tier.Kind {
	case storage.KindSystem:
		mt = MemSystem
	case storage.KindPinned:
		mt = MemPinned
	case storage.KindDevice:
		mt = MemDevice
	case storage.KindDisk:
		mt = MemFile
		deviceID = int(tier.FD)
	default:
		return Descriptor{}, false
	}
	return Descriptor{
		MemType:  mt,
		DeviceID: deviceID,
		Addr:     st.Addr(),
		Size:     st.Size(),
	}, true
}
