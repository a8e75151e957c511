package fabric

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// EncodeBatch serializes a descriptor batch into the flatbuffer wire
// format a real fabric transport would send alongside (or in place of)
// its own control-plane message, matching §4.6.4's description of a
// batched transfer posted to the fabric agent. Agent.Post takes the
// encoded buffers directly (not []Descriptor), so every Fabric-strategy
// dispatch encodes its source and destination batches before posting and
// LoopbackAgent decodes them back on the other side of the interface --
// the wire-format path is exercised on every real call, not only in
// tests.
//
// Layout: a vector of fixed-width records, one per descriptor, in the
// order given: [memType:uint8][deviceID:int32][addr:uint64][size:uint64].
func EncodeBatch(descriptors []Descriptor) []byte {
	b := flatbuffers.NewBuilder(64 + 24*len(descriptors))

	b.StartVector(24, len(descriptors), 8)
	for i := len(descriptors) - 1; i >= 0; i-- {
		d := descriptors[i]
		b.Prep(8, 24)
		b.PrependUint64(uint64(d.Size))
		b.PrependUint64(uint64(d.Addr))
		b.PrependInt32(int32(d.DeviceID))
		b.Pad(3)
		b.PrependByte(byte(d.MemType))
	}
	vec := b.EndVector(len(descriptors))

	b.Finish(vec)
	return b.FinishedBytes()
}

// DecodeBatch reverses EncodeBatch, reading count fixed-width records
// starting at the buffer's root vector.
func DecodeBatch(buf []byte, count int) []Descriptor {
	rcv := flatbuffers.GetUOffsetT(buf)
	tab := &flatbuffers.Table{Bytes: buf, Pos: rcv}
	// Skip the vector's uint32 length prefix to reach the first record.
	vecStart := flatbuffers.UOffsetT(tab.Pos) + flatbuffers.UOffsetT(flatbuffers.SizeUOffsetT)

	descriptors := make([]Descriptor, 0, count)
	for i := 0; i < count; i++ {
		elemPos := vecStart + flatbuffers.UOffsetT(i*24)
		memType := buf[elemPos]
		deviceID := flatbuffers.GetInt32(buf[elemPos+4:])
		addr := flatbuffers.GetUint64(buf[elemPos+8:])
		size := flatbuffers.GetUint64(buf[elemPos+16:])
		descriptors = append(descriptors, Descriptor{
			MemType:  MemType(memType),
			DeviceID: int(deviceID),
			Addr:     uintptr(addr),
			Size:     int(size),
		})
	}
	return descriptors
}
