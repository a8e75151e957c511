package transfer

import (
	"github.com/nornicdb/blockmover/pkg/view"
)

// copyBytes performs the Memcpy strategy's single source/destination
// copy. When both views expose Bytes() (System or Pinned tier) the slices
// are copied directly; when either side does not (Disk tier, which Resolve
// also maps to Memcpy), the pair is handed to copyDisk.
func copyBytes[K view.Kind](src, dst view.MemoryView[K]) error {
	srcBytes := src.Bytes()
	dstBytes := dst.Bytes()
	if srcBytes == nil || dstBytes == nil {
		return copyDisk(src, dst)
	}
	if len(srcBytes) != len(dstBytes) {
		return BlockError(ErrSizeMismatch)
	}
	copy(dstBytes, srcBytes)
	return nil
}

// copyDisk handles any pairing where one or both sides are Disk-tier,
// going through the tier's positioned ReadAt/WriteAt rather than a
// pointer-addressable byte slice.
func copyDisk[K view.Kind](src, dst view.MemoryView[K]) error {
	var buf []byte

	if r, ok := src.Storage().(interface {
		ReadAt(offset, length int) ([]byte, error)
	}); ok {
		b, err := r.ReadAt(src.Offset(), src.Size())
		if err != nil {
			return BlockError(err)
		}
		buf = b
	} else if b := src.Bytes(); b != nil {
		buf = b
	} else {
		return BlockError(ErrUnsupportedTier)
	}

	if w, ok := dst.Storage().(interface {
		WriteAt(offset int, data []byte) error
	}); ok {
		if err := w.WriteAt(dst.Offset(), buf); err != nil {
			return BlockError(err)
		}
		return nil
	}
	if b := dst.Bytes(); b != nil {
		if len(b) != len(buf) {
			return BlockError(ErrSizeMismatch)
		}
		copy(b, buf)
		return nil
	}
	return BlockError(ErrUnsupportedTier)
}
