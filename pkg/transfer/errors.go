package transfer

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by BlockError at the Memcpy dispatch layer.
var (
	ErrSizeMismatch    = errors.New("transfer: source and destination sizes differ")
	ErrUnsupportedTier = errors.New("transfer: tier exposes neither Bytes nor ReadAt/WriteAt")
)

// BlockTarget distinguishes which side of a transfer a mismatch error
// refers to.
type BlockTarget uint8

const (
	Source BlockTarget = iota
	Destination
)

func (t BlockTarget) String() string {
	if t == Source {
		return "source"
	}
	return "destination"
}

// TransferError is the taxonomy of failures the executor can return,
// grounded 1:1 on block/transfer.rs's TransferError enum.
type TransferError struct {
	kind string
	msg  string
}

func (e *TransferError) Error() string { return e.msg }

// Kind reports the taxonomy tag, for callers that branch on error class
// rather than matching error strings.
func (e *TransferError) Kind() string { return e.kind }

func newTransferError(kind, format string, args ...any) *TransferError {
	return &TransferError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// BuilderError reports a misconfigured TransferContext or executor call.
func BuilderError(reason string) *TransferError {
	return newTransferError("BuilderError", "transfer: builder configuration error: %s", reason)
}

// CountMismatch reports that sources and targets had different lengths.
func CountMismatch(n, m int) *TransferError {
	return newTransferError("CountMismatch", "transfer: mismatched source/destination counts: %d sources, %d destinations", n, m)
}

// NoBlocksProvided reports an empty batch.
func NoBlocksProvided() *TransferError {
	return newTransferError("NoBlocksProvided", "transfer: no blocks provided")
}

// MismatchedBlockSetIndex reports that a source/target pair belongs to
// different block sets.
func MismatchedBlockSetIndex(target BlockTarget, want, got int) *TransferError {
	return newTransferError("MismatchedBlockSetIndex", "transfer: mismatched %s block set index: %d != %d", target, want, got)
}

// MismatchedWorkerID reports that a source/target pair belongs to
// different workers.
func MismatchedWorkerID(target BlockTarget, want, got int) *TransferError {
	return newTransferError("MismatchedWorkerID", "transfer: mismatched %s worker ID: %d != %d", target, want, got)
}

// IncompatibleTypes reports a resolved strategy of Invalid.
func IncompatibleTypes(reason string) *TransferError {
	return newTransferError("IncompatibleTypes", "transfer: incompatible block types provided: %s", reason)
}

// BlockError wraps a failure from an individual block-level operation.
func BlockError(err error) *TransferError {
	return newTransferError("BlockError", "transfer: block operation failed: %s", err)
}

// ExecutionError reports that a per-block enqueue failed mid-batch.
func ExecutionError(err error) *TransferError {
	return newTransferError("ExecutionError", "transfer: execution failed: %s", err)
}

// OffloadError reports a failure in the opt-in worker-pool offload path.
func OffloadError(err error) *TransferError {
	return newTransferError("OffloadError", "transfer: offload failed: %s", err)
}

// Cuda wraps a driver-level failure.
func Cuda(err error) *TransferError {
	return newTransferError("Cuda", "transfer: cuda driver error: %s", err)
}

// InvalidConfig reports an invalid TransferContext or StreamPoolConfig.
func InvalidConfig(reason string) *TransferError {
	return newTransferError("InvalidConfig", "transfer: invalid configuration: %s", reason)
}

// Other wraps any failure that does not fit the above taxonomy.
func Other(err error) *TransferError {
	return newTransferError("Other", "transfer: %s", err)
}
