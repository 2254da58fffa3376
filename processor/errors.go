// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"errors"
	"fmt"
)

var (
	ErrBucketNotFound             = errors.New("bucket not found")
	ErrProofNotFound              = errors.New("proof not found")
	ErrAddressReservationNotFound = errors.New("address reservation not found")
	ErrAddressNotFound            = errors.New("named address not found")
	ErrIntentNotFound             = errors.New("intent not found")
	ErrBlobNotFound               = errors.New("blob not found")
	ErrNotPackageAddress          = errors.New("not a package address")
	ErrNotGlobalAddress           = errors.New("not a global address")
	ErrUnexpectedEffect           = errors.New("unexpected instruction effect")
)

// DecodeContext tells which payload failed to encode or decode.
type DecodeContext uint8

const (
	// DecodeArgs is an invocation argument payload.
	DecodeArgs DecodeContext = iota
	// DecodeCallData is the encoded instruction list.
	DecodeCallData
	// DecodeReturn is the return payload of an invocation.
	DecodeReturn
)

func (c DecodeContext) String() string {
	switch c {
	case DecodeArgs:
		return "args"
	case DecodeCallData:
		return "call data"
	case DecodeReturn:
		return "return"
	default:
		return "unknown"
	}
}

type DecodeError struct {
	Context DecodeContext
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %s", e.Context, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InstructionError locates a failure inside the manifest.
type InstructionError struct {
	Index       int
	Instruction string
	Err         error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d (%s) failed: %s", e.Index, e.Instruction, e.Err)
}

func (e *InstructionError) Unwrap() error { return e.Err }
