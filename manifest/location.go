// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package manifest

import "fmt"

// Symbolic handles. Each kind is allocated densely from zero, per manifest.
type (
	Bucket             uint32
	Proof              uint32
	AddressReservation uint32
	NamedAddress       uint32
	NamedIntent        uint32
)

// Location is where a handle was created or consumed.
type Location struct {
	// Preamble is set for handles created before the first instruction
	// (preallocated addresses and child intents).
	Preamble bool
	// WrapUp is set for checks run after the last instruction.
	WrapUp bool
	Index  int
}

var (
	// PreambleLocation is the location of every preamble-created handle.
	PreambleLocation = Location{Preamble: true}
	WrapUpLocation   = Location{WrapUp: true}
)

func InstructionLocation(index int) Location { return Location{Index: index} }

func (l Location) String() string {
	switch {
	case l.Preamble:
		return "preamble"
	case l.WrapUp:
		return "end of manifest"
	}
	return fmt.Sprintf("instruction %d", l.Index)
}

// HandleKind is the kind of manifest-local handle.
type HandleKind uint8

const (
	KindBucket HandleKind = iota
	KindProof
	KindAddressReservation
	KindNamedAddress
	KindIntent
	KindBlob
	KindArgs
)

func (k HandleKind) String() string {
	switch k {
	case KindBucket:
		return "bucket"
	case KindProof:
		return "proof"
	case KindAddressReservation:
		return "address reservation"
	case KindNamedAddress:
		return "named address"
	case KindIntent:
		return "intent"
	case KindBlob:
		return "blob"
	case KindArgs:
		return "args"
	default:
		return "unknown"
	}
}
