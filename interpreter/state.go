// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
)

type BucketState struct {
	Name       string
	Source     manifest.BucketSource
	CreatedAt  manifest.Location
	ConsumedAt *manifest.Location
	// ProofLocks counts the live proofs created from this bucket.
	ProofLocks uint32
}

type ProofState struct {
	Name       string
	Source     manifest.ProofSource
	CreatedAt  manifest.Location
	ConsumedAt *manifest.Location
}

type AddressReservationState struct {
	Name      string
	Package   ids.ID
	Blueprint string
	// Preallocated is set for reservations declared by the manifest header,
	// and holds the address they are bound to.
	Preallocated *ids.ID
	CreatedAt    manifest.Location
	ConsumedAt   *manifest.Location
}

type NamedAddressState struct {
	Name        string
	Reservation manifest.AddressReservation
	Package     ids.ID
	Blueprint   string
	CreatedAt   manifest.Location
}

type IntentState struct {
	Name      string
	Hash      ids.ID
	CreatedAt manifest.Location
}

// state is the bookkeeping of one interpretation. Records are never removed;
// consumption only sets ConsumedAt.
type state struct {
	buckets      []BucketState
	proofs       []ProofState
	reservations []AddressReservationState
	addresses    []NamedAddressState
	intents      []IntentState
}

func locationPtr(l manifest.Location) *manifest.Location { return &l }
