// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package manifest

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/types"
)

// Effect is the declarative classification of what an instruction does to
// the handle tables, the worktop and the auth zone. Both the static
// interpreter and the runtime processor dispatch on it.
type Effect interface {
	isEffect()
}

type (
	CreateBucketEffect struct {
		Source BucketSource
	}
	CreateProofEffect struct {
		Source ProofSource
	}
	ConsumeBucketEffect struct {
		Bucket      Bucket
		Destination BucketDestination
	}
	ConsumeProofEffect struct {
		Proof       Proof
		Destination ProofDestination
	}
	CloneProofEffect struct {
		Proof Proof
	}
	DropManyProofsEffect struct {
		DropAllNamedProofs                bool
		DropAllAuthZoneSignatureProofs    bool
		DropAllAuthZoneNonSignatureProofs bool
	}
	InvocationEffect struct {
		Kind Invocation
		Args Value
	}
	CreateAddressAndReservationEffect struct {
		Package   ids.ID
		Blueprint string
	}
	WorktopAssertionEffect struct {
		Assertion WorktopAssertion
	}
)

func (CreateBucketEffect) isEffect()                {}
func (CreateProofEffect) isEffect()                 {}
func (ConsumeBucketEffect) isEffect()               {}
func (ConsumeProofEffect) isEffect()                {}
func (CloneProofEffect) isEffect()                  {}
func (DropManyProofsEffect) isEffect()              {}
func (InvocationEffect) isEffect()                  {}
func (CreateAddressAndReservationEffect) isEffect() {}
func (WorktopAssertionEffect) isEffect()            {}

// AmountKind selects which part of a container an instruction refers to.
type AmountKind uint8

const (
	// AmountUnknown is used when the amount is only known at runtime, as for
	// proofs popped from the auth zone.
	AmountUnknown AmountKind = iota
	AmountFungible
	AmountNonFungibles
	AmountAll
)

func (k AmountKind) String() string {
	switch k {
	case AmountFungible:
		return "fungible"
	case AmountNonFungibles:
		return "nonFungibles"
	case AmountAll:
		return "all"
	default:
		return "unknown"
	}
}

func (k AmountKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ResourceAmount describes an amount of one resource.
type ResourceAmount struct {
	Kind     AmountKind                 `json:"kind"`
	Resource ids.ID                     `json:"resource"`
	Amount   types.Decimal              `json:"amount"`
	IDs      []types.NonFungibleLocalID `json:"ids,omitempty"`
}

func (a ResourceAmount) String() string {
	switch a.Kind {
	case AmountFungible:
		return fmt.Sprintf("%s of %s", a.Amount, a.Resource)
	case AmountNonFungibles:
		return fmt.Sprintf("%v of %s", a.IDs, a.Resource)
	case AmountAll:
		return fmt.Sprintf("all of %s", a.Resource)
	default:
		return "unknown amount"
	}
}

// BucketSource is where a new bucket comes from. Buckets in a manifest are
// only ever taken from the worktop.
type BucketSource struct {
	Amount ResourceAmount
}

type ProofSourceKind uint8

const (
	ProofFromAuthZonePop ProofSourceKind = iota
	ProofFromAuthZone
	ProofFromBucket
)

type ProofSource struct {
	Kind ProofSourceKind
	// Bucket is set when Kind is ProofFromBucket.
	Bucket Bucket
	Amount ResourceAmount
}

type BucketDestination uint8

const (
	BucketToWorktop BucketDestination = iota
	BucketBurned
	BucketToInvocation
)

func (d BucketDestination) String() string {
	switch d {
	case BucketToWorktop:
		return "worktop"
	case BucketBurned:
		return "burned"
	case BucketToInvocation:
		return "invocation"
	default:
		return "unknown"
	}
}

type ProofDestination uint8

const (
	ProofToAuthZone ProofDestination = iota
	ProofDropped
	ProofToInvocation
)

func (d ProofDestination) String() string {
	switch d {
	case ProofToAuthZone:
		return "auth zone"
	case ProofDropped:
		return "drop"
	case ProofToInvocation:
		return "invocation"
	default:
		return "unknown"
	}
}

type AssertionKind uint8

const (
	AssertContainsAny AssertionKind = iota
	AssertContainsAmount
	AssertContainsNonFungibles
)

func (k AssertionKind) String() string {
	switch k {
	case AssertContainsAny:
		return "containsAny"
	case AssertContainsAmount:
		return "containsAmount"
	case AssertContainsNonFungibles:
		return "containsNonFungibles"
	default:
		return "unknown"
	}
}

func (k AssertionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

type WorktopAssertion struct {
	Kind     AssertionKind              `json:"kind"`
	Resource ids.ID                     `json:"resource"`
	Amount   types.Decimal              `json:"amount"`
	IDs      []types.NonFungibleLocalID `json:"ids,omitempty"`
}
