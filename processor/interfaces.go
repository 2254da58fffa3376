// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

// ObjectKind classifies an owned node. The system API resolves it once, so
// the processor never inspects blueprint identifiers itself.
type ObjectKind uint8

const (
	ObjectOther ObjectKind = iota
	ObjectFungibleBucket
	ObjectNonFungibleBucket
	ObjectFungibleProof
	ObjectNonFungibleProof
)

func (k ObjectKind) IsBucket() bool {
	return k == ObjectFungibleBucket || k == ObjectNonFungibleBucket
}

func (k ObjectKind) IsProof() bool {
	return k == ObjectFungibleProof || k == ObjectNonFungibleProof
}

func (k ObjectKind) String() string {
	switch k {
	case ObjectFungibleBucket:
		return "FungibleBucket"
	case ObjectNonFungibleBucket:
		return "NonFungibleBucket"
	case ObjectFungibleProof:
		return "FungibleProof"
	case ObjectNonFungibleProof:
		return "NonFungibleProof"
	default:
		return "Other"
	}
}

// Worktop holds the buckets of a transaction that are not bound to a manifest
// bucket. Every method taking or returning an ids.ID refers to a bucket node.
type Worktop interface {
	TakeAll(resource ids.ID) (ids.ID, error)
	Take(resource ids.ID, amount types.Decimal) (ids.ID, error)
	TakeNonFungibles(resource ids.ID, localIDs []types.NonFungibleLocalID) (ids.ID, error)
	Put(bucket ids.ID) error

	AssertContains(resource ids.ID) error
	AssertContainsAmount(resource ids.ID, amount types.Decimal) error
	AssertContainsNonFungibles(resource ids.ID, localIDs []types.NonFungibleLocalID) error

	// Drain removes every bucket from the worktop.
	Drain() ([]ids.ID, error)
	// Drop destroys the worktop. It fails unless the worktop is empty.
	Drop() error
}

// AuthZone holds the proofs that authorize the invocations of a transaction.
type AuthZone interface {
	Push(proof ids.ID) error
	Pop() (ids.ID, error)

	CreateProofOfAmount(resource ids.ID, amount types.Decimal) (ids.ID, error)
	CreateProofOfNonFungibles(resource ids.ID, localIDs []types.NonFungibleLocalID) (ids.ID, error)
	CreateProofOfAll(resource ids.ID) (ids.ID, error)

	// Clear drops every proof, including signature proofs.
	Clear() error
	ClearSignatureProofs() error
	ClearRegularProofs() error
	// Drain removes every pushed proof from the auth zone.
	Drain() ([]ids.ID, error)
}

// SystemAPI is the execution engine driven by the processor.
type SystemAPI interface {
	// NewWorktop creates the empty worktop of a run.
	NewWorktop() (Worktop, error)
	AuthZone() AuthZone

	CallFunction(pkg ids.ID, blueprint string, function string, args []byte) ([]byte, error)
	CallMethod(receiver ids.ID, module manifest.ModuleID, method string, args []byte) ([]byte, error)
	// CallDirectMethod calls a method on an internal node, bypassing the
	// normal global addressing.
	CallDirectMethod(receiver ids.ID, method string, args []byte) ([]byte, error)

	BucketResource(bucket ids.ID) (ids.ID, error)
	CreateProofFromBucketOfAmount(bucket ids.ID, amount types.Decimal) (ids.ID, error)
	CreateProofFromBucketOfNonFungibles(bucket ids.ID, localIDs []types.NonFungibleLocalID) (ids.ID, error)
	CreateProofFromBucketOfAll(bucket ids.ID) (ids.ID, error)
	CloneProof(proof ids.ID) (ids.ID, error)
	DropProof(proof ids.ID) error

	// AllocateGlobalAddress returns a reservation node and the address it
	// reserves.
	AllocateGlobalAddress(blueprint types.BlueprintID) (ids.ID, ids.ID, error)

	ObjectKind(node ids.ID) (ObjectKind, error)
}

// GlobalAddressReservation is a reservation created before the run, for a
// preallocated address.
type GlobalAddressReservation struct {
	Reservation ids.ID
	Address     ids.ID
}

// HandleTracer observes the handle tables of a run.
type HandleTracer interface {
	OnCreate(kind manifest.HandleKind, id uint32, location manifest.Location)
	OnConsume(kind manifest.HandleKind, id uint32, location manifest.Location)
}

type noopTracer struct{}

func (noopTracer) OnCreate(manifest.HandleKind, uint32, manifest.Location)  {}
func (noopTracer) OnConsume(manifest.HandleKind, uint32, manifest.Location) {}
