// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
)

var (
	_ Visitor = NoopVisitor{}
	_ Visitor = Visitors(nil)
)

// Visitor observes an interpretation. Any non-nil error stops the
// interpretation and is returned unchanged by InterpretOrErr.
type Visitor interface {
	OnStartInstruction(StartInstructionEvent) error
	OnEndInstruction(EndInstructionEvent) error
	OnNewBucket(NewBucketEvent) error
	OnConsumeBucket(ConsumeBucketEvent) error
	OnNewProof(NewProofEvent) error
	OnConsumeProof(ConsumeProofEvent) error
	OnProofReference(ProofReferenceEvent) error
	OnNewAddressReservation(NewAddressReservationEvent) error
	OnConsumeAddressReservation(ConsumeAddressReservationEvent) error
	OnNewNamedAddress(NewNamedAddressEvent) error
	OnNamedAddressReference(NamedAddressReferenceEvent) error
	OnNewIntent(NewIntentEvent) error
	OnIntentReference(IntentReferenceEvent) error
	OnInvocation(InvocationEvent) error
	OnPassExpression(PassExpressionEvent) error
	OnPassBlob(PassBlobEvent) error
	OnWorktopAssertion(WorktopAssertionEvent) error
	OnDropAuthZoneProofs(DropAuthZoneProofsEvent) error
	OnFinish(FinishEvent) error
}

type (
	StartInstructionEvent struct {
		Index       int
		Instruction manifest.Instruction
		Effect      manifest.Effect
	}
	EndInstructionEvent struct {
		Index       int
		Instruction manifest.Instruction
		Effect      manifest.Effect
	}
	NewBucketEvent struct {
		Bucket manifest.Bucket
		State  BucketState
	}
	ConsumeBucketEvent struct {
		Bucket      manifest.Bucket
		State       BucketState
		Destination manifest.BucketDestination
	}
	NewProofEvent struct {
		Proof manifest.Proof
		State ProofState
	}
	ConsumeProofEvent struct {
		Proof       manifest.Proof
		State       ProofState
		Destination manifest.ProofDestination
	}
	ProofReferenceEvent struct {
		Proof manifest.Proof
		State ProofState
	}
	NewAddressReservationEvent struct {
		Reservation manifest.AddressReservation
		State       AddressReservationState
	}
	ConsumeAddressReservationEvent struct {
		Reservation manifest.AddressReservation
		State       AddressReservationState
	}
	NewNamedAddressEvent struct {
		Address manifest.NamedAddress
		State   NamedAddressState
	}
	NamedAddressReferenceEvent struct {
		Address manifest.NamedAddress
		State   NamedAddressState
	}
	NewIntentEvent struct {
		Intent manifest.NamedIntent
		State  IntentState
	}
	IntentReferenceEvent struct {
		Intent manifest.NamedIntent
		State  IntentState
	}
	// InvocationEvent is sent before the argument payload is traversed.
	InvocationEvent struct {
		Index       int
		Invocation  manifest.Invocation
		Args        manifest.Value
		EncodedArgs []byte
	}
	// PassExpressionEvent reports an expression passed to an invocation.
	// Expressions can only be resolved at runtime.
	PassExpressionEvent struct {
		Expression manifest.Expression
	}
	PassBlobEvent struct {
		Hash ids.ID
		Blob []byte
	}
	WorktopAssertionEvent struct {
		Assertion manifest.WorktopAssertion
	}
	DropAuthZoneProofsEvent struct {
		SignatureProofs    bool
		NonSignatureProofs bool
	}
	FinishEvent struct {
		InstructionCount int
	}
)

// NoopVisitor ignores every event. Embed it to implement only some hooks.
type NoopVisitor struct{}

func (NoopVisitor) OnStartInstruction(StartInstructionEvent) error                   { return nil }
func (NoopVisitor) OnEndInstruction(EndInstructionEvent) error                       { return nil }
func (NoopVisitor) OnNewBucket(NewBucketEvent) error                                 { return nil }
func (NoopVisitor) OnConsumeBucket(ConsumeBucketEvent) error                         { return nil }
func (NoopVisitor) OnNewProof(NewProofEvent) error                                   { return nil }
func (NoopVisitor) OnConsumeProof(ConsumeProofEvent) error                           { return nil }
func (NoopVisitor) OnProofReference(ProofReferenceEvent) error                       { return nil }
func (NoopVisitor) OnNewAddressReservation(NewAddressReservationEvent) error         { return nil }
func (NoopVisitor) OnConsumeAddressReservation(ConsumeAddressReservationEvent) error { return nil }
func (NoopVisitor) OnNewNamedAddress(NewNamedAddressEvent) error                     { return nil }
func (NoopVisitor) OnNamedAddressReference(NamedAddressReferenceEvent) error         { return nil }
func (NoopVisitor) OnNewIntent(NewIntentEvent) error                                 { return nil }
func (NoopVisitor) OnIntentReference(IntentReferenceEvent) error                     { return nil }
func (NoopVisitor) OnInvocation(InvocationEvent) error                               { return nil }
func (NoopVisitor) OnPassExpression(PassExpressionEvent) error                       { return nil }
func (NoopVisitor) OnPassBlob(PassBlobEvent) error                                   { return nil }
func (NoopVisitor) OnWorktopAssertion(WorktopAssertionEvent) error                   { return nil }
func (NoopVisitor) OnDropAuthZoneProofs(DropAuthZoneProofsEvent) error               { return nil }
func (NoopVisitor) OnFinish(FinishEvent) error                                       { return nil }

// Visitors fans every event out to each visitor in order, stopping at the
// first error.
type Visitors []Visitor

func each[E any](vs Visitors, e E, hook func(Visitor, E) error) error {
	for _, v := range vs {
		if err := hook(v, e); err != nil {
			return err
		}
	}
	return nil
}

func (vs Visitors) OnStartInstruction(e StartInstructionEvent) error {
	return each(vs, e, Visitor.OnStartInstruction)
}

func (vs Visitors) OnEndInstruction(e EndInstructionEvent) error {
	return each(vs, e, Visitor.OnEndInstruction)
}

func (vs Visitors) OnNewBucket(e NewBucketEvent) error {
	return each(vs, e, Visitor.OnNewBucket)
}

func (vs Visitors) OnConsumeBucket(e ConsumeBucketEvent) error {
	return each(vs, e, Visitor.OnConsumeBucket)
}

func (vs Visitors) OnNewProof(e NewProofEvent) error {
	return each(vs, e, Visitor.OnNewProof)
}

func (vs Visitors) OnConsumeProof(e ConsumeProofEvent) error {
	return each(vs, e, Visitor.OnConsumeProof)
}

func (vs Visitors) OnProofReference(e ProofReferenceEvent) error {
	return each(vs, e, Visitor.OnProofReference)
}

func (vs Visitors) OnNewAddressReservation(e NewAddressReservationEvent) error {
	return each(vs, e, Visitor.OnNewAddressReservation)
}

func (vs Visitors) OnConsumeAddressReservation(e ConsumeAddressReservationEvent) error {
	return each(vs, e, Visitor.OnConsumeAddressReservation)
}

func (vs Visitors) OnNewNamedAddress(e NewNamedAddressEvent) error {
	return each(vs, e, Visitor.OnNewNamedAddress)
}

func (vs Visitors) OnNamedAddressReference(e NamedAddressReferenceEvent) error {
	return each(vs, e, Visitor.OnNamedAddressReference)
}

func (vs Visitors) OnNewIntent(e NewIntentEvent) error {
	return each(vs, e, Visitor.OnNewIntent)
}

func (vs Visitors) OnIntentReference(e IntentReferenceEvent) error {
	return each(vs, e, Visitor.OnIntentReference)
}

func (vs Visitors) OnInvocation(e InvocationEvent) error {
	return each(vs, e, Visitor.OnInvocation)
}

func (vs Visitors) OnPassExpression(e PassExpressionEvent) error {
	return each(vs, e, Visitor.OnPassExpression)
}

func (vs Visitors) OnPassBlob(e PassBlobEvent) error {
	return each(vs, e, Visitor.OnPassBlob)
}

func (vs Visitors) OnWorktopAssertion(e WorktopAssertionEvent) error {
	return each(vs, e, Visitor.OnWorktopAssertion)
}

func (vs Visitors) OnDropAuthZoneProofs(e DropAuthZoneProofsEvent) error {
	return each(vs, e, Visitor.OnDropAuthZoneProofs)
}

func (vs Visitors) OnFinish(e FinishEvent) error {
	return each(vs, e, Visitor.OnFinish)
}
