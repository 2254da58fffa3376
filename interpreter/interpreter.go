// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package interpreter replays the handle bookkeeping of a manifest without
// executing it. It is used to reject malformed manifests before they reach
// the processor and to drive read-only analyses.
package interpreter

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
)

// Interpreter is the static manifest interpreter. It is not safe for
// concurrent use.
type Interpreter struct {
	ruleset  Ruleset
	manifest *manifest.Manifest
	blobs    map[ids.ID][]byte

	state   state
	visitor Visitor
	// location of the instruction being interpreted
	location manifest.Location
}

func New(ruleset Ruleset, m *manifest.Manifest) *Interpreter {
	return &Interpreter{
		ruleset:  ruleset,
		manifest: m,
		blobs:    m.BlobMap(),
	}
}

// Validate interprets the manifest without observing it.
func (i *Interpreter) Validate() error {
	return i.InterpretOrErr(NoopVisitor{})
}

// InterpretOrErr interprets the whole manifest, reporting every event to
// [v]. The bookkeeping is reset on every call.
func (i *Interpreter) InterpretOrErr(v Visitor) error {
	i.state = state{}
	i.visitor = v
	defer func() { i.visitor = nil }()

	if err := i.handlePreamble(); err != nil {
		return err
	}
	for index, instruction := range i.manifest.Instructions {
		if err := i.handleInstruction(index, instruction); err != nil {
			return err
		}
	}
	return i.handleWrapUp()
}

// Bucket returns the bookkeeping record of [id] after the last
// interpretation.
func (i *Interpreter) Bucket(id manifest.Bucket) (BucketState, bool) {
	if int(id) >= len(i.state.buckets) {
		return BucketState{}, false
	}
	return i.state.buckets[id], true
}

func (i *Interpreter) Proof(id manifest.Proof) (ProofState, bool) {
	if int(id) >= len(i.state.proofs) {
		return ProofState{}, false
	}
	return i.state.proofs[id], true
}

func (i *Interpreter) AddressReservation(id manifest.AddressReservation) (AddressReservationState, bool) {
	if int(id) >= len(i.state.reservations) {
		return AddressReservationState{}, false
	}
	return i.state.reservations[id], true
}

func (i *Interpreter) handlePreamble() error {
	i.location = manifest.PreambleLocation
	for _, preallocated := range i.manifest.PreallocatedAddresses {
		address := preallocated.Address
		if _, err := i.newAddressReservation(
			preallocated.Blueprint.Package,
			preallocated.Blueprint.Name,
			&address,
		); err != nil {
			return err
		}
	}
	for _, hash := range i.manifest.ChildIntents {
		if err := i.newIntent(hash); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) handleInstruction(index int, instruction manifest.Instruction) error {
	i.location = manifest.InstructionLocation(index)
	effect := instruction.Effect()

	if err := i.visitor.OnStartInstruction(StartInstructionEvent{
		Index:       index,
		Instruction: instruction,
		Effect:      effect,
	}); err != nil {
		return err
	}

	var err error
	switch effect := effect.(type) {
	case manifest.CreateBucketEffect:
		err = i.newBucket(effect.Source)
	case manifest.CreateProofEffect:
		err = i.newProof(effect.Source)
	case manifest.ConsumeBucketEffect:
		err = i.consumeBucket(effect.Bucket, effect.Destination)
	case manifest.ConsumeProofEffect:
		err = i.consumeProof(effect.Proof, effect.Destination)
	case manifest.CloneProofEffect:
		err = i.cloneProof(effect.Proof)
	case manifest.DropManyProofsEffect:
		err = i.dropManyProofs(effect)
	case manifest.InvocationEffect:
		err = i.invocation(index, effect)
	case manifest.CreateAddressAndReservationEffect:
		err = i.newAddressAndReservation(effect.Package, effect.Blueprint)
	case manifest.WorktopAssertionEffect:
		err = i.visitor.OnWorktopAssertion(WorktopAssertionEvent{Assertion: effect.Assertion})
	default:
		err = fmt.Errorf("unexpected effect %T at %s", effect, i.location)
	}
	if err != nil {
		return err
	}

	return i.visitor.OnEndInstruction(EndInstructionEvent{
		Index:       index,
		Instruction: instruction,
		Effect:      effect,
	})
}

func (i *Interpreter) handleWrapUp() error {
	i.location = manifest.WrapUpLocation
	if i.ruleset.ValidateNoDanglingNodes {
		for id, bucket := range i.state.buckets {
			if bucket.ConsumedAt == nil {
				return &HandleError{
					Err:       ErrDanglingBucket,
					Kind:      manifest.KindBucket,
					ID:        uint32(id),
					Name:      bucket.Name,
					Location:  i.location,
					CreatedAt: locationPtr(bucket.CreatedAt),
				}
			}
		}
		for id, reservation := range i.state.reservations {
			if reservation.ConsumedAt == nil && reservation.Preallocated == nil {
				return &HandleError{
					Err:       ErrDanglingAddressReservation,
					Kind:      manifest.KindAddressReservation,
					ID:        uint32(id),
					Name:      reservation.Name,
					Location:  i.location,
					CreatedAt: locationPtr(reservation.CreatedAt),
				}
			}
		}
	}
	return i.visitor.OnFinish(FinishEvent{InstructionCount: len(i.manifest.Instructions)})
}

func (i *Interpreter) newBucket(source manifest.BucketSource) error {
	id := manifest.Bucket(len(i.state.buckets))
	bucket := BucketState{
		Name:      i.manifest.Names.Bucket(id),
		Source:    source,
		CreatedAt: i.location,
	}
	i.state.buckets = append(i.state.buckets, bucket)
	return i.visitor.OnNewBucket(NewBucketEvent{Bucket: id, State: bucket})
}

// liveBucket returns the bucket [id] if it exists and is unconsumed.
func (i *Interpreter) liveBucket(id manifest.Bucket) (*BucketState, error) {
	if int(id) >= len(i.state.buckets) {
		return nil, &HandleError{
			Err:      ErrBucketNotYetCreated,
			Kind:     manifest.KindBucket,
			ID:       uint32(id),
			Name:     i.manifest.Names.Bucket(id),
			Location: i.location,
		}
	}
	bucket := &i.state.buckets[id]
	if bucket.ConsumedAt != nil {
		return nil, &HandleError{
			Err:        ErrBucketAlreadyUsed,
			Kind:       manifest.KindBucket,
			ID:         uint32(id),
			Name:       bucket.Name,
			Location:   i.location,
			CreatedAt:  locationPtr(bucket.CreatedAt),
			ConsumedAt: bucket.ConsumedAt,
		}
	}
	return bucket, nil
}

func (i *Interpreter) consumeBucket(id manifest.Bucket, destination manifest.BucketDestination) error {
	bucket, err := i.liveBucket(id)
	if err != nil {
		return err
	}
	if i.ruleset.ValidateBucketProofLock && bucket.ProofLocks > 0 {
		return &HandleError{
			Err:       ErrBucketLockedByProof,
			Kind:      manifest.KindBucket,
			ID:        uint32(id),
			Name:      bucket.Name,
			Location:  i.location,
			CreatedAt: locationPtr(bucket.CreatedAt),
		}
	}
	bucket.ConsumedAt = locationPtr(i.location)
	return i.visitor.OnConsumeBucket(ConsumeBucketEvent{
		Bucket:      id,
		State:       *bucket,
		Destination: destination,
	})
}

func (i *Interpreter) newProof(source manifest.ProofSource) error {
	if source.Kind == manifest.ProofFromBucket {
		bucket, err := i.liveBucket(source.Bucket)
		if err != nil {
			return err
		}
		bucket.ProofLocks++
		source.Amount.Resource = bucket.Source.Amount.Resource
	}

	id := manifest.Proof(len(i.state.proofs))
	proof := ProofState{
		Name:      i.manifest.Names.Proof(id),
		Source:    source,
		CreatedAt: i.location,
	}
	i.state.proofs = append(i.state.proofs, proof)
	return i.visitor.OnNewProof(NewProofEvent{Proof: id, State: proof})
}

func (i *Interpreter) liveProof(id manifest.Proof) (*ProofState, error) {
	if int(id) >= len(i.state.proofs) {
		return nil, &HandleError{
			Err:      ErrProofNotYetCreated,
			Kind:     manifest.KindProof,
			ID:       uint32(id),
			Name:     i.manifest.Names.Proof(id),
			Location: i.location,
		}
	}
	proof := &i.state.proofs[id]
	if proof.ConsumedAt != nil {
		return nil, &HandleError{
			Err:        ErrProofAlreadyUsed,
			Kind:       manifest.KindProof,
			ID:         uint32(id),
			Name:       proof.Name,
			Location:   i.location,
			CreatedAt:  locationPtr(proof.CreatedAt),
			ConsumedAt: proof.ConsumedAt,
		}
	}
	return proof, nil
}

func (i *Interpreter) consumeProof(id manifest.Proof, destination manifest.ProofDestination) error {
	proof, err := i.liveProof(id)
	if err != nil {
		return err
	}
	proof.ConsumedAt = locationPtr(i.location)
	if proof.Source.Kind == manifest.ProofFromBucket {
		// The source bucket may already be consumed when the lock check is
		// disabled; its lock count is still released.
		if bucket := &i.state.buckets[proof.Source.Bucket]; bucket.ProofLocks > 0 {
			bucket.ProofLocks--
		}
	}
	return i.visitor.OnConsumeProof(ConsumeProofEvent{
		Proof:       id,
		State:       *proof,
		Destination: destination,
	})
}

func (i *Interpreter) cloneProof(id manifest.Proof) error {
	proof, err := i.liveProof(id)
	if err != nil {
		return err
	}
	source := proof.Source
	if err := i.visitor.OnProofReference(ProofReferenceEvent{Proof: id, State: *proof}); err != nil {
		return err
	}
	if source.Kind == manifest.ProofFromBucket {
		// The clone keeps the source bucket locked even if that bucket was
		// consumed with the lock check disabled.
		i.state.buckets[source.Bucket].ProofLocks++
		clone := manifest.Proof(len(i.state.proofs))
		state := ProofState{
			Name:      i.manifest.Names.Proof(clone),
			Source:    source,
			CreatedAt: i.location,
		}
		i.state.proofs = append(i.state.proofs, state)
		return i.visitor.OnNewProof(NewProofEvent{Proof: clone, State: state})
	}
	return i.newProof(source)
}

func (i *Interpreter) dropManyProofs(effect manifest.DropManyProofsEffect) error {
	if effect.DropAllNamedProofs {
		for id := range i.state.proofs {
			if i.state.proofs[id].ConsumedAt != nil {
				continue
			}
			if err := i.consumeProof(manifest.Proof(id), manifest.ProofDropped); err != nil {
				return err
			}
		}
	}
	if effect.DropAllAuthZoneSignatureProofs || effect.DropAllAuthZoneNonSignatureProofs {
		return i.visitor.OnDropAuthZoneProofs(DropAuthZoneProofsEvent{
			SignatureProofs:    effect.DropAllAuthZoneSignatureProofs,
			NonSignatureProofs: effect.DropAllAuthZoneNonSignatureProofs,
		})
	}
	return nil
}

func (i *Interpreter) newAddressReservation(
	pkg ids.ID,
	blueprint string,
	preallocated *ids.ID,
) (manifest.AddressReservation, error) {
	id := manifest.AddressReservation(len(i.state.reservations))
	reservation := AddressReservationState{
		Name:         i.manifest.Names.Reservation(id),
		Package:      pkg,
		Blueprint:    blueprint,
		Preallocated: preallocated,
		CreatedAt:    i.location,
	}
	i.state.reservations = append(i.state.reservations, reservation)
	return id, i.visitor.OnNewAddressReservation(NewAddressReservationEvent{
		Reservation: id,
		State:       reservation,
	})
}

func (i *Interpreter) newAddressAndReservation(pkg ids.ID, blueprint string) error {
	reservation, err := i.newAddressReservation(pkg, blueprint, nil)
	if err != nil {
		return err
	}
	id := manifest.NamedAddress(len(i.state.addresses))
	address := NamedAddressState{
		Name:        i.manifest.Names.Address(id),
		Reservation: reservation,
		Package:     pkg,
		Blueprint:   blueprint,
		CreatedAt:   i.location,
	}
	i.state.addresses = append(i.state.addresses, address)
	return i.visitor.OnNewNamedAddress(NewNamedAddressEvent{Address: id, State: address})
}

func (i *Interpreter) consumeAddressReservation(id manifest.AddressReservation) error {
	if int(id) >= len(i.state.reservations) {
		return &HandleError{
			Err:      ErrAddressReservationNotYetCreated,
			Kind:     manifest.KindAddressReservation,
			ID:       uint32(id),
			Name:     i.manifest.Names.Reservation(id),
			Location: i.location,
		}
	}
	reservation := &i.state.reservations[id]
	if reservation.ConsumedAt != nil {
		return &HandleError{
			Err:        ErrAddressReservationAlreadyUsed,
			Kind:       manifest.KindAddressReservation,
			ID:         uint32(id),
			Name:       reservation.Name,
			Location:   i.location,
			CreatedAt:  locationPtr(reservation.CreatedAt),
			ConsumedAt: reservation.ConsumedAt,
		}
	}
	reservation.ConsumedAt = locationPtr(i.location)
	return i.visitor.OnConsumeAddressReservation(ConsumeAddressReservationEvent{
		Reservation: id,
		State:       *reservation,
	})
}

func (i *Interpreter) referenceNamedAddress(id manifest.NamedAddress) error {
	if int(id) >= len(i.state.addresses) {
		return &HandleError{
			Err:      ErrNamedAddressNotYetCreated,
			Kind:     manifest.KindNamedAddress,
			ID:       uint32(id),
			Name:     i.manifest.Names.Address(id),
			Location: i.location,
		}
	}
	return i.visitor.OnNamedAddressReference(NamedAddressReferenceEvent{
		Address: id,
		State:   i.state.addresses[id],
	})
}

func (i *Interpreter) newIntent(hash ids.ID) error {
	id := manifest.NamedIntent(len(i.state.intents))
	intent := IntentState{
		Name:      i.manifest.Names.Intent(id),
		Hash:      hash,
		CreatedAt: i.location,
	}
	i.state.intents = append(i.state.intents, intent)
	return i.visitor.OnNewIntent(NewIntentEvent{Intent: id, State: intent})
}

func (i *Interpreter) referenceIntent(id manifest.NamedIntent) error {
	if int(id) >= len(i.state.intents) {
		return &HandleError{
			Err:      ErrIntentNotYetCreated,
			Kind:     manifest.KindIntent,
			ID:       uint32(id),
			Name:     i.manifest.Names.Intent(id),
			Location: i.location,
		}
	}
	return i.visitor.OnIntentReference(IntentReferenceEvent{
		Intent: id,
		State:  i.state.intents[id],
	})
}

func (i *Interpreter) referenceDynamicAddress(address manifest.DynamicAddress) error {
	if !address.IsNamed {
		return nil
	}
	return i.referenceNamedAddress(address.Named)
}

func (i *Interpreter) invocation(index int, effect manifest.InvocationEffect) error {
	switch effect.Kind.Kind {
	case manifest.InvokeFunction:
		if err := i.referenceDynamicAddress(effect.Kind.Package); err != nil {
			return err
		}
	default:
		if err := i.referenceDynamicAddress(effect.Kind.Address); err != nil {
			return err
		}
	}

	encoded, err := manifest.EncodeValue(effect.Args)
	if err != nil {
		return &HandleError{
			Err:      ErrArgsEncode,
			Kind:     manifest.KindArgs,
			Location: i.location,
			Cause:    err,
		}
	}
	if err := i.visitor.OnInvocation(InvocationEvent{
		Index:       index,
		Invocation:  effect.Kind,
		Args:        effect.Args,
		EncodedArgs: encoded,
	}); err != nil {
		return err
	}

	return manifest.Walk(effect.Args, func(v manifest.Value) error {
		switch v := v.(type) {
		case manifest.BucketRef:
			return i.consumeBucket(v.ID, manifest.BucketToInvocation)
		case manifest.ProofRef:
			return i.consumeProof(v.ID, manifest.ProofToInvocation)
		case manifest.ReservationRef:
			return i.consumeAddressReservation(v.ID)
		case manifest.NamedAddressRef:
			return i.referenceNamedAddress(v.ID)
		case manifest.IntentRef:
			return i.referenceIntent(v.ID)
		case manifest.BlobRef:
			blob, ok := i.blobs[v.Hash]
			if !ok {
				return &HandleError{
					Err:      ErrBlobNotRegistered,
					Kind:     manifest.KindBlob,
					Blob:     v.Hash,
					Location: i.location,
				}
			}
			return i.visitor.OnPassBlob(PassBlobEvent{Hash: v.Hash, Blob: blob})
		case manifest.ExpressionRef:
			return i.visitor.OnPassExpression(PassExpressionEvent{Expression: v.Expression})
		default:
			return nil
		}
	})
}
