// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"errors"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

var (
	resourceA = types.NewAddress(types.EntityTypeGlobalFungibleResource, ids.ID{1})
	account   = types.NewAddress(types.EntityTypeGlobalAccount, ids.ID{2})
)

func newManifest(instructions ...manifest.Instruction) *manifest.Manifest {
	return &manifest.Manifest{Instructions: instructions}
}

// lockRecorder records the proof lock count of bucket 0 after every
// instruction.
type lockRecorder struct {
	NoopVisitor

	interpreter *Interpreter
	locks       []uint32
}

func (r *lockRecorder) OnEndInstruction(EndInstructionEvent) error {
	bucket, ok := r.interpreter.Bucket(0)
	if !ok {
		return errors.New("missing bucket")
	}
	r.locks = append(r.locks, bucket.ProofLocks)
	return nil
}

func TestProofLockReleasedBeforeReturn(t *testing.T) {
	require := require.New(t)

	m := newManifest(
		manifest.TakeFromWorktop{Resource: resourceA, Amount: types.NewDecimal(10)},
		manifest.CreateProofFromBucketOfAll{Bucket: 0},
		manifest.PushToAuthZone{Proof: 0},
		manifest.ReturnToWorktop{Bucket: 0},
	)
	interpreter := New(DefaultRuleset(), m)
	recorder := &lockRecorder{interpreter: interpreter}
	require.NoError(interpreter.InterpretOrErr(recorder))
	require.Equal([]uint32{0, 1, 0, 0}, recorder.locks)

	bucket, ok := interpreter.Bucket(0)
	require.True(ok)
	require.Equal(manifest.InstructionLocation(3), *bucket.ConsumedAt)

	proof, ok := interpreter.Proof(0)
	require.True(ok)
	require.Equal(resourceA, proof.Source.Amount.Resource)
}

func TestDanglingBucketDependsOnRuleset(t *testing.T) {
	require := require.New(t)

	m := newManifest(
		manifest.TakeFromWorktop{Resource: resourceA, Amount: types.NewDecimal(5)},
	)

	err := New(DefaultRuleset(), m).Validate()
	require.ErrorIs(err, ErrDanglingBucket)
	var handleErr *HandleError
	require.ErrorAs(err, &handleErr)
	require.Equal(manifest.KindBucket, handleErr.Kind)
	require.Equal(uint32(0), handleErr.ID)
	require.Equal(manifest.InstructionLocation(0), *handleErr.CreatedAt)
	require.Equal(manifest.WrapUpLocation, handleErr.Location)
	require.Contains(err.Error(), "end of manifest")

	require.NoError(New(LegacyRuleset(), m).Validate())
}

func TestBucketLockedByProof(t *testing.T) {
	m := newManifest(
		manifest.TakeFromWorktop{Resource: resourceA, Amount: types.NewDecimal(5)},
		manifest.CreateProofFromBucketOfAll{Bucket: 0},
		manifest.ReturnToWorktop{Bucket: 0},
	)
	for _, ruleset := range []Ruleset{DefaultRuleset(), LegacyRuleset()} {
		err := New(ruleset, m).Validate()
		require.ErrorIs(t, err, ErrBucketLockedByProof, ruleset.Name)
	}

	disabled := DefaultRuleset()
	disabled.ValidateBucketProofLock = false
	disabled.ValidateNoDanglingNodes = false
	require.NoError(t, New(disabled, m).Validate())
}

func TestClonedProofKeepsBucketLocked(t *testing.T) {
	require := require.New(t)

	m := newManifest(
		manifest.TakeFromWorktop{Resource: resourceA, Amount: types.NewDecimal(5)},
		manifest.CreateProofFromBucketOfAll{Bucket: 0},
		manifest.CloneProof{Proof: 0},
		manifest.DropProof{Proof: 0},
		manifest.ReturnToWorktop{Bucket: 0},
	)
	require.ErrorIs(New(DefaultRuleset(), m).Validate(), ErrBucketLockedByProof)

	m.Instructions = append(m.Instructions[:4],
		manifest.DropProof{Proof: 1},
		manifest.ReturnToWorktop{Bucket: 0},
	)
	require.NoError(New(DefaultRuleset(), m).Validate())
}

func TestExactlyOnceConsumption(t *testing.T) {
	tests := []struct {
		name         string
		instructions []manifest.Instruction
		err          error
		created      manifest.Location
		consumed     manifest.Location
	}{
		{
			name: "bucket",
			instructions: []manifest.Instruction{
				manifest.TakeAllFromWorktop{Resource: resourceA},
				manifest.ReturnToWorktop{Bucket: 0},
				manifest.BurnResource{Bucket: 0},
			},
			err:      ErrBucketAlreadyUsed,
			created:  manifest.InstructionLocation(0),
			consumed: manifest.InstructionLocation(1),
		},
		{
			name: "bucket passed to a call",
			instructions: []manifest.Instruction{
				manifest.TakeAllFromWorktop{Resource: resourceA},
				manifest.CallMethod{
					Address: manifest.StaticAddress(account),
					Method:  "deposit",
					Args:    manifest.NewTuple(manifest.BucketRef{ID: 0}),
				},
				manifest.CallMethod{
					Address: manifest.StaticAddress(account),
					Method:  "deposit",
					Args:    manifest.NewTuple(manifest.BucketRef{ID: 0}),
				},
			},
			err:      ErrBucketAlreadyUsed,
			created:  manifest.InstructionLocation(0),
			consumed: manifest.InstructionLocation(1),
		},
		{
			name: "proof",
			instructions: []manifest.Instruction{
				manifest.PopFromAuthZone{},
				manifest.DropProof{Proof: 0},
				manifest.PushToAuthZone{Proof: 0},
			},
			err:      ErrProofAlreadyUsed,
			created:  manifest.InstructionLocation(0),
			consumed: manifest.InstructionLocation(1),
		},
		{
			name: "address reservation",
			instructions: []manifest.Instruction{
				manifest.AllocateGlobalAddress{Package: types.AccountPackage, Blueprint: "Account"},
				manifest.CallFunction{
					Package:   manifest.StaticAddress(types.AccountPackage),
					Blueprint: "Account",
					Function:  "create_advanced",
					Args:      manifest.NewTuple(manifest.ReservationRef{ID: 0}),
				},
				manifest.CallFunction{
					Package:   manifest.StaticAddress(types.AccountPackage),
					Blueprint: "Account",
					Function:  "create_advanced",
					Args:      manifest.NewTuple(manifest.ReservationRef{ID: 0}),
				},
			},
			err:      ErrAddressReservationAlreadyUsed,
			created:  manifest.InstructionLocation(0),
			consumed: manifest.InstructionLocation(1),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			err := New(DefaultRuleset(), newManifest(test.instructions...)).Validate()
			require.ErrorIs(err, test.err)

			var handleErr *HandleError
			require.ErrorAs(err, &handleErr)
			require.Equal(test.created, *handleErr.CreatedAt)
			require.Equal(test.consumed, *handleErr.ConsumedAt)
			require.Equal(manifest.InstructionLocation(len(test.instructions)-1), handleErr.Location)
		})
	}
}

func TestNotYetCreated(t *testing.T) {
	tests := []struct {
		name        string
		instruction manifest.Instruction
		err         error
	}{
		{
			name:        "bucket",
			instruction: manifest.ReturnToWorktop{Bucket: 0},
			err:         ErrBucketNotYetCreated,
		},
		{
			name:        "proof from missing bucket",
			instruction: manifest.CreateProofFromBucketOfAll{Bucket: 4},
			err:         ErrBucketNotYetCreated,
		},
		{
			name:        "proof",
			instruction: manifest.CloneProof{Proof: 0},
			err:         ErrProofNotYetCreated,
		},
		{
			name: "reservation",
			instruction: manifest.CallFunction{
				Package:   manifest.StaticAddress(types.AccountPackage),
				Blueprint: "Account",
				Function:  "create_advanced",
				Args:      manifest.NewTuple(manifest.ReservationRef{ID: 0}),
			},
			err: ErrAddressReservationNotYetCreated,
		},
		{
			name: "named call target",
			instruction: manifest.CallMethod{
				Address: manifest.NamedAddressOf(0),
				Method:  "balance",
				Args:    manifest.NewTuple(),
			},
			err: ErrNamedAddressNotYetCreated,
		},
		{
			name: "named address argument",
			instruction: manifest.CallMethod{
				Address: manifest.StaticAddress(account),
				Method:  "balance",
				Args:    manifest.NewTuple(manifest.NamedAddressRef{ID: 0}),
			},
			err: ErrNamedAddressNotYetCreated,
		},
		{
			name: "intent",
			instruction: manifest.CallMethod{
				Address: manifest.StaticAddress(account),
				Method:  "verify_parent",
				Args:    manifest.NewTuple(manifest.IntentRef{ID: 0}),
			},
			err: ErrIntentNotYetCreated,
		},
		{
			name: "blob",
			instruction: manifest.CallFunction{
				Package:   manifest.StaticAddress(types.AccountPackage),
				Blueprint: "Account",
				Function:  "publish",
				Args:      manifest.NewTuple(manifest.BlobRef{Hash: ids.ID{9}}),
			},
			err: ErrBlobNotRegistered,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := New(LegacyRuleset(), newManifest(test.instruction)).Validate()
			require.ErrorIs(t, err, test.err)
		})
	}
}

func TestArgsEncodeFailure(t *testing.T) {
	m := newManifest(manifest.CallMethod{
		Address: manifest.StaticAddress(account),
		Method:  "balance",
		Args:    manifest.Tuple{Fields: []manifest.Value{nil}},
	})
	err := New(DefaultRuleset(), m).Validate()
	require.ErrorIs(t, err, ErrArgsEncode)
}

func TestDanglingReservation(t *testing.T) {
	require := require.New(t)

	m := newManifest(
		manifest.AllocateGlobalAddress{Package: types.AccountPackage, Blueprint: "Account"},
	)
	err := New(DefaultRuleset(), m).Validate()
	require.ErrorIs(err, ErrDanglingAddressReservation)
	var handleErr *HandleError
	require.ErrorAs(err, &handleErr)
	require.Equal(manifest.WrapUpLocation, handleErr.Location)
	require.NotEqual(*handleErr.CreatedAt, handleErr.Location)
	require.NoError(New(LegacyRuleset(), m).Validate())

	// Named addresses and proofs are never dangling.
	m = newManifest(
		manifest.AllocateGlobalAddress{Package: types.AccountPackage, Blueprint: "Account"},
		manifest.CallFunction{
			Package:   manifest.StaticAddress(types.AccountPackage),
			Blueprint: "Account",
			Function:  "create_advanced",
			Args:      manifest.NewTuple(manifest.ReservationRef{ID: 0}),
		},
		manifest.CallMethod{
			Address: manifest.NamedAddressOf(0),
			Method:  "create_proof_of_amount",
			Args:    manifest.NewTuple(manifest.Address{ID: resourceA}, manifest.NewDecimal(types.NewDecimal(1))),
		},
		manifest.PopFromAuthZone{},
	)
	require.NoError(New(DefaultRuleset(), m).Validate())
}

func TestPreamble(t *testing.T) {
	require := require.New(t)

	preallocated := types.NewAddress(types.EntityTypeGlobalAccount, ids.ID{7})
	intent := ids.ID{8}
	m := newManifest(
		manifest.CallFunction{
			Package:   manifest.StaticAddress(types.AccountPackage),
			Blueprint: "Account",
			Function:  "create_advanced",
			Args: manifest.NewTuple(
				manifest.ReservationRef{ID: 0},
				manifest.IntentRef{ID: 0},
			),
		},
	)
	m.PreallocatedAddresses = []manifest.PreallocatedAddress{{
		Blueprint: types.BlueprintID{Package: types.AccountPackage, Name: "Account"},
		Address:   preallocated,
	}}
	m.ChildIntents = []ids.ID{intent}

	events := &eventLog{}
	interpreter := New(DefaultRuleset(), m)
	require.NoError(interpreter.InterpretOrErr(events))
	require.Equal([]string{
		"new reservation 0 @preamble",
		"new intent 0 @preamble",
		"start 0",
		"invoke Account::create_advanced",
		"consume reservation 0",
		"reference intent 0",
		"end 0",
		"finish 1",
	}, events.log)

	reservation, ok := interpreter.AddressReservation(0)
	require.True(ok)
	require.Equal(preallocated, *reservation.Preallocated)

	// Unused preallocated reservations are not dangling.
	m.Instructions = nil
	require.NoError(New(DefaultRuleset(), m).Validate())
}

func TestDropAllProofs(t *testing.T) {
	require := require.New(t)

	m := newManifest(
		manifest.TakeFromWorktop{Resource: resourceA, Amount: types.NewDecimal(1)},
		manifest.CreateProofFromBucketOfAll{Bucket: 0},
		manifest.CreateProofFromAuthZoneOfAll{Resource: resourceA},
		manifest.DropProof{Proof: 1},
		manifest.DropAllProofs{},
		manifest.ReturnToWorktop{Bucket: 0},
	)
	events := &eventLog{}
	require.NoError(New(DefaultRuleset(), m).InterpretOrErr(events))
	require.Contains(events.log, "consume proof 0 -> drop")
	require.Contains(events.log, "drop auth zone proofs true true")
	require.NotContains(events.log, "consume proof 1 -> invocation")
}

func TestVisitorErrorStopsInterpretation(t *testing.T) {
	require := require.New(t)

	errStop := errors.New("stop")
	stopper := &stopOnBucket{err: errStop}
	before := &eventLog{}
	after := &eventLog{}
	m := newManifest(
		manifest.TakeAllFromWorktop{Resource: resourceA},
		manifest.ReturnToWorktop{Bucket: 0},
	)
	err := New(DefaultRuleset(), m).InterpretOrErr(Visitors{before, stopper, after})
	require.Equal(errStop, err)
	require.Equal([]string{"start 0", "new bucket 0"}, before.log)
	require.Equal([]string{"start 0"}, after.log)
}

type stopOnBucket struct {
	NoopVisitor
	err error
}

func (s *stopOnBucket) OnNewBucket(NewBucketEvent) error { return s.err }

func TestRulesetByName(t *testing.T) {
	require := require.New(t)

	r, err := RulesetByName("legacy")
	require.NoError(err)
	require.False(r.ValidateNoDanglingNodes)
	require.True(r.ValidateBucketProofLock)

	r, err = RulesetByName("default")
	require.NoError(err)
	require.Equal(DefaultRuleset(), r)

	_, err = RulesetByName("strict")
	require.ErrorIs(err, ErrUnknownRuleset)
}
