// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/processor"
	"github.com/ava-labs/txprocessor/types"
)

func newTestStore(t *testing.T) *Store {
	store := NewStore(versiondb.New(memdb.New()))
	require.NoError(t, Genesis(store))
	return store
}

// execute runs [instructions] as one transaction against [store].
func execute(t *testing.T, store *Store, instructions ...manifest.Instruction) ([]processor.InstructionOutput, error) {
	e, err := New(store, Config{TxID: ids.GenerateTestID()})
	require.NoError(t, err)
	return executeOn(t, e, nil, instructions...)
}

func executeOn(t *testing.T, e *Engine, reservations []processor.GlobalAddressReservation, instructions ...manifest.Instruction) ([]processor.InstructionOutput, error) {
	p, err := processor.New(processor.Config{})
	require.NoError(t, err)
	encoded, err := manifest.EncodeInstructions(instructions)
	require.NoError(t, err)
	outputs, err := p.Run(e, encoded, reservations, nil)
	if err != nil {
		return nil, err
	}
	return outputs, e.Finalize()
}

func decodeReturn(t *testing.T, output processor.InstructionOutput) manifest.Value {
	require.Equal(t, processor.CallReturn, output.Kind)
	value, err := manifest.DecodeValue(output.Return)
	require.NoError(t, err)
	return value
}

func call(address ids.ID, method string, args ...manifest.Value) manifest.Instruction {
	return manifest.CallMethod{
		Address: manifest.StaticAddress(address),
		Method:  method,
		Args:    manifest.NewTuple(args...),
	}
}

func depositAll(account manifest.DynamicAddress) manifest.Instruction {
	return manifest.CallMethod{
		Address: account,
		Method:  "deposit_batch",
		Args:    manifest.NewTuple(manifest.ExpressionRef{Expression: manifest.EntireWorktop}),
	}
}

func decimal(d types.Decimal) manifest.Value { return manifest.NewDecimal(d) }

func address(id ids.ID) manifest.Value { return manifest.Address{ID: id} }

// newFundedAccount creates an account holding FaucetAmount XRD.
func newFundedAccount(t *testing.T, store *Store) ids.ID {
	outputs, err := execute(t, store,
		call(types.Faucet, "free"),
		manifest.AllocateGlobalAddress{Package: types.AccountPackage, Blueprint: "Account"},
		manifest.CallFunction{
			Package:   manifest.StaticAddress(types.AccountPackage),
			Blueprint: "Account",
			Function:  "create_advanced",
			Args:      manifest.NewTuple(manifest.ReservationRef{ID: 0}),
		},
		depositAll(manifest.NamedAddressOf(0)),
	)
	require.NoError(t, err)
	created := decodeReturn(t, outputs[2]).(manifest.Tuple)
	account := created.Fields[0].(manifest.Address).ID
	require.Equal(t, types.EntityTypeGlobalAccount, types.EntityTypeOf(account))
	return account
}

func balance(t *testing.T, store *Store, account, resource ids.ID) types.Decimal {
	outputs, err := execute(t, store, call(account, "balance", address(resource)))
	require.NoError(t, err)
	return decodeReturn(t, outputs[0]).(manifest.DecimalValue).V
}

func TestWorktopConservation(t *testing.T) {
	require := require.New(t)

	store := newTestStore(t)
	account := newFundedAccount(t, store)
	require.Equal(FaucetAmount, balance(t, store, account, types.XRD))

	ten := types.NewDecimal(10)
	_, err := execute(t, store,
		call(account, "withdraw", address(types.XRD), decimal(ten)),
		manifest.AssertWorktopContains{Resource: types.XRD, Amount: ten},
		manifest.TakeFromWorktop{Resource: types.XRD, Amount: ten},
		manifest.CreateProofFromBucketOfAll{Bucket: 0},
		manifest.PushToAuthZone{Proof: 0},
		manifest.ReturnToWorktop{Bucket: 0},
		manifest.AssertWorktopContains{Resource: types.XRD, Amount: ten},
		manifest.DropAuthZoneProofs{},
		depositAll(manifest.StaticAddress(account)),
	)
	require.NoError(err)
	require.Equal(FaucetAmount, balance(t, store, account, types.XRD))
}

func TestBucketLockedByProof(t *testing.T) {
	require := require.New(t)

	store := newTestStore(t)
	account := newFundedAccount(t, store)

	ten := types.NewDecimal(10)
	_, err := execute(t, store,
		call(account, "withdraw", address(types.XRD), decimal(ten)),
		manifest.TakeFromWorktop{Resource: types.XRD, Amount: ten},
		manifest.CreateProofFromBucketOfAmount{Bucket: 0, Amount: types.NewDecimal(5)},
		manifest.CallMethod{
			Address: manifest.StaticAddress(account),
			Method:  "deposit",
			Args:    manifest.NewTuple(manifest.BucketRef{ID: 0}),
		},
	)
	require.ErrorIs(err, ErrBucketLocked)

	store = newTestStore(t)
	account = newFundedAccount(t, store)
	_, err = execute(t, store,
		call(account, "withdraw", address(types.XRD), decimal(ten)),
		manifest.TakeFromWorktop{Resource: types.XRD, Amount: ten},
		manifest.CreateProofFromBucketOfAmount{Bucket: 0, Amount: types.NewDecimal(5)},
		manifest.DropProof{Proof: 0},
		manifest.CallMethod{
			Address: manifest.StaticAddress(account),
			Method:  "deposit",
			Args:    manifest.NewTuple(manifest.BucketRef{ID: 0}),
		},
	)
	require.NoError(err)
}

func TestLockedWorktopAmountCannotBeTaken(t *testing.T) {
	store := newTestStore(t)
	account := newFundedAccount(t, store)

	ten := types.NewDecimal(10)
	_, err := execute(t, store,
		call(account, "withdraw", address(types.XRD), decimal(ten)),
		manifest.TakeFromWorktop{Resource: types.XRD, Amount: ten},
		manifest.CreateProofFromBucketOfAll{Bucket: 0},
		manifest.PushToAuthZone{Proof: 0},
		manifest.ReturnToWorktop{Bucket: 0},
		manifest.TakeFromWorktop{Resource: types.XRD, Amount: types.NewDecimal(1)},
	)
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestWorktopNotEmpty(t *testing.T) {
	_, err := execute(t, newTestStore(t), call(types.Faucet, "free"))
	require.ErrorIs(t, err, ErrWorktopNotEmpty)
}

func TestLeakedBucket(t *testing.T) {
	_, err := execute(t, newTestStore(t),
		call(types.Faucet, "free"),
		manifest.TakeAllFromWorktop{Resource: types.XRD},
	)
	require.ErrorIs(t, err, ErrLeakedBucket)
}

func TestUnusedReservation(t *testing.T) {
	_, err := execute(t, newTestStore(t),
		manifest.AllocateGlobalAddress{Package: types.AccountPackage, Blueprint: "Account"},
	)
	require.ErrorIs(t, err, ErrUnusedReservation)
}

func TestPreallocatedAccount(t *testing.T) {
	require := require.New(t)

	store := newTestStore(t)
	e, err := New(store, Config{TxID: ids.GenerateTestID()})
	require.NoError(err)
	preallocated := types.NewAddress(types.EntityTypeGlobalAccount, ids.GenerateTestID())
	reservation, err := e.Preallocate(AccountBlueprint, preallocated)
	require.NoError(err)

	outputs, err := executeOn(t, e, []processor.GlobalAddressReservation{reservation},
		manifest.CallFunction{
			Package:   manifest.StaticAddress(types.AccountPackage),
			Blueprint: "Account",
			Function:  "create_advanced",
			Args:      manifest.NewTuple(manifest.ReservationRef{ID: 0}),
		},
	)
	require.NoError(err)
	created := decodeReturn(t, outputs[0]).(manifest.Tuple)
	require.Equal(address(preallocated), created.Fields[0])

	record, err := store.GetComponent(preallocated)
	require.NoError(err)
	require.Equal(AccountBlueprint, record.Blueprint)

	e, err = New(store, Config{TxID: ids.GenerateTestID()})
	require.NoError(err)
	_, err = e.Preallocate(AccountBlueprint, preallocated)
	require.ErrorIs(err, ErrAddressInUse)
	_, err = e.Preallocate(FungibleResourceManager, types.NewAddress(types.EntityTypeGlobalAccount, ids.GenerateTestID()))
	require.ErrorIs(err, ErrReservationMismatch)
}

func TestReservationBlueprintMismatch(t *testing.T) {
	_, err := execute(t, newTestStore(t),
		manifest.AllocateGlobalAddress{Package: types.ResourcePackage, Blueprint: "FungibleResourceManager"},
		manifest.CallFunction{
			Package:   manifest.StaticAddress(types.AccountPackage),
			Blueprint: "Account",
			Function:  "create_advanced",
			Args:      manifest.NewTuple(manifest.ReservationRef{ID: 0}),
		},
	)
	require.ErrorIs(t, err, ErrReservationMismatch)
}

func TestFungibleResourceLifecycle(t *testing.T) {
	require := require.New(t)

	store := newTestStore(t)
	account := newFundedAccount(t, store)

	outputs, err := execute(t, store,
		manifest.CallFunction{
			Package:   manifest.StaticAddress(types.ResourcePackage),
			Blueprint: "FungibleResourceManager",
			Function:  "create_with_initial_supply",
			Args:      manifest.NewTuple(manifest.U8{V: 2}, decimal(types.NewDecimal(100))),
		},
		depositAll(manifest.StaticAddress(account)),
	)
	require.NoError(err)
	created := decodeReturn(t, outputs[0]).(manifest.Tuple)
	resource := created.Fields[0].(manifest.Address).ID
	require.True(types.IsFungibleResource(resource))
	require.Equal(types.NewDecimal(100), balance(t, store, account, resource))

	// Amounts beyond the divisibility are rejected unless rounded.
	_, err = execute(t, store,
		call(account, "withdraw", address(resource), decimal(types.MustParseDecimal("1.005"))),
		depositAll(manifest.StaticAddress(account)),
	)
	require.ErrorIs(err, ErrInvalidAmount)

	_, err = execute(t, store,
		call(account, "withdraw", address(resource), decimal(types.MustParseDecimal("1.005")), manifest.U8{V: uint8(types.ToZero)}),
		manifest.TakeAllFromWorktop{Resource: resource},
		manifest.BurnResource{Bucket: 0},
		call(resource, "mint", decimal(types.NewDecimal(5))),
		depositAll(manifest.StaticAddress(account)),
	)
	require.NoError(err)
	require.Equal(types.NewDecimal(104), balance(t, store, account, resource))

	outputs, err = execute(t, store, call(resource, "get_total_supply"))
	require.NoError(err)
	require.Equal(manifest.NewDecimal(types.NewDecimal(104)), decodeReturn(t, outputs[0]))
}

func TestNonFungibles(t *testing.T) {
	require := require.New(t)

	store := newTestStore(t)
	account := newFundedAccount(t, store)

	one, two, three := types.IntegerLocalID(1), types.IntegerLocalID(2), types.IntegerLocalID(3)
	localIDs := func(ids ...types.NonFungibleLocalID) manifest.Value {
		elements := make([]manifest.Value, len(ids))
		for i, id := range ids {
			elements[i] = manifest.LocalIDValue{V: id}
		}
		return manifest.Array{Elements: elements}
	}

	outputs, err := execute(t, store,
		manifest.CallFunction{
			Package:   manifest.StaticAddress(types.ResourcePackage),
			Blueprint: "NonFungibleResourceManager",
			Function:  "create_with_initial_supply",
			Args:      manifest.NewTuple(localIDs(one, two, three)),
		},
		depositAll(manifest.StaticAddress(account)),
	)
	require.NoError(err)
	resource := decodeReturn(t, outputs[0]).(manifest.Tuple).Fields[0].(manifest.Address).ID
	require.Equal(types.NewDecimal(3), balance(t, store, account, resource))

	_, err = execute(t, store,
		manifest.CallMethod{
			Address: manifest.StaticAddress(account),
			Method:  "withdraw_non_fungibles",
			Args:    manifest.NewTuple(address(resource), localIDs(one, two)),
		},
		manifest.AssertWorktopContainsNonFungibles{Resource: resource, IDs: []types.NonFungibleLocalID{one, two}},
		manifest.TakeNonFungiblesFromWorktop{Resource: resource, IDs: []types.NonFungibleLocalID{two}},
		manifest.CreateProofFromBucketOfNonFungibles{Bucket: 0, IDs: []types.NonFungibleLocalID{two}},
		manifest.PushToAuthZone{Proof: 0},
		manifest.CreateProofFromAuthZoneOfNonFungibles{Resource: resource, IDs: []types.NonFungibleLocalID{two}},
		manifest.DropProof{Proof: 1},
		manifest.DropAuthZoneRegularProofs{},
		manifest.BurnResource{Bucket: 0},
		depositAll(manifest.StaticAddress(account)),
	)
	require.NoError(err)
	require.Equal(types.NewDecimal(2), balance(t, store, account, resource))

	_, err = execute(t, store,
		manifest.CallMethod{
			Address: manifest.StaticAddress(resource),
			Method:  "mint",
			Args:    manifest.NewTuple(localIDs(one)),
		},
		depositAll(manifest.StaticAddress(account)),
	)
	require.ErrorIs(err, ErrDuplicateLocalID)
}

func TestVaultProofLocksWithdrawal(t *testing.T) {
	store := newTestStore(t)
	account := newFundedAccount(t, store)

	_, err := execute(t, store,
		call(account, "create_proof_of_amount", address(types.XRD), decimal(FaucetAmount)),
		call(account, "withdraw", address(types.XRD), decimal(types.NewDecimal(1))),
		depositAll(manifest.StaticAddress(account)),
	)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = execute(t, store,
		call(account, "create_proof_of_amount", address(types.XRD), decimal(FaucetAmount)),
		manifest.DropAuthZoneProofs{},
		call(account, "withdraw", address(types.XRD), decimal(types.NewDecimal(1))),
		depositAll(manifest.StaticAddress(account)),
	)
	require.NoError(t, err)
}

func TestOwnerRole(t *testing.T) {
	require := require.New(t)

	store := newTestStore(t)
	holder := newFundedAccount(t, store)

	// A badge held by [holder] guards a second account.
	outputs, err := execute(t, store,
		manifest.CallFunction{
			Package:   manifest.StaticAddress(types.ResourcePackage),
			Blueprint: "FungibleResourceManager",
			Function:  "create_with_initial_supply",
			Args:      manifest.NewTuple(manifest.U8{V: 0}, decimal(types.NewDecimal(1))),
		},
		depositAll(manifest.StaticAddress(holder)),
	)
	require.NoError(err)
	badge := decodeReturn(t, outputs[0]).(manifest.Tuple).Fields[0].(manifest.Address).ID

	outputs, err = execute(t, store,
		call(types.Faucet, "free"),
		manifest.CallFunction{
			Package:   manifest.StaticAddress(types.AccountPackage),
			Blueprint: "Account",
			Function:  "create",
			Args:      manifest.NewTuple(address(badge)),
		},
		manifest.TakeAllFromWorktop{Resource: types.XRD},
		manifest.BurnResource{Bucket: 0},
	)
	require.NoError(err)
	guarded := decodeReturn(t, outputs[1]).(manifest.Tuple).Fields[0].(manifest.Address).ID

	_, err = execute(t, store,
		call(types.Faucet, "free"),
		depositAll(manifest.StaticAddress(guarded)),
	)
	require.NoError(err)

	_, err = execute(t, store,
		call(guarded, "withdraw", address(types.XRD), decimal(types.NewDecimal(1))),
		depositAll(manifest.StaticAddress(holder)),
	)
	require.ErrorIs(err, ErrUnauthorized)

	_, err = execute(t, store,
		call(holder, "create_proof_of_amount", address(badge), decimal(types.NewDecimal(1))),
		call(guarded, "withdraw", address(types.XRD), decimal(types.NewDecimal(1))),
		depositAll(manifest.StaticAddress(holder)),
	)
	require.NoError(err)
	require.Equal(types.NewDecimal(10_001), balance(t, store, holder, types.XRD))
}

func TestXRDRolesAreLocked(t *testing.T) {
	store := newTestStore(t)

	_, err := execute(t, store,
		call(types.XRD, "mint", decimal(types.NewDecimal(1))),
	)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = execute(t, store,
		manifest.CallRoleAssignmentMethod{
			Address: manifest.StaticAddress(types.XRD),
			Method:  "set",
			Args: manifest.NewTuple(
				manifest.U8{V: uint8(manifest.ModuleMain)},
				manifest.String{V: RoleMinter},
				RuleValue(AccessRule{Kind: AllowAll}),
			),
		},
	)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestModuleMethods(t *testing.T) {
	require := require.New(t)

	store := newTestStore(t)
	account := newFundedAccount(t, store)

	outputs, err := execute(t, store,
		manifest.CallMetadataMethod{
			Address: manifest.StaticAddress(account),
			Method:  "set",
			Args:    manifest.NewTuple(manifest.String{V: "name"}, manifest.String{V: "savings"}),
		},
		manifest.CallMetadataMethod{
			Address: manifest.StaticAddress(account),
			Method:  "get",
			Args:    manifest.NewTuple(manifest.String{V: "name"}),
		},
		manifest.CallMetadataMethod{
			Address: manifest.StaticAddress(account),
			Method:  "get",
			Args:    manifest.NewTuple(manifest.String{V: "description"}),
		},
		manifest.CallRoleAssignmentMethod{
			Address: manifest.StaticAddress(account),
			Method:  "set",
			Args: manifest.NewTuple(
				manifest.U8{V: uint8(manifest.ModuleMetadata)},
				manifest.String{V: RoleMetadataSetter},
				RuleValue(AccessRule{Kind: DenyAll}),
			),
		},
		manifest.CallRoyaltyMethod{
			Address: manifest.StaticAddress(account),
			Method:  "claim_royalties",
			Args:    manifest.NewTuple(),
		},
		depositAll(manifest.StaticAddress(account)),
	)
	require.NoError(err)
	require.Equal(some(manifest.String{V: "savings"}), decodeReturn(t, outputs[1]))
	missing := decodeReturn(t, outputs[2]).(manifest.Enum)
	require.Zero(missing.Discriminator)
	require.Empty(missing.Fields)

	_, err = execute(t, store,
		manifest.CallMetadataMethod{
			Address: manifest.StaticAddress(account),
			Method:  "set",
			Args:    manifest.NewTuple(manifest.String{V: "name"}, manifest.String{V: "spending"}),
		},
	)
	require.ErrorIs(err, ErrUnauthorized)

	value, ok, err := store.GetMetadata(account, "name")
	require.NoError(err)
	require.True(ok)
	require.Equal("savings", value)
}

func TestRecall(t *testing.T) {
	require := require.New(t)

	store := newTestStore(t)
	victim := newFundedAccount(t, store)
	other := newFundedAccount(t, store)
	vault, ok, err := store.GetAccountVault(victim, types.XRD)
	require.NoError(err)
	require.True(ok)
	require.Equal(types.EntityTypeInternalFungibleVault, types.EntityTypeOf(vault))

	_, err = execute(t, store,
		manifest.CallDirectVaultMethod{
			Vault:  vault,
			Method: "recall",
			Args:   manifest.NewTuple(decimal(types.NewDecimal(4))),
		},
		depositAll(manifest.StaticAddress(other)),
	)
	require.NoError(err)
	require.Equal(types.NewDecimal(9_996), balance(t, store, victim, types.XRD))
	require.Equal(types.NewDecimal(10_004), balance(t, store, other, types.XRD))

	_, err = execute(t, store,
		manifest.CallDirectVaultMethod{
			Vault:  other,
			Method: "recall",
			Args:   manifest.NewTuple(decimal(types.NewDecimal(4))),
		},
	)
	require.ErrorIs(err, ErrNodeNotFound)
}

func TestSignatureProofs(t *testing.T) {
	require := require.New(t)

	store := newTestStore(t)
	signer := ids.GenerateTestID()
	e, err := New(store, Config{TxID: ids.GenerateTestID(), Signers: []ids.ID{signer}})
	require.NoError(err)

	proof, err := e.AuthZone().CreateProofOfNonFungibles(types.SignatureResource, []types.NonFungibleLocalID{SignatureLocalID(signer)})
	require.NoError(err)
	kind, err := e.ObjectKind(proof)
	require.NoError(err)
	require.Equal(processor.ObjectNonFungibleProof, kind)
	require.NoError(e.DropProof(proof))

	require.NoError(e.AuthZone().ClearSignatureProofs())
	_, err = e.AuthZone().CreateProofOfAll(types.SignatureResource)
	require.ErrorIs(err, ErrEmptyProof)
	require.NoError(e.Finalize())
}

func TestUnknownCalls(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name        string
		instruction manifest.Instruction
		err         error
	}{
		{
			name: "unknown blueprint",
			instruction: manifest.CallFunction{
				Package:   manifest.StaticAddress(types.AccountPackage),
				Blueprint: "Pool",
				Function:  "instantiate",
				Args:      manifest.NewTuple(),
			},
			err: ErrUnknownBlueprint,
		},
		{
			name:        "unknown method",
			instruction: call(types.Faucet, "steal"),
			err:         ErrUnknownMethod,
		},
		{
			name:        "unknown component",
			instruction: call(types.NewAddress(types.EntityTypeGlobalAccount, ids.GenerateTestID()), "balance"),
			err:         ErrNodeNotFound,
		},
		{
			name:        "bad arguments",
			instruction: call(types.Faucet, "lock_fee", manifest.String{V: "10"}),
			err:         ErrInvalidArgs,
		},
		{
			name:        "extra arguments",
			instruction: call(types.Faucet, "free", manifest.U8{V: 1}),
			err:         ErrInvalidArgs,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := execute(t, store, test.instruction)
			require.ErrorIs(t, err, test.err)
		})
	}
}
