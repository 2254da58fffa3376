// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package manifest

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/types"
)

// Instruction is one step of a manifest.
type Instruction interface {
	// Name is the manifest mnemonic, used in logs and metrics.
	Name() string
	Effect() Effect
}

// DynamicAddress is either a static global address or a named address
// allocated earlier in the same manifest.
type DynamicAddress struct {
	IsNamed bool         `serialize:"true"`
	Static  ids.ID       `serialize:"true"`
	Named   NamedAddress `serialize:"true"`
}

func StaticAddress(id ids.ID) DynamicAddress { return DynamicAddress{Static: id} }

func NamedAddressOf(name NamedAddress) DynamicAddress {
	return DynamicAddress{IsNamed: true, Named: name}
}

func (a DynamicAddress) String() string {
	if a.IsNamed {
		return fmt.Sprintf("NamedAddress(%d)", a.Named)
	}
	return a.Static.String()
}

// ModuleID selects the object module a method is called on.
type ModuleID uint8

const (
	ModuleMain ModuleID = iota
	ModuleMetadata
	ModuleRoyalty
	ModuleRoleAssignment
)

func (m ModuleID) String() string {
	switch m {
	case ModuleMain:
		return "main"
	case ModuleMetadata:
		return "metadata"
	case ModuleRoyalty:
		return "royalty"
	case ModuleRoleAssignment:
		return "role_assignment"
	default:
		return fmt.Sprintf("ModuleID(%d)", uint8(m))
	}
}

type InvocationKind uint8

const (
	InvokeFunction InvocationKind = iota
	InvokeMethod
	InvokeDirectMethod
)

// Invocation is the call target of an invocation instruction.
type Invocation struct {
	Kind InvocationKind

	// Set for functions.
	Package   DynamicAddress
	Blueprint string
	Function  string

	// Set for methods. Direct methods always use a static address.
	Address DynamicAddress
	Module  ModuleID
	Method  string
}

func (i Invocation) String() string {
	switch i.Kind {
	case InvokeFunction:
		return fmt.Sprintf("%s::%s::%s", i.Package, i.Blueprint, i.Function)
	case InvokeDirectMethod:
		return fmt.Sprintf("direct %s.%s", i.Address, i.Method)
	default:
		return fmt.Sprintf("%s.%s.%s", i.Address, i.Module, i.Method)
	}
}

// Worktop instructions.
type (
	TakeFromWorktop struct {
		Resource ids.ID        `serialize:"true"`
		Amount   types.Decimal `serialize:"true"`
	}
	TakeNonFungiblesFromWorktop struct {
		Resource ids.ID                     `serialize:"true"`
		IDs      []types.NonFungibleLocalID `serialize:"true"`
	}
	TakeAllFromWorktop struct {
		Resource ids.ID `serialize:"true"`
	}
	ReturnToWorktop struct {
		Bucket Bucket `serialize:"true"`
	}
	BurnResource struct {
		Bucket Bucket `serialize:"true"`
	}
	AssertWorktopContainsAny struct {
		Resource ids.ID `serialize:"true"`
	}
	AssertWorktopContains struct {
		Resource ids.ID        `serialize:"true"`
		Amount   types.Decimal `serialize:"true"`
	}
	AssertWorktopContainsNonFungibles struct {
		Resource ids.ID                     `serialize:"true"`
		IDs      []types.NonFungibleLocalID `serialize:"true"`
	}
)

// Auth zone and proof instructions.
type (
	PopFromAuthZone struct{}
	PushToAuthZone  struct {
		Proof Proof `serialize:"true"`
	}
	CreateProofFromAuthZoneOfAmount struct {
		Resource ids.ID        `serialize:"true"`
		Amount   types.Decimal `serialize:"true"`
	}
	CreateProofFromAuthZoneOfNonFungibles struct {
		Resource ids.ID                     `serialize:"true"`
		IDs      []types.NonFungibleLocalID `serialize:"true"`
	}
	CreateProofFromAuthZoneOfAll struct {
		Resource ids.ID `serialize:"true"`
	}
	CreateProofFromBucketOfAmount struct {
		Bucket Bucket        `serialize:"true"`
		Amount types.Decimal `serialize:"true"`
	}
	CreateProofFromBucketOfNonFungibles struct {
		Bucket Bucket                     `serialize:"true"`
		IDs    []types.NonFungibleLocalID `serialize:"true"`
	}
	CreateProofFromBucketOfAll struct {
		Bucket Bucket `serialize:"true"`
	}
	CloneProof struct {
		Proof Proof `serialize:"true"`
	}
	DropProof struct {
		Proof Proof `serialize:"true"`
	}
	DropNamedProofs             struct{}
	DropAuthZoneProofs          struct{}
	DropAuthZoneRegularProofs   struct{}
	DropAuthZoneSignatureProofs struct{}
	DropAllProofs               struct{}
)

// Invocation instructions.
type (
	CallFunction struct {
		Package   DynamicAddress `serialize:"true"`
		Blueprint string         `serialize:"true"`
		Function  string         `serialize:"true"`
		Args      Value          `serialize:"true"`
	}
	CallMethod struct {
		Address DynamicAddress `serialize:"true"`
		Method  string         `serialize:"true"`
		Args    Value          `serialize:"true"`
	}
	CallRoyaltyMethod struct {
		Address DynamicAddress `serialize:"true"`
		Method  string         `serialize:"true"`
		Args    Value          `serialize:"true"`
	}
	CallMetadataMethod struct {
		Address DynamicAddress `serialize:"true"`
		Method  string         `serialize:"true"`
		Args    Value          `serialize:"true"`
	}
	CallRoleAssignmentMethod struct {
		Address DynamicAddress `serialize:"true"`
		Method  string         `serialize:"true"`
		Args    Value          `serialize:"true"`
	}
	CallDirectVaultMethod struct {
		Vault  ids.ID `serialize:"true"`
		Method string `serialize:"true"`
		Args   Value  `serialize:"true"`
	}
	AllocateGlobalAddress struct {
		Package   ids.ID `serialize:"true"`
		Blueprint string `serialize:"true"`
	}
)

func (TakeFromWorktop) Name() string                       { return "TAKE_FROM_WORKTOP" }
func (TakeNonFungiblesFromWorktop) Name() string           { return "TAKE_NON_FUNGIBLES_FROM_WORKTOP" }
func (TakeAllFromWorktop) Name() string                    { return "TAKE_ALL_FROM_WORKTOP" }
func (ReturnToWorktop) Name() string                       { return "RETURN_TO_WORKTOP" }
func (BurnResource) Name() string                          { return "BURN_RESOURCE" }
func (AssertWorktopContainsAny) Name() string              { return "ASSERT_WORKTOP_CONTAINS_ANY" }
func (AssertWorktopContains) Name() string                 { return "ASSERT_WORKTOP_CONTAINS" }
func (AssertWorktopContainsNonFungibles) Name() string     { return "ASSERT_WORKTOP_CONTAINS_NON_FUNGIBLES" }
func (PopFromAuthZone) Name() string                       { return "POP_FROM_AUTH_ZONE" }
func (PushToAuthZone) Name() string                        { return "PUSH_TO_AUTH_ZONE" }
func (CreateProofFromAuthZoneOfAmount) Name() string       { return "CREATE_PROOF_FROM_AUTH_ZONE_OF_AMOUNT" }
func (CreateProofFromAuthZoneOfNonFungibles) Name() string { return "CREATE_PROOF_FROM_AUTH_ZONE_OF_NON_FUNGIBLES" }
func (CreateProofFromAuthZoneOfAll) Name() string          { return "CREATE_PROOF_FROM_AUTH_ZONE_OF_ALL" }
func (CreateProofFromBucketOfAmount) Name() string         { return "CREATE_PROOF_FROM_BUCKET_OF_AMOUNT" }
func (CreateProofFromBucketOfNonFungibles) Name() string   { return "CREATE_PROOF_FROM_BUCKET_OF_NON_FUNGIBLES" }
func (CreateProofFromBucketOfAll) Name() string            { return "CREATE_PROOF_FROM_BUCKET_OF_ALL" }
func (CloneProof) Name() string                            { return "CLONE_PROOF" }
func (DropProof) Name() string                             { return "DROP_PROOF" }
func (DropNamedProofs) Name() string                       { return "DROP_NAMED_PROOFS" }
func (DropAuthZoneProofs) Name() string                    { return "DROP_AUTH_ZONE_PROOFS" }
func (DropAuthZoneRegularProofs) Name() string             { return "DROP_AUTH_ZONE_REGULAR_PROOFS" }
func (DropAuthZoneSignatureProofs) Name() string           { return "DROP_AUTH_ZONE_SIGNATURE_PROOFS" }
func (DropAllProofs) Name() string                         { return "DROP_ALL_PROOFS" }
func (CallFunction) Name() string                          { return "CALL_FUNCTION" }
func (CallMethod) Name() string                            { return "CALL_METHOD" }
func (CallRoyaltyMethod) Name() string                     { return "CALL_ROYALTY_METHOD" }
func (CallMetadataMethod) Name() string                    { return "CALL_METADATA_METHOD" }
func (CallRoleAssignmentMethod) Name() string              { return "CALL_ROLE_ASSIGNMENT_METHOD" }
func (CallDirectVaultMethod) Name() string                 { return "CALL_DIRECT_VAULT_METHOD" }
func (AllocateGlobalAddress) Name() string                 { return "ALLOCATE_GLOBAL_ADDRESS" }

func (i TakeFromWorktop) Effect() Effect {
	return CreateBucketEffect{Source: BucketSource{Amount: ResourceAmount{
		Kind:     AmountFungible,
		Resource: i.Resource,
		Amount:   i.Amount,
	}}}
}

func (i TakeNonFungiblesFromWorktop) Effect() Effect {
	return CreateBucketEffect{Source: BucketSource{Amount: ResourceAmount{
		Kind:     AmountNonFungibles,
		Resource: i.Resource,
		IDs:      i.IDs,
	}}}
}

func (i TakeAllFromWorktop) Effect() Effect {
	return CreateBucketEffect{Source: BucketSource{Amount: ResourceAmount{
		Kind:     AmountAll,
		Resource: i.Resource,
	}}}
}

func (i ReturnToWorktop) Effect() Effect {
	return ConsumeBucketEffect{Bucket: i.Bucket, Destination: BucketToWorktop}
}

func (i BurnResource) Effect() Effect {
	return ConsumeBucketEffect{Bucket: i.Bucket, Destination: BucketBurned}
}

func (i AssertWorktopContainsAny) Effect() Effect {
	return WorktopAssertionEffect{Assertion: WorktopAssertion{
		Kind:     AssertContainsAny,
		Resource: i.Resource,
	}}
}

func (i AssertWorktopContains) Effect() Effect {
	return WorktopAssertionEffect{Assertion: WorktopAssertion{
		Kind:     AssertContainsAmount,
		Resource: i.Resource,
		Amount:   i.Amount,
	}}
}

func (i AssertWorktopContainsNonFungibles) Effect() Effect {
	return WorktopAssertionEffect{Assertion: WorktopAssertion{
		Kind:     AssertContainsNonFungibles,
		Resource: i.Resource,
		IDs:      i.IDs,
	}}
}

func (PopFromAuthZone) Effect() Effect {
	return CreateProofEffect{Source: ProofSource{Kind: ProofFromAuthZonePop}}
}

func (i PushToAuthZone) Effect() Effect {
	return ConsumeProofEffect{Proof: i.Proof, Destination: ProofToAuthZone}
}

func (i CreateProofFromAuthZoneOfAmount) Effect() Effect {
	return CreateProofEffect{Source: ProofSource{
		Kind: ProofFromAuthZone,
		Amount: ResourceAmount{
			Kind:     AmountFungible,
			Resource: i.Resource,
			Amount:   i.Amount,
		},
	}}
}

func (i CreateProofFromAuthZoneOfNonFungibles) Effect() Effect {
	return CreateProofEffect{Source: ProofSource{
		Kind: ProofFromAuthZone,
		Amount: ResourceAmount{
			Kind:     AmountNonFungibles,
			Resource: i.Resource,
			IDs:      i.IDs,
		},
	}}
}

func (i CreateProofFromAuthZoneOfAll) Effect() Effect {
	return CreateProofEffect{Source: ProofSource{
		Kind:   ProofFromAuthZone,
		Amount: ResourceAmount{Kind: AmountAll, Resource: i.Resource},
	}}
}

func (i CreateProofFromBucketOfAmount) Effect() Effect {
	return CreateProofEffect{Source: ProofSource{
		Kind:   ProofFromBucket,
		Bucket: i.Bucket,
		Amount: ResourceAmount{Kind: AmountFungible, Amount: i.Amount},
	}}
}

func (i CreateProofFromBucketOfNonFungibles) Effect() Effect {
	return CreateProofEffect{Source: ProofSource{
		Kind:   ProofFromBucket,
		Bucket: i.Bucket,
		Amount: ResourceAmount{Kind: AmountNonFungibles, IDs: i.IDs},
	}}
}

func (i CreateProofFromBucketOfAll) Effect() Effect {
	return CreateProofEffect{Source: ProofSource{
		Kind:   ProofFromBucket,
		Bucket: i.Bucket,
		Amount: ResourceAmount{Kind: AmountAll},
	}}
}

func (i CloneProof) Effect() Effect { return CloneProofEffect{Proof: i.Proof} }

func (i DropProof) Effect() Effect {
	return ConsumeProofEffect{Proof: i.Proof, Destination: ProofDropped}
}

func (DropNamedProofs) Effect() Effect {
	return DropManyProofsEffect{DropAllNamedProofs: true}
}

func (DropAuthZoneProofs) Effect() Effect {
	return DropManyProofsEffect{
		DropAllAuthZoneSignatureProofs:    true,
		DropAllAuthZoneNonSignatureProofs: true,
	}
}

func (DropAuthZoneRegularProofs) Effect() Effect {
	return DropManyProofsEffect{DropAllAuthZoneNonSignatureProofs: true}
}

func (DropAuthZoneSignatureProofs) Effect() Effect {
	return DropManyProofsEffect{DropAllAuthZoneSignatureProofs: true}
}

func (DropAllProofs) Effect() Effect {
	return DropManyProofsEffect{
		DropAllNamedProofs:                true,
		DropAllAuthZoneSignatureProofs:    true,
		DropAllAuthZoneNonSignatureProofs: true,
	}
}

func (i CallFunction) Effect() Effect {
	return InvocationEffect{
		Kind: Invocation{
			Kind:      InvokeFunction,
			Package:   i.Package,
			Blueprint: i.Blueprint,
			Function:  i.Function,
		},
		Args: i.Args,
	}
}

func methodEffect(address DynamicAddress, module ModuleID, method string, args Value) Effect {
	return InvocationEffect{
		Kind: Invocation{
			Kind:    InvokeMethod,
			Address: address,
			Module:  module,
			Method:  method,
		},
		Args: args,
	}
}

func (i CallMethod) Effect() Effect {
	return methodEffect(i.Address, ModuleMain, i.Method, i.Args)
}

func (i CallRoyaltyMethod) Effect() Effect {
	return methodEffect(i.Address, ModuleRoyalty, i.Method, i.Args)
}

func (i CallMetadataMethod) Effect() Effect {
	return methodEffect(i.Address, ModuleMetadata, i.Method, i.Args)
}

func (i CallRoleAssignmentMethod) Effect() Effect {
	return methodEffect(i.Address, ModuleRoleAssignment, i.Method, i.Args)
}

func (i CallDirectVaultMethod) Effect() Effect {
	return InvocationEffect{
		Kind: Invocation{
			Kind:    InvokeDirectMethod,
			Address: StaticAddress(i.Vault),
			Method:  i.Method,
		},
		Args: i.Args,
	}
}

func (i AllocateGlobalAddress) Effect() Effect {
	return CreateAddressAndReservationEffect{
		Package:   i.Package,
		Blueprint: i.Blueprint,
	}
}
