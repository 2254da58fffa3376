// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

// Native blueprints.
var (
	FungibleResourceManager    = types.BlueprintID{Package: types.ResourcePackage, Name: "FungibleResourceManager"}
	NonFungibleResourceManager = types.BlueprintID{Package: types.ResourcePackage, Name: "NonFungibleResourceManager"}
	AccountBlueprint           = types.BlueprintID{Package: types.AccountPackage, Name: "Account"}
	FaucetBlueprint            = types.BlueprintID{Package: types.FaucetPackage, Name: "Faucet"}
)

// Roles guarding native methods.
const (
	RoleOwner          = "owner"
	RoleMinter         = "minter"
	RoleBurner         = "burner"
	RoleRecaller       = "recaller"
	RoleMetadataSetter = "metadata_setter"
	RoleRoyaltyClaimer = "royalty_claimer"
)

type (
	nativeFunction func(e *Engine, args *argReader) (manifest.Value, error)
	nativeMethod   func(e *Engine, receiver ids.ID, args *argReader) (manifest.Value, error)
)

type methodEntry struct {
	// role guards the method. Empty means public.
	role string
	fn   nativeMethod
}

type nativeBlueprint struct {
	functions map[string]nativeFunction
	methods   map[string]methodEntry
}

var (
	nativeBlueprints map[types.BlueprintID]nativeBlueprint
	moduleMethods    map[manifest.ModuleID]map[string]methodEntry
	vaultMethods     map[string]methodEntry
)

func init() {
	resourceMethods := map[string]methodEntry{
		"mint":             {role: RoleMinter, fn: resourceMint},
		"burn":             {role: RoleBurner, fn: resourceBurn},
		"get_total_supply": {fn: resourceTotalSupply},
	}
	nativeBlueprints = map[types.BlueprintID]nativeBlueprint{
		FungibleResourceManager: {
			functions: map[string]nativeFunction{
				"create_with_initial_supply": createFungibleResource,
			},
			methods: resourceMethods,
		},
		NonFungibleResourceManager: {
			functions: map[string]nativeFunction{
				"create_with_initial_supply": createNonFungibleResource,
			},
			methods: resourceMethods,
		},
		AccountBlueprint: {
			functions: map[string]nativeFunction{
				"create":          accountCreate,
				"create_advanced": accountCreateAdvanced,
			},
			methods: map[string]methodEntry{
				"deposit":                       {fn: accountDeposit},
				"try_deposit_or_abort":          {fn: accountDeposit},
				"deposit_batch":                 {fn: accountDepositBatch},
				"try_deposit_batch_or_abort":    {fn: accountDepositBatch},
				"withdraw":                      {role: RoleOwner, fn: accountWithdraw},
				"withdraw_non_fungibles":        {role: RoleOwner, fn: accountWithdrawNonFungibles},
				"lock_fee":                      {role: RoleOwner, fn: lockFee},
				"lock_fee_and_withdraw":         {role: RoleOwner, fn: accountLockFeeAndWithdraw},
				"create_proof_of_amount":        {role: RoleOwner, fn: accountCreateProofOfAmount},
				"create_proof_of_non_fungibles": {role: RoleOwner, fn: accountCreateProofOfNonFungibles},
				"balance":                       {fn: accountBalance},
			},
		},
		FaucetBlueprint: {
			methods: map[string]methodEntry{
				"free":     {fn: faucetFree},
				"lock_fee": {fn: lockFee},
			},
		},
	}

	moduleMethods = map[manifest.ModuleID]map[string]methodEntry{
		manifest.ModuleMetadata: {
			"set":    {role: RoleMetadataSetter, fn: metadataSet},
			"get":    {fn: metadataGet},
			"remove": {role: RoleMetadataSetter, fn: metadataRemove},
		},
		manifest.ModuleRoyalty: {
			"claim_royalties": {role: RoleRoyaltyClaimer, fn: royaltyClaim},
		},
		manifest.ModuleRoleAssignment: {
			"set": {role: RoleOwner, fn: roleSet},
			"get": {fn: roleGet},
		},
	}

	vaultMethods = map[string]methodEntry{
		"recall":               {role: RoleRecaller, fn: vaultRecall},
		"recall_non_fungibles": {role: RoleRecaller, fn: vaultRecallNonFungibles},
	}
}

func entityTypeOf(blueprint types.BlueprintID) types.EntityType {
	switch blueprint {
	case FungibleResourceManager:
		return types.EntityTypeGlobalFungibleResource
	case NonFungibleResourceManager:
		return types.EntityTypeGlobalNonFungibleResource
	case AccountBlueprint:
		return types.EntityTypeGlobalAccount
	default:
		return types.EntityTypeGlobalGenericComponent
	}
}

// lockFee accepts any fee: costing is not metered.
func lockFee(_ *Engine, _ ids.ID, args *argReader) (manifest.Value, error) {
	args.Decimal()
	if err := args.done(); err != nil {
		return nil, err
	}
	return manifest.NewTuple(), nil
}
