// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

// Genesis writes the native entities every ledger starts with: the XRD
// resource, the signature resource and the XRD faucet. Only the faucet can
// mint XRD and nobody can change that.
func Genesis(store *Store) error {
	deny := AccessRule{Kind: DenyAll}
	errs := wrappers.Errs{}
	errs.Add(
		store.PutResource(types.XRD, &ResourceRecord{
			Fungible:     true,
			Divisibility: types.DecimalPlaces,
		}),
		store.PutMetadata(types.XRD, "symbol", "XRD"),
		store.PutRole(types.XRD, manifest.ModuleMain, RoleMinter, deny),
		store.PutRole(types.XRD, manifest.ModuleRoleAssignment, RoleOwner, deny),

		store.PutResource(types.SignatureResource, &ResourceRecord{}),
		store.PutRole(types.SignatureResource, manifest.ModuleMain, RoleMinter, deny),
		store.PutRole(types.SignatureResource, manifest.ModuleMain, RoleBurner, deny),
		store.PutRole(types.SignatureResource, manifest.ModuleRoleAssignment, RoleOwner, deny),

		store.PutComponent(types.Faucet, &ComponentRecord{Blueprint: FaucetBlueprint}),
		store.PutRole(types.Faucet, manifest.ModuleRoleAssignment, RoleOwner, deny),
	)
	return errs.Err
}
