// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

// EntityType is stored in the first byte of every node ID and tells what kind
// of object lives behind the ID without loading it.
type EntityType byte

const (
	EntityTypeUnknown EntityType = iota
	EntityTypeGlobalPackage
	EntityTypeGlobalFungibleResource
	EntityTypeGlobalNonFungibleResource
	EntityTypeGlobalAccount
	EntityTypeGlobalGenericComponent
	EntityTypeInternalFungibleVault
	EntityTypeInternalNonFungibleVault
	EntityTypeInternalGeneric
)

func (t EntityType) String() string {
	switch t {
	case EntityTypeGlobalPackage:
		return "GlobalPackage"
	case EntityTypeGlobalFungibleResource:
		return "GlobalFungibleResource"
	case EntityTypeGlobalNonFungibleResource:
		return "GlobalNonFungibleResource"
	case EntityTypeGlobalAccount:
		return "GlobalAccount"
	case EntityTypeGlobalGenericComponent:
		return "GlobalGenericComponent"
	case EntityTypeInternalFungibleVault:
		return "InternalFungibleVault"
	case EntityTypeInternalNonFungibleVault:
		return "InternalNonFungibleVault"
	case EntityTypeInternalGeneric:
		return "InternalGeneric"
	default:
		return fmt.Sprintf("EntityType(%d)", byte(t))
	}
}

// IsGlobal returns true if entities of this type have a global address.
func (t EntityType) IsGlobal() bool {
	return t >= EntityTypeGlobalPackage && t <= EntityTypeGlobalGenericComponent
}

// EntityTypeOf returns the entity type encoded in [id].
func EntityTypeOf(id ids.ID) EntityType { return EntityType(id[0]) }

// NewAddress stamps [entityType] onto [seed].
func NewAddress(entityType EntityType, seed ids.ID) ids.ID {
	seed[0] = byte(entityType)
	return seed
}

// WellKnownAddress derives a fixed address from a human readable name.
func WellKnownAddress(entityType EntityType, name string) ids.ID {
	return NewAddress(entityType, hashing.ComputeHash256Array([]byte(name)))
}

func IsGlobal(id ids.ID) bool        { return EntityTypeOf(id).IsGlobal() }
func IsGlobalPackage(id ids.ID) bool { return EntityTypeOf(id) == EntityTypeGlobalPackage }

func IsGlobalResource(id ids.ID) bool {
	t := EntityTypeOf(id)
	return t == EntityTypeGlobalFungibleResource || t == EntityTypeGlobalNonFungibleResource
}

func IsFungibleResource(id ids.ID) bool {
	return EntityTypeOf(id) == EntityTypeGlobalFungibleResource
}

func IsInternalVault(id ids.ID) bool {
	t := EntityTypeOf(id)
	return t == EntityTypeInternalFungibleVault || t == EntityTypeInternalNonFungibleVault
}

// BlueprintID names a blueprint inside a package.
type BlueprintID struct {
	Package ids.ID `serialize:"true" json:"package"`
	Name    string `serialize:"true" json:"name"`
}

func (b BlueprintID) String() string { return fmt.Sprintf("%s:%s", b.Package, b.Name) }

// Native packages and resources created at genesis.
var (
	ResourcePackage = WellKnownAddress(EntityTypeGlobalPackage, "package:resource")
	AccountPackage  = WellKnownAddress(EntityTypeGlobalPackage, "package:account")
	FaucetPackage   = WellKnownAddress(EntityTypeGlobalPackage, "package:faucet")

	XRD               = WellKnownAddress(EntityTypeGlobalFungibleResource, "resource:xrd")
	SignatureResource = WellKnownAddress(EntityTypeGlobalNonFungibleResource, "resource:signature")

	Faucet = WellKnownAddress(EntityTypeGlobalGenericComponent, "component:faucet")
)
