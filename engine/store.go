// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

var (
	// Substate partitions. Each kind of record lives under its own prefix.
	resourcesPrefix     = []byte("resources")
	vaultsPrefix        = []byte("vaults")
	accountVaultsPrefix = []byte("account_vaults")
	componentsPrefix    = []byte("components")
	metadataPrefix      = []byte("metadata")
	rolesPrefix         = []byte("roles")

	errWrongVersion = errors.New("wrong substate version")
)

// ResourceRecord is the state of a resource manager.
type ResourceRecord struct {
	Fungible     bool          `serialize:"true" json:"fungible"`
	Divisibility uint8         `serialize:"true" json:"divisibility"`
	TotalSupply  types.Decimal `serialize:"true" json:"totalSupply"`
	// LocalIDs are the live non-fungible IDs, sorted.
	LocalIDs []types.NonFungibleLocalID `serialize:"true" json:"localIDs"`
}

// VaultRecord is the content of a vault owned by a component.
type VaultRecord struct {
	Owner    ids.ID                     `serialize:"true" json:"owner"`
	Resource ids.ID                     `serialize:"true" json:"resource"`
	Amount   types.Decimal              `serialize:"true" json:"amount"`
	LocalIDs []types.NonFungibleLocalID `serialize:"true" json:"localIDs"`
}

type ComponentRecord struct {
	Blueprint types.BlueprintID `serialize:"true" json:"blueprint"`
}

type RuleKind uint8

const (
	AllowAll RuleKind = iota
	DenyAll
	RequireResource
)

// AccessRule guards a role of an entity. RequireResource is satisfied by any
// non-empty proof of Resource in the auth zone.
type AccessRule struct {
	Kind     RuleKind `serialize:"true" json:"kind"`
	Resource ids.ID   `serialize:"true" json:"resource"`
}

func (r AccessRule) String() string {
	switch r.Kind {
	case AllowAll:
		return "allow_all"
	case DenyAll:
		return "deny_all"
	case RequireResource:
		return fmt.Sprintf("require(%s)", r.Resource)
	default:
		return fmt.Sprintf("RuleKind(%d)", r.Kind)
	}
}

// Store is the substate store of one transaction. It never commits: the
// caller owns the database and decides whether to commit or abort it.
type Store struct {
	resources     database.Database
	vaults        database.Database
	accountVaults database.Database
	components    database.Database
	metadata      database.Database
	roles         database.Database
}

// NewStore partitions [db] with nested prefixes, so the layout does not
// depend on whether [db] is itself a prefixdb.
func NewStore(db database.Database) *Store {
	return &Store{
		resources:     prefixdb.NewNested(resourcesPrefix, db),
		vaults:        prefixdb.NewNested(vaultsPrefix, db),
		accountVaults: prefixdb.NewNested(accountVaultsPrefix, db),
		components:    prefixdb.NewNested(componentsPrefix, db),
		metadata:      prefixdb.NewNested(metadataPrefix, db),
		roles:         prefixdb.NewNested(rolesPrefix, db),
	}
}

func get(db database.Database, key []byte, dest interface{}) error {
	b, err := db.Get(key)
	if err != nil {
		return err
	}
	version, err := Codec.Unmarshal(b, dest)
	if err != nil {
		return err
	}
	if version != CodecVersion {
		return errWrongVersion
	}
	return nil
}

func put(db database.Database, key []byte, record interface{}) error {
	b, err := Codec.Marshal(CodecVersion, record)
	if err != nil {
		return err
	}
	return db.Put(key, b)
}

func (s *Store) GetResource(resource ids.ID) (*ResourceRecord, error) {
	record := &ResourceRecord{}
	if err := get(s.resources, resource[:], record); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: resource %s", ErrNodeNotFound, resource)
		}
		return nil, err
	}
	return record, nil
}

func (s *Store) PutResource(resource ids.ID, record *ResourceRecord) error {
	return put(s.resources, resource[:], record)
}

func (s *Store) GetVault(vault ids.ID) (*VaultRecord, error) {
	record := &VaultRecord{}
	if err := get(s.vaults, vault[:], record); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: vault %s", ErrNodeNotFound, vault)
		}
		return nil, err
	}
	return record, nil
}

func (s *Store) PutVault(vault ids.ID, record *VaultRecord) error {
	return put(s.vaults, vault[:], record)
}

func pairKey(a, b ids.ID) []byte {
	key := make([]byte, 0, 2*len(a))
	key = append(key, a[:]...)
	return append(key, b[:]...)
}

// GetAccountVault returns the vault [account] keeps [resource] in, if any.
func (s *Store) GetAccountVault(account, resource ids.ID) (ids.ID, bool, error) {
	b, err := s.accountVaults.Get(pairKey(account, resource))
	switch {
	case errors.Is(err, database.ErrNotFound):
		return ids.Empty, false, nil
	case err != nil:
		return ids.Empty, false, err
	}
	vault, err := ids.ToID(b)
	return vault, err == nil, err
}

func (s *Store) PutAccountVault(account, resource, vault ids.ID) error {
	return s.accountVaults.Put(pairKey(account, resource), vault[:])
}

func (s *Store) GetComponent(component ids.ID) (*ComponentRecord, error) {
	record := &ComponentRecord{}
	if err := get(s.components, component[:], record); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: component %s", ErrNodeNotFound, component)
		}
		return nil, err
	}
	return record, nil
}

func (s *Store) PutComponent(component ids.ID, record *ComponentRecord) error {
	return put(s.components, component[:], record)
}

// IsGlobalEntity returns true if [address] is a resource or a component.
func (s *Store) IsGlobalEntity(address ids.ID) (bool, error) {
	if ok, err := s.resources.Has(address[:]); ok || err != nil {
		return ok, err
	}
	return s.components.Has(address[:])
}

func metadataKey(entity ids.ID, key string) []byte {
	return append(entity[:len(entity):len(entity)], key...)
}

func (s *Store) GetMetadata(entity ids.ID, key string) (string, bool, error) {
	b, err := s.metadata.Get(metadataKey(entity, key))
	switch {
	case errors.Is(err, database.ErrNotFound):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return string(b), true, nil
}

func (s *Store) PutMetadata(entity ids.ID, key, value string) error {
	return s.metadata.Put(metadataKey(entity, key), []byte(value))
}

func (s *Store) DeleteMetadata(entity ids.ID, key string) error {
	return s.metadata.Delete(metadataKey(entity, key))
}

func roleKey(entity ids.ID, module manifest.ModuleID, role string) []byte {
	key := append(entity[:len(entity):len(entity)], byte(module))
	return append(key, role...)
}

// GetRole returns the rule guarding [role], or nil if the role is unset.
func (s *Store) GetRole(entity ids.ID, module manifest.ModuleID, role string) (*AccessRule, error) {
	rule := &AccessRule{}
	err := get(s.roles, roleKey(entity, module, role), rule)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return rule, nil
}

func (s *Store) PutRole(entity ids.ID, module manifest.ModuleID, role string, rule AccessRule) error {
	return put(s.roles, roleKey(entity, module, role), &rule)
}
