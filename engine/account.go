// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

// vault loads the vault [owner] keeps [resource] in. With [create] set, a
// missing vault is created empty.
func (e *Engine) vault(owner, resource ids.ID, create bool) (ids.ID, *content, error) {
	vaultID, ok, err := e.store.GetAccountVault(owner, resource)
	if err != nil {
		return ids.Empty, nil, err
	}
	if ok {
		c, err := e.vaultContent(vaultID)
		return vaultID, c, err
	}

	info, err := e.resourceInfo(resource)
	if err != nil {
		return ids.Empty, nil, err
	}
	if !create {
		return ids.Empty, &content{resourceInfo: info}, nil
	}
	entityType := types.EntityTypeInternalNonFungibleVault
	if info.fungible {
		entityType = types.EntityTypeInternalFungibleVault
	}
	vaultID = e.heap.newNodeID(entityType)
	if err := e.store.PutAccountVault(owner, resource, vaultID); err != nil {
		return ids.Empty, nil, err
	}
	if err := e.store.PutVault(vaultID, &VaultRecord{Owner: owner, Resource: resource}); err != nil {
		return ids.Empty, nil, err
	}
	return vaultID, &content{resourceInfo: info}, nil
}

func (e *Engine) vaultContent(vaultID ids.ID) (*content, error) {
	record, err := e.store.GetVault(vaultID)
	if err != nil {
		return nil, err
	}
	info, err := e.resourceInfo(record.Resource)
	if err != nil {
		return nil, err
	}
	return &content{
		resourceInfo: info,
		amount:       record.Amount,
		localIDs:     record.LocalIDs,
	}, nil
}

func (e *Engine) putVaultContent(vaultID ids.ID, c *content) error {
	record, err := e.store.GetVault(vaultID)
	if err != nil {
		return err
	}
	record.Amount = c.amount
	record.LocalIDs = c.localIDs
	return e.store.PutVault(vaultID, record)
}

// deposit consumes [bucket] into the vault of [owner].
func (e *Engine) deposit(owner, bucket ids.ID) error {
	b, err := e.heap.bucket(bucket)
	if err != nil {
		return err
	}
	vaultID, vault, err := e.vault(owner, b.address, true)
	if err != nil {
		return err
	}
	deposited, err := e.heap.consumeBucket(bucket)
	if err != nil {
		return err
	}
	if err := vault.add(deposited); err != nil {
		return err
	}
	return e.putVaultContent(vaultID, vault)
}

// withdraw moves part of the liquid content of [vaultID] into a new bucket.
// A non-nil [mode] rounds [amount] to the resource divisibility first.
func (e *Engine) withdraw(vaultID ids.ID, amount *types.Decimal, localIDs []types.NonFungibleLocalID, mode *types.RoundingMode) (ids.ID, error) {
	vault, err := e.vaultContent(vaultID)
	if err != nil {
		return ids.Empty, err
	}
	var taken content
	switch {
	case amount != nil && mode != nil:
		taken, err = e.heap.takeAdvanced(vaultID, vault, *amount, *mode)
	case amount != nil:
		taken, err = e.heap.takeAmount(vaultID, vault, *amount)
	}
	if err != nil {
		return ids.Empty, err
	}
	if amount == nil {
		liquid := e.heap.locks.liquid(vaultID, vault)
		if vault.fungible {
			return ids.Empty, fmt.Errorf("%w: non-fungibles of %s", ErrWrongResourceType, vault.address)
		}
		if !types.ContainsLocalIDs(liquid.localIDs, localIDs) {
			return ids.Empty, fmt.Errorf("%w: %v of %s", ErrInsufficientBalance, localIDs, vault.address)
		}
		vault.localIDs, _ = types.RemoveLocalIDs(vault.localIDs, localIDs)
		vault.amount = countDecimal(vault.localIDs)
		taken = content{resourceInfo: vault.resourceInfo, localIDs: types.SortLocalIDs(localIDs)}
		taken.amount = countDecimal(taken.localIDs)
	}
	if err := e.putVaultContent(vaultID, vault); err != nil {
		return ids.Empty, err
	}
	return e.heap.newBucket(taken), nil
}

// accountVault returns the existing vault of [resource] in [account].
func (e *Engine) accountVault(account, resource ids.ID) (ids.ID, error) {
	vaultID, ok, err := e.store.GetAccountVault(account, resource)
	if err != nil {
		return ids.Empty, err
	}
	if !ok {
		return ids.Empty, fmt.Errorf("%w: %s holds no %s", ErrInsufficientBalance, account, resource)
	}
	return vaultID, nil
}

func (e *Engine) createAccount(reservation *ids.ID, args *argReader) (manifest.Value, error) {
	var badge *ids.ID
	if args.remaining() {
		resource := args.Address()
		badge = &resource
	}
	if err := args.done(); err != nil {
		return nil, err
	}
	account, err := e.globalize(AccountBlueprint, reservation)
	if err != nil {
		return nil, err
	}
	if err := e.store.PutComponent(account, &ComponentRecord{Blueprint: AccountBlueprint}); err != nil {
		return nil, err
	}
	if badge != nil {
		owner := AccessRule{Kind: RequireResource, Resource: *badge}
		for _, module := range []manifest.ModuleID{manifest.ModuleMain, manifest.ModuleRoleAssignment} {
			if err := e.store.PutRole(account, module, RoleOwner, owner); err != nil {
				return nil, err
			}
		}
	}
	e.log.Debug("created account",
		"address", account,
	)
	return manifest.NewTuple(manifest.Address{ID: account}), nil
}

// accountCreate takes an optional owner badge resource.
func accountCreate(e *Engine, args *argReader) (manifest.Value, error) {
	return e.createAccount(nil, args)
}

// accountCreateAdvanced takes a reservation and an optional owner badge
// resource.
func accountCreateAdvanced(e *Engine, args *argReader) (manifest.Value, error) {
	reservation := args.Own()
	if args.Errored() {
		return nil, args.Err
	}
	return e.createAccount(&reservation, args)
}

func accountDeposit(e *Engine, account ids.ID, args *argReader) (manifest.Value, error) {
	bucket := args.Own()
	if err := args.done(); err != nil {
		return nil, err
	}
	if err := e.deposit(account, bucket); err != nil {
		return nil, err
	}
	return manifest.NewTuple(), nil
}

func accountDepositBatch(e *Engine, account ids.ID, args *argReader) (manifest.Value, error) {
	buckets := args.OwnArray()
	if err := args.done(); err != nil {
		return nil, err
	}
	for _, bucket := range buckets {
		if err := e.deposit(account, bucket); err != nil {
			return nil, err
		}
	}
	return manifest.NewTuple(), nil
}

// accountWithdraw takes (resource, amount, [rounding mode]).
func accountWithdraw(e *Engine, account ids.ID, args *argReader) (manifest.Value, error) {
	resource := args.Address()
	amount := args.Decimal()
	var mode *types.RoundingMode
	if args.remaining() {
		m := types.RoundingMode(args.U8())
		mode = &m
	}
	if err := args.done(); err != nil {
		return nil, err
	}
	vaultID, err := e.accountVault(account, resource)
	if err != nil {
		return nil, err
	}
	bucket, err := e.withdraw(vaultID, &amount, nil, mode)
	if err != nil {
		return nil, err
	}
	return manifest.Own{ID: bucket}, nil
}

func accountWithdrawNonFungibles(e *Engine, account ids.ID, args *argReader) (manifest.Value, error) {
	resource := args.Address()
	localIDs := args.LocalIDs()
	if err := args.done(); err != nil {
		return nil, err
	}
	vaultID, err := e.accountVault(account, resource)
	if err != nil {
		return nil, err
	}
	bucket, err := e.withdraw(vaultID, nil, localIDs, nil)
	if err != nil {
		return nil, err
	}
	return manifest.Own{ID: bucket}, nil
}

// accountLockFeeAndWithdraw takes (fee, resource, amount).
func accountLockFeeAndWithdraw(e *Engine, account ids.ID, args *argReader) (manifest.Value, error) {
	args.Decimal()
	return accountWithdraw(e, account, args)
}

func accountCreateProofOfAmount(e *Engine, account ids.ID, args *argReader) (manifest.Value, error) {
	resource := args.Address()
	amount := args.Decimal()
	if err := args.done(); err != nil {
		return nil, err
	}
	vaultID, err := e.accountVault(account, resource)
	if err != nil {
		return nil, err
	}
	vault, err := e.vaultContent(vaultID)
	if err != nil {
		return nil, err
	}
	proof, err := e.heap.proofOfContainer(vaultID, vault, &amount, nil)
	if err != nil {
		return nil, err
	}
	return manifest.Own{ID: proof}, nil
}

func accountCreateProofOfNonFungibles(e *Engine, account ids.ID, args *argReader) (manifest.Value, error) {
	resource := args.Address()
	localIDs := args.LocalIDs()
	if err := args.done(); err != nil {
		return nil, err
	}
	vaultID, err := e.accountVault(account, resource)
	if err != nil {
		return nil, err
	}
	vault, err := e.vaultContent(vaultID)
	if err != nil {
		return nil, err
	}
	proof, err := e.heap.proofOfContainer(vaultID, vault, nil, localIDs)
	if err != nil {
		return nil, err
	}
	return manifest.Own{ID: proof}, nil
}

func accountBalance(e *Engine, account ids.ID, args *argReader) (manifest.Value, error) {
	resource := args.Address()
	if err := args.done(); err != nil {
		return nil, err
	}
	_, vault, err := e.vault(account, resource, false)
	if err != nil {
		return nil, err
	}
	return manifest.NewDecimal(vault.amount), nil
}

// vaultRecall takes (amount) and pulls it out of the vault regardless of its
// owner.
func vaultRecall(e *Engine, vaultID ids.ID, args *argReader) (manifest.Value, error) {
	amount := args.Decimal()
	if err := args.done(); err != nil {
		return nil, err
	}
	bucket, err := e.withdraw(vaultID, &amount, nil, nil)
	if err != nil {
		return nil, err
	}
	return manifest.Own{ID: bucket}, nil
}

func vaultRecallNonFungibles(e *Engine, vaultID ids.ID, args *argReader) (manifest.Value, error) {
	localIDs := args.LocalIDs()
	if err := args.done(); err != nil {
		return nil, err
	}
	bucket, err := e.withdraw(vaultID, nil, localIDs, nil)
	if err != nil {
		return nil, err
	}
	return manifest.Own{ID: bucket}, nil
}
