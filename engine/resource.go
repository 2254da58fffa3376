// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

// optionalReservation reads a trailing reservation argument, if present.
func optionalReservation(args *argReader) *ids.ID {
	if !args.remaining() {
		return nil
	}
	reservation := args.Own()
	return &reservation
}

// createFungibleResource takes (divisibility, initial supply, [reservation])
// and returns (address, bucket).
func createFungibleResource(e *Engine, args *argReader) (manifest.Value, error) {
	divisibility := args.U8()
	supply := args.Decimal()
	reservation := optionalReservation(args)
	if err := args.done(); err != nil {
		return nil, err
	}
	if divisibility > types.DecimalPlaces {
		return nil, fmt.Errorf("%w: divisibility %d", ErrInvalidArgs, divisibility)
	}
	if !supply.IsDivisible(divisibility) {
		return nil, fmt.Errorf("%w: %s with divisibility %d", ErrInvalidAmount, supply, divisibility)
	}

	address, err := e.globalize(FungibleResourceManager, reservation)
	if err != nil {
		return nil, err
	}
	if err := e.store.PutResource(address, &ResourceRecord{
		Fungible:     true,
		Divisibility: divisibility,
		TotalSupply:  supply,
	}); err != nil {
		return nil, err
	}
	bucket := e.heap.newBucket(content{
		resourceInfo: resourceInfo{address: address, fungible: true, divisibility: divisibility},
		amount:       supply,
	})
	return manifest.NewTuple(manifest.Address{ID: address}, manifest.Own{ID: bucket}), nil
}

// createNonFungibleResource takes (local IDs, [reservation]) and returns
// (address, bucket).
func createNonFungibleResource(e *Engine, args *argReader) (manifest.Value, error) {
	localIDs := args.LocalIDs()
	reservation := optionalReservation(args)
	if err := args.done(); err != nil {
		return nil, err
	}
	sorted := types.SortLocalIDs(localIDs)
	if len(sorted) != len(localIDs) {
		return nil, ErrDuplicateLocalID
	}

	address, err := e.globalize(NonFungibleResourceManager, reservation)
	if err != nil {
		return nil, err
	}
	if err := e.store.PutResource(address, &ResourceRecord{
		TotalSupply: countDecimal(sorted),
		LocalIDs:    sorted,
	}); err != nil {
		return nil, err
	}
	bucket := e.heap.newBucket(content{
		resourceInfo: resourceInfo{address: address},
		amount:       countDecimal(sorted),
		localIDs:     sorted,
	})
	return manifest.NewTuple(manifest.Address{ID: address}, manifest.Own{ID: bucket}), nil
}

// mint adds new units of [resource] to its supply and returns them in a
// bucket. [localIDs] is ignored for fungible resources, [amount] for
// non-fungible ones.
func (e *Engine) mint(resource ids.ID, amount types.Decimal, localIDs []types.NonFungibleLocalID) (ids.ID, error) {
	record, err := e.store.GetResource(resource)
	if err != nil {
		return ids.Empty, err
	}
	minted := content{resourceInfo: resourceInfo{
		address:      resource,
		fungible:     record.Fungible,
		divisibility: record.Divisibility,
	}}
	if record.Fungible {
		if err := minted.checkAmount(amount); err != nil {
			return ids.Empty, err
		}
		minted.amount = amount
	} else {
		minted.localIDs = types.SortLocalIDs(localIDs)
		if len(minted.localIDs) != len(localIDs) {
			return ids.Empty, ErrDuplicateLocalID
		}
		minted.amount = countDecimal(minted.localIDs)
	}

	supply := content{resourceInfo: minted.resourceInfo, amount: record.TotalSupply, localIDs: record.LocalIDs}
	if err := supply.add(&minted); err != nil {
		return ids.Empty, err
	}
	record.TotalSupply = supply.amount
	record.LocalIDs = supply.localIDs
	if err := e.store.PutResource(resource, record); err != nil {
		return ids.Empty, err
	}
	return e.heap.newBucket(minted), nil
}

func resourceMint(e *Engine, resource ids.ID, args *argReader) (manifest.Value, error) {
	var (
		amount   types.Decimal
		localIDs []types.NonFungibleLocalID
	)
	if types.IsFungibleResource(resource) {
		amount = args.Decimal()
	} else {
		localIDs = args.LocalIDs()
	}
	if err := args.done(); err != nil {
		return nil, err
	}
	bucket, err := e.mint(resource, amount, localIDs)
	if err != nil {
		return nil, err
	}
	return manifest.Own{ID: bucket}, nil
}

func resourceBurn(e *Engine, resource ids.ID, args *argReader) (manifest.Value, error) {
	bucket := args.Own()
	if err := args.done(); err != nil {
		return nil, err
	}
	b, err := e.heap.bucket(bucket)
	if err != nil {
		return nil, err
	}
	if b.address != resource {
		return nil, fmt.Errorf("%w: burning %s through %s", ErrResourceMismatch, b.address, resource)
	}
	burned, err := e.heap.consumeBucket(bucket)
	if err != nil {
		return nil, err
	}

	record, err := e.store.GetResource(resource)
	if err != nil {
		return nil, err
	}
	supply, err := record.TotalSupply.CheckedSub(burned.amount)
	if err != nil {
		return nil, err
	}
	record.TotalSupply = supply
	if !record.Fungible {
		record.LocalIDs, _ = types.RemoveLocalIDs(record.LocalIDs, burned.localIDs)
	}
	if err := e.store.PutResource(resource, record); err != nil {
		return nil, err
	}
	return manifest.NewTuple(), nil
}

func resourceTotalSupply(e *Engine, resource ids.ID, args *argReader) (manifest.Value, error) {
	if err := args.done(); err != nil {
		return nil, err
	}
	record, err := e.store.GetResource(resource)
	if err != nil {
		return nil, err
	}
	return manifest.NewDecimal(record.TotalSupply), nil
}
