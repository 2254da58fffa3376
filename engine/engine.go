// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine is a reference system API: it owns the transient nodes of a
// transaction and runs a small set of native blueprints over a substate
// store.
package engine

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/processor"
	"github.com/ava-labs/txprocessor/types"
)

var _ processor.SystemAPI = (*Engine)(nil)

type Config struct {
	// TxID seeds the IDs of every node created by the transaction.
	TxID ids.ID
	// Signers get a virtual signature proof each in the auth zone.
	Signers []ids.ID
	Logger  log.Logger
}

// Engine executes one transaction. It is not safe for concurrent use.
type Engine struct {
	store    *Store
	heap     *heap
	worktop  *worktop
	authZone *authZone
	log      log.Logger
}

// SignatureLocalID is the ID of the signature proof of [signer].
func SignatureLocalID(signer ids.ID) types.NonFungibleLocalID {
	return types.NonFungibleLocalID(fmt.Sprintf("[%x]", signer[:]))
}

func New(store *Store, config Config) (*Engine, error) {
	if config.Logger == nil {
		config.Logger = log.New("module", "engine")
	}
	e := &Engine{
		store: store,
		heap:  newHeap(config.TxID),
		log:   config.Logger,
	}
	e.authZone = &authZone{e: e}

	info, err := e.resourceInfo(types.SignatureResource)
	if err != nil {
		return nil, fmt.Errorf("failed to load signature resource: %w", err)
	}
	for _, signer := range config.Signers {
		localIDs := []types.NonFungibleLocalID{SignatureLocalID(signer)}
		proof, err := e.heap.newProof(content{
			resourceInfo: info,
			amount:       countDecimal(localIDs),
			localIDs:     localIDs,
		}, nil)
		if err != nil {
			return nil, err
		}
		e.heap.proofs[proof].signature = true
		e.authZone.signatures = append(e.authZone.signatures, proof)
	}
	return e, nil
}

func (e *Engine) resourceInfo(resource ids.ID) (resourceInfo, error) {
	record, err := e.store.GetResource(resource)
	if err != nil {
		return resourceInfo{}, err
	}
	return resourceInfo{
		address:      resource,
		fungible:     record.Fungible,
		divisibility: record.Divisibility,
	}, nil
}

func (e *Engine) newEmptyBucket(resource ids.ID) (ids.ID, error) {
	info, err := e.resourceInfo(resource)
	if err != nil {
		return ids.Empty, err
	}
	return e.heap.newBucket(content{resourceInfo: info}), nil
}

func (e *Engine) NewWorktop() (processor.Worktop, error) {
	if e.worktop != nil {
		return nil, ErrWorktopAlreadyCreated
	}
	e.worktop = newWorktop(e)
	return e.worktop, nil
}

func (e *Engine) AuthZone() processor.AuthZone { return e.authZone }

// Preallocate creates a reservation for an address chosen before the
// transaction ran. The address must be unused and of the entity type
// [blueprint] creates.
func (e *Engine) Preallocate(blueprint types.BlueprintID, address ids.ID) (processor.GlobalAddressReservation, error) {
	if want := entityTypeOf(blueprint); types.EntityTypeOf(address) != want {
		return processor.GlobalAddressReservation{}, fmt.Errorf("%w: %s is not a %s address", ErrReservationMismatch, address, want)
	}
	used, err := e.store.IsGlobalEntity(address)
	if err != nil {
		return processor.GlobalAddressReservation{}, err
	}
	if used {
		return processor.GlobalAddressReservation{}, fmt.Errorf("%w: %s", ErrAddressInUse, address)
	}
	return processor.GlobalAddressReservation{
		Reservation: e.heap.newReservation(blueprint, address, true),
		Address:     address,
	}, nil
}

func (e *Engine) AllocateGlobalAddress(blueprint types.BlueprintID) (ids.ID, ids.ID, error) {
	address := e.heap.newNodeID(entityTypeOf(blueprint))
	return e.heap.newReservation(blueprint, address, false), address, nil
}

// globalize returns the address a new global entity of [blueprint] gets:
// the reserved one if [reservation] is set, a fresh one otherwise.
func (e *Engine) globalize(blueprint types.BlueprintID, reservation *ids.ID) (ids.ID, error) {
	if reservation != nil {
		return e.heap.consumeReservation(*reservation, blueprint)
	}
	return e.heap.newNodeID(entityTypeOf(blueprint)), nil
}

func (e *Engine) call(args []byte, fn func(*argReader) (manifest.Value, error)) ([]byte, error) {
	value, err := manifest.DecodeValue(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	rtn, err := fn(newArgReader(value))
	if err != nil {
		return nil, err
	}
	return manifest.EncodeValue(rtn)
}

func (e *Engine) CallFunction(pkg ids.ID, blueprint string, function string, args []byte) ([]byte, error) {
	id := types.BlueprintID{Package: pkg, Name: blueprint}
	bp, ok := nativeBlueprints[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlueprint, id)
	}
	fn, ok := bp.functions[function]
	if !ok {
		return nil, fmt.Errorf("%w: %s::%s", ErrUnknownFunction, blueprint, function)
	}
	e.log.Debug("calling native function",
		"blueprint", id,
		"function", function,
	)
	return e.call(args, func(r *argReader) (manifest.Value, error) {
		return fn(e, r)
	})
}

// blueprintOf returns the blueprint of the global entity at [address].
func (e *Engine) blueprintOf(address ids.ID) (types.BlueprintID, error) {
	if types.IsGlobalResource(address) {
		record, err := e.store.GetResource(address)
		if err != nil {
			return types.BlueprintID{}, err
		}
		if record.Fungible {
			return FungibleResourceManager, nil
		}
		return NonFungibleResourceManager, nil
	}
	record, err := e.store.GetComponent(address)
	if err != nil {
		return types.BlueprintID{}, err
	}
	return record.Blueprint, nil
}

func (e *Engine) CallMethod(receiver ids.ID, module manifest.ModuleID, method string, args []byte) ([]byte, error) {
	var entry methodEntry
	if module == manifest.ModuleMain {
		blueprint, err := e.blueprintOf(receiver)
		if err != nil {
			return nil, err
		}
		bp, ok := nativeBlueprints[blueprint]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBlueprint, blueprint)
		}
		if entry, ok = bp.methods[method]; !ok {
			return nil, fmt.Errorf("%w: %s on %s", ErrUnknownMethod, method, blueprint)
		}
	} else {
		exists, err := e.store.IsGlobalEntity(receiver)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, receiver)
		}
		var ok bool
		if entry, ok = moduleMethods[module][method]; !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, module, method)
		}
	}
	if err := e.authorize(receiver, module, entry.role); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", module, method, err)
	}
	e.log.Debug("calling native method",
		"receiver", receiver,
		"module", module,
		"method", method,
	)
	return e.call(args, func(r *argReader) (manifest.Value, error) {
		return entry.fn(e, receiver, r)
	})
}

func (e *Engine) CallDirectMethod(receiver ids.ID, method string, args []byte) ([]byte, error) {
	if !types.IsInternalVault(receiver) {
		return nil, fmt.Errorf("%w: vault %s", ErrNodeNotFound, receiver)
	}
	vault, err := e.store.GetVault(receiver)
	if err != nil {
		return nil, err
	}
	entry, ok := vaultMethods[method]
	if !ok {
		return nil, fmt.Errorf("%w: vault %s", ErrUnknownMethod, method)
	}
	if err := e.authorize(vault.Resource, manifest.ModuleMain, entry.role); err != nil {
		return nil, fmt.Errorf("vault %s: %w", method, err)
	}
	return e.call(args, func(r *argReader) (manifest.Value, error) {
		return entry.fn(e, receiver, r)
	})
}

// authorize checks the rule of [role] on [entity] against the auth zone. An
// empty role or an unset rule allows everyone.
func (e *Engine) authorize(entity ids.ID, module manifest.ModuleID, role string) error {
	if role == "" {
		return nil
	}
	rule, err := e.store.GetRole(entity, module, role)
	if err != nil {
		return err
	}
	if rule == nil {
		return nil
	}
	switch rule.Kind {
	case AllowAll:
		return nil
	case RequireResource:
		if e.authZone.satisfies(rule.Resource) {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s requires %s", ErrUnauthorized, role, rule)
}

func (e *Engine) BucketResource(bucket ids.ID) (ids.ID, error) {
	b, err := e.heap.bucket(bucket)
	if err != nil {
		return ids.Empty, err
	}
	return b.address, nil
}

func (e *Engine) CreateProofFromBucketOfAmount(bucket ids.ID, amount types.Decimal) (ids.ID, error) {
	return e.heap.proofFromBucket(bucket, &amount, nil)
}

func (e *Engine) CreateProofFromBucketOfNonFungibles(bucket ids.ID, localIDs []types.NonFungibleLocalID) (ids.ID, error) {
	if localIDs == nil {
		localIDs = []types.NonFungibleLocalID{}
	}
	return e.heap.proofFromBucket(bucket, nil, localIDs)
}

func (e *Engine) CreateProofFromBucketOfAll(bucket ids.ID) (ids.ID, error) {
	return e.heap.proofFromBucket(bucket, nil, nil)
}

func (e *Engine) CloneProof(proof ids.ID) (ids.ID, error) {
	return e.heap.cloneProof(proof)
}

func (e *Engine) DropProof(proof ids.ID) error {
	return e.heap.dropProof(proof)
}

func (e *Engine) ObjectKind(node ids.ID) (processor.ObjectKind, error) {
	if b, ok := e.heap.buckets[node]; ok {
		if b.fungible {
			return processor.ObjectFungibleBucket, nil
		}
		return processor.ObjectNonFungibleBucket, nil
	}
	if p, ok := e.heap.proofs[node]; ok {
		if p.fungible {
			return processor.ObjectFungibleProof, nil
		}
		return processor.ObjectNonFungibleProof, nil
	}
	return processor.ObjectOther, nil
}

// Finalize ends the transaction: every proof is dropped, and it fails if a
// non-empty bucket or an allocated address reservation is left. The caller
// must discard the store changes when it fails.
func (e *Engine) Finalize() error {
	if err := e.authZone.Clear(); err != nil {
		return err
	}
	for id := range e.heap.proofs {
		if err := e.heap.dropProof(id); err != nil {
			return err
		}
	}
	for _, id := range e.heap.nodes {
		if b, ok := e.heap.buckets[id]; ok && !b.isEmpty() {
			return fmt.Errorf("%w: %s holding %s of %s", ErrLeakedBucket, id, b.amount, b.address)
		}
	}
	for _, id := range e.heap.nodes {
		if r, ok := e.heap.reservations[id]; ok && !r.preallocated {
			return fmt.Errorf("%w: %s for %s", ErrUnusedReservation, id, r.blueprint)
		}
	}
	return nil
}
