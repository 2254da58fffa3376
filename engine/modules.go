// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

// FaucetAmount is what a single call to the faucet hands out.
var FaucetAmount = types.NewDecimal(10_000)

func faucetFree(e *Engine, _ ids.ID, args *argReader) (manifest.Value, error) {
	if err := args.done(); err != nil {
		return nil, err
	}
	bucket, err := e.mint(types.XRD, FaucetAmount, nil)
	if err != nil {
		return nil, err
	}
	return manifest.Own{ID: bucket}, nil
}

func metadataSet(e *Engine, entity ids.ID, args *argReader) (manifest.Value, error) {
	key := args.String()
	value := args.String()
	if err := args.done(); err != nil {
		return nil, err
	}
	if err := e.store.PutMetadata(entity, key, value); err != nil {
		return nil, err
	}
	return manifest.NewTuple(), nil
}

func metadataGet(e *Engine, entity ids.ID, args *argReader) (manifest.Value, error) {
	key := args.String()
	if err := args.done(); err != nil {
		return nil, err
	}
	value, ok, err := e.store.GetMetadata(entity, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return none(), nil
	}
	return some(manifest.String{V: value}), nil
}

func metadataRemove(e *Engine, entity ids.ID, args *argReader) (manifest.Value, error) {
	key := args.String()
	if err := args.done(); err != nil {
		return nil, err
	}
	if err := e.store.DeleteMetadata(entity, key); err != nil {
		return nil, err
	}
	return manifest.NewTuple(), nil
}

// royaltyClaim returns the royalties accrued by [entity], in XRD. Royalties
// are never charged here, so the bucket is always empty.
func royaltyClaim(e *Engine, _ ids.ID, args *argReader) (manifest.Value, error) {
	if err := args.done(); err != nil {
		return nil, err
	}
	bucket, err := e.newEmptyBucket(types.XRD)
	if err != nil {
		return nil, err
	}
	return manifest.Own{ID: bucket}, nil
}

func roleModule(args *argReader) manifest.ModuleID {
	module := manifest.ModuleID(args.U8())
	if !args.Errored() && module > manifest.ModuleRoleAssignment {
		args.Err = fmt.Errorf("%w: module %d", ErrInvalidArgs, module)
	}
	return module
}

// roleSet takes (module, role, rule).
func roleSet(e *Engine, entity ids.ID, args *argReader) (manifest.Value, error) {
	module := roleModule(args)
	role := args.String()
	rule := args.Rule()
	if err := args.done(); err != nil {
		return nil, err
	}
	if err := e.store.PutRole(entity, module, role, rule); err != nil {
		return nil, err
	}
	e.log.Debug("role assigned",
		"entity", entity,
		"module", module,
		"role", role,
		"rule", rule,
	)
	return manifest.NewTuple(), nil
}

func roleGet(e *Engine, entity ids.ID, args *argReader) (manifest.Value, error) {
	module := roleModule(args)
	role := args.String()
	if err := args.done(); err != nil {
		return nil, err
	}
	rule, err := e.store.GetRole(entity, module, role)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return none(), nil
	}
	return some(RuleValue(*rule)), nil
}
